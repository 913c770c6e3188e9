// Package transport defines the Chat Transport abstraction (4.6): the
// narrow interface an Instance consumes and an upstream-protocol adapter
// implements. The concrete adapter lives in internal/infra/chattransport.
package transport

import "context"

// EventKind discriminates the typed event stream a Transport produces.
type EventKind string

const (
	EventQR                    EventKind = "qr"
	EventConnectionState       EventKind = "connection_state"
	EventCredentialUpdate      EventKind = "credential_update"
	EventMessage               EventKind = "message"
	EventGroupParticipants     EventKind = "group_participants_update"
)

// ConnectionPhase is the sub-kind of an EventConnectionState event.
type ConnectionPhase string

const (
	PhaseOpen       ConnectionPhase = "open"
	PhaseClose      ConnectionPhase = "close"
	PhaseConnecting ConnectionPhase = "connecting"
)

// Event is the envelope delivered on a Transport's event stream. Exactly one
// of the payload fields below is populated, selected by Kind.
type Event struct {
	Kind EventKind

	QR *QREvent

	Connection *ConnectionStateEvent

	Credential *CredentialUpdateEvent

	Message *InboundMessage

	GroupParticipants *GroupParticipantsEvent
}

// QREvent carries a freshly advertised QR payload.
type QREvent struct {
	Code string
}

// ConnectionStateEvent reports a transport-level connection phase change.
// IsLogout and IsTransientCode are only meaningful on PhaseClose; the latter
// flags the configurable "benign during manual-restart" condition (C, 4.2
// and 9 — open question on transient protocol codes).
type ConnectionStateEvent struct {
	Phase           ConnectionPhase
	IsLogout        bool
	IsTransientCode bool
	UpstreamCode    string
	Cause           error
}

// CredentialUpdateEvent reports the transport persisting new session keys.
type CredentialUpdateEvent struct {
	Blob []byte
}

// InboundMessage is a received chat message, prior to safe-serialisation.
type InboundMessage struct {
	ID        string
	From      string
	To        string
	PushName  string
	Type      string
	Timestamp int64
	IsFromMe  bool
	Raw       interface{}
}

// GroupParticipantAction is the kind of membership change in a
// GroupParticipantsEvent.
type GroupParticipantAction string

const (
	ActionAdd     GroupParticipantAction = "add"
	ActionRemove  GroupParticipantAction = "remove"
	ActionPromote GroupParticipantAction = "promote"
	ActionDemote  GroupParticipantAction = "demote"
)

// GroupParticipantsEvent reports a group membership change.
type GroupParticipantsEvent struct {
	GroupID      string
	Action       GroupParticipantAction
	Participants []string
}

// Media describes an outbound media payload.
type Media struct {
	Type     string
	URL      string
	Caption  string
	Filename string
}

// GroupMetadata is the result of a group metadata lookup.
type GroupMetadata struct {
	ID           string
	Name         string
	Participants []string
}

// SendResult is returned by outbound send operations.
type SendResult struct {
	MessageID string
}

// Transport is the abstract connector to the upstream messaging service
// that one Instance owns exclusively (I6). Implementations must be safe for
// concurrent outbound sends from the same Instance; the interface itself
// does not serialise them (4.6).
type Transport interface {
	// Open establishes (or resumes, from persisted credentials) the
	// upstream connection and begins emitting events on Events().
	Open(ctx context.Context) error

	// Events returns the typed event stream. Closed when the Transport is
	// closed.
	Events() <-chan Event

	SendText(ctx context.Context, jid, text string) (SendResult, error)
	SendMedia(ctx context.Context, jid string, media Media) (SendResult, error)
	QueryGroupMetadata(ctx context.Context, jid string) (*GroupMetadata, error)

	// UserID exposes the bound identity; ok is false until a successful
	// open.
	UserID() (id string, ok bool)

	Logout(ctx context.Context) error
	Close() error
}

// Factory constructs a Transport bound to one phone number, given the
// filesystem credential directory it owns exclusively and an optional proxy
// URL.
type Factory interface {
	New(phone string, credentialDir string, proxyURL string) (Transport, error)
}
