package message

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the flow of a Message relative to the owning Instance.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Type is the content kind of a Message.
type Type string

const (
	TypeText     Type = "text"
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypeAudio    Type = "audio"
	TypeDocument Type = "document"
	TypeOther    Type = "other"
)

// Status is the delivery/consumption state of a Message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
	StatusReceived  Status = "received"
)

// Content is the JSON-shaped content payload (3 — Message.content payload).
type Content struct {
	Text               string                 `json:"text,omitempty"`
	PushName           string                 `json:"pushName,omitempty"`
	UpstreamMessageID  string                 `json:"upstreamMessageId,omitempty"`
	UpstreamTimestamp  int64                  `json:"upstreamTimestamp,omitempty"`
	Raw                map[string]interface{} `json:"raw,omitempty"`
}

// Message is one inbound or outbound chat message owned by an Instance.
type Message struct {
	id         string
	instanceID string
	direction  Direction
	from       string
	to         string
	msgType    Type
	content    Content
	status     Status
	sentAt     *time.Time
	createdAt  time.Time
}

// New creates a Message row to be persisted by the inbound/outbound pipeline.
func New(instanceID string, direction Direction, from, to string, msgType Type, content Content, status Status) *Message {
	return &Message{
		id:         uuid.New().String(),
		instanceID: instanceID,
		direction:  direction,
		from:       from,
		to:         to,
		msgType:    msgType,
		content:    content,
		status:     status,
		createdAt:  time.Now(),
	}
}

// Restore rehydrates a Message from persistence.
func Restore(id, instanceID string, direction Direction, from, to string, msgType Type, content Content, status Status, sentAt *time.Time, createdAt time.Time) *Message {
	return &Message{
		id: id, instanceID: instanceID, direction: direction, from: from, to: to,
		msgType: msgType, content: content, status: status, sentAt: sentAt, createdAt: createdAt,
	}
}

func (m *Message) MarkSent(upstreamMessageID string) {
	now := time.Now()
	m.status = StatusSent
	m.content.UpstreamMessageID = upstreamMessageID
	m.sentAt = &now
}

func (m *Message) MarkFailed() { m.status = StatusFailed }

func (m *Message) ID() string            { return m.id }
func (m *Message) InstanceID() string    { return m.instanceID }
func (m *Message) Direction() Direction  { return m.direction }
func (m *Message) From() string          { return m.from }
func (m *Message) To() string            { return m.to }
func (m *Message) Type() Type            { return m.msgType }
func (m *Message) Content() Content      { return m.content }
func (m *Message) Status() Status        { return m.status }
func (m *Message) SentAt() *time.Time    { return m.sentAt }
func (m *Message) CreatedAt() time.Time  { return m.createdAt }
