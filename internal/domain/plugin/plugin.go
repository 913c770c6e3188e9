// Package plugin defines the Plugin Registry and Plugin Chain ports (4.3).
package plugin

import (
	"context"

	"chatgateway/internal/domain/transport"
)

// Envelope is the typed event handed to every enabled plugin handler for an
// Instance. Exactly one of Message/GroupParticipants is populated.
type Envelope struct {
	Phone             string
	Transport         transport.Transport
	Message           *transport.InboundMessage
	GroupParticipants *transport.GroupParticipantsEvent
	// Defaults merges in the plugin's own declared default config (4.3 —
	// "Envelope contract").
	Defaults map[string]interface{}
}

// Handler is a plugin's async event handler. It must not panic across the
// Chain boundary; the Chain recovers and logs regardless, but well-behaved
// handlers return promptly since dispatch waits for all handlers to settle.
type Handler func(ctx context.Context, env Envelope) error

// Plugin is one registered handler module: a name, its own default-enabled
// flag (overridden per-instance to false by default, 4.3), a description,
// and the handler itself.
type Plugin struct {
	Name           string
	DefaultEnabled bool
	Description    string
	Handler        Handler
}

// Registry holds the process-wide set of loaded plugins. In this
// implementation the set is fixed at process start via static, init-time
// registration (9 — "the plugin handler set is fixed at process start");
// Reload is retained as an externally-triggerable operation for parity with
// the source's hot-reload capability but is a no-op over the static set.
type Registry interface {
	Register(p Plugin) error
	Get(name string) (Plugin, bool)
	List() []Plugin
	Reload() error
}

// Chain holds one Instance's effective plugin override map and dispatches
// enabled plugins concurrently for each event (4.3).
type Chain interface {
	Dispatch(ctx context.Context, env Envelope)
	GetStatus() map[string]bool
	Enable(name string)
	Disable(name string)
	SetMap(overrides map[string]bool)
	SyncFromStore(ctx context.Context) error
}
