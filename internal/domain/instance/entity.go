package instance

import "time"

// Instance is one tenant's authenticated chat session, keyed by phone. It
// owns its connection state machine; it does not own the Chat Transport,
// Plugin Chain or Webhook Dispatcher runtime objects — those are bound to it
// by the Instance Manager (see internal/core).
type Instance struct {
	id                ID
	phone             Phone
	name              Name
	alias             string
	status            Status
	waJID             string
	qrCode            string
	proxyURL          string
	pluginOverrides   PluginOverrides
	reconnectAttempts int
	manualRestart     bool
	lastError         string
	createdAt         time.Time
	updatedAt         time.Time
}

// New creates a brand-new Instance in the initial `pending` state.
func New(phone Phone, name Name, alias string) *Instance {
	now := time.Now()
	return &Instance{
		id:              NewID(),
		phone:           phone,
		name:            name,
		alias:           alias,
		status:          StatusPending,
		pluginOverrides: make(PluginOverrides),
		createdAt:       now,
		updatedAt:       now,
	}
}

// Restore rehydrates an Instance from persisted state.
func Restore(id ID, phone Phone, name Name, alias string, status Status, waJID, qrCode, proxyURL string, overrides PluginOverrides, reconnectAttempts int, createdAt, updatedAt time.Time) *Instance {
	if overrides == nil {
		overrides = make(PluginOverrides)
	}
	return &Instance{
		id:                id,
		phone:             phone,
		name:              name,
		alias:             alias,
		status:            status,
		waJID:             waJID,
		qrCode:            qrCode,
		proxyURL:          proxyURL,
		pluginOverrides:   overrides,
		reconnectAttempts: reconnectAttempts,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (i *Instance) touch() { i.updatedAt = time.Now() }

// Start transitions pending/inactive/logged_out -> connecting, opening the transport.
func (i *Instance) Start() error {
	if i.status != StatusPending && i.status != StatusInactive && i.status != StatusLoggedOut {
		return ErrInvalidTransition
	}
	i.status = StatusConnecting
	i.touch()
	return nil
}

// HandleQR reflects the transport advertising a QR code: connecting -> qr_ready.
func (i *Instance) HandleQR(qrCode string) {
	i.status = StatusQRReady
	i.qrCode = qrCode
	i.touch()
}

// HandleOpen reflects the transport reporting a successful open: any of
// connecting/qr_ready/reconnecting -> active. Resets the reconnect counter
// and clears the QR code.
func (i *Instance) HandleOpen(waJID string) {
	i.status = StatusActive
	i.waJID = waJID
	i.qrCode = ""
	i.reconnectAttempts = 0
	i.lastError = ""
	i.touch()
}

// HandleConnecting reflects the transport re-entering a connecting phase
// from any state (e.g. a reconnect attempt opening a fresh socket).
func (i *Instance) HandleConnecting() {
	i.status = StatusConnecting
	i.touch()
}

// CloseOutcome is the action the caller (the Instance runtime) must take
// after HandleClose decides the next state.
type CloseOutcome struct {
	NextStatus        Status
	ShouldReconnect    bool
	SoftClean          bool
}

// HandleClose reflects the transport reporting a connection close. isLogout
// marks an explicit logout from the upstream; isTransientCode marks the
// configurable "benign during manual-restart" protocol condition (C in the
// spec); maxAttempts bounds reconnection (N). The manual-restart flag is
// single-shot: it is always cleared here, on the first close after it was
// set, regardless of which branch is taken.
func (i *Instance) HandleClose(isLogout, isTransientCode bool, maxAttempts int) CloseOutcome {
	wasManualRestart := i.manualRestart
	i.manualRestart = false

	switch {
	case isLogout || i.reconnectAttempts >= maxAttempts:
		i.status = StatusLoggedOut
		i.softClean()
		i.touch()
		return CloseOutcome{NextStatus: StatusLoggedOut, SoftClean: true}

	case wasManualRestart && !isTransientCode:
		i.status = StatusInactive
		i.touch()
		return CloseOutcome{NextStatus: StatusInactive}

	default:
		i.reconnectAttempts++
		i.status = StatusReconnecting
		i.touch()
		return CloseOutcome{NextStatus: StatusReconnecting, ShouldReconnect: true}
	}
}

// softClean removes runtime/credential-adjacent fields but preserves the
// persisted row itself (record kept, see Delete(keepRecord=true)).
func (i *Instance) softClean() {
	i.waJID = ""
	i.qrCode = ""
}

// MarkManualRestart sets the single-shot manual-restart flag (Restart(phone)).
func (i *Instance) MarkManualRestart() {
	i.manualRestart = true
	i.touch()
}

// IsManualRestart reports the current value of the single-shot flag.
func (i *Instance) IsManualRestart() bool { return i.manualRestart }

// MarkLoggedOut forces the logged_out / soft-clean terminal state, used by
// Delete(keepRecord=true).
func (i *Instance) MarkLoggedOut() {
	i.status = StatusLoggedOut
	i.softClean()
	i.touch()
}

// MarkError records a fatal, non-transition-table failure (e.g. transport
// failed to open at all) without touching the reconnect counter.
func (i *Instance) MarkError(cause string) {
	i.status = StatusError
	i.lastError = cause
	i.touch()
}

// CanSend reports whether the instance is eligible for outbound sends.
func (i *Instance) CanSend() bool { return i.status == StatusActive }

// Patch applies the control-API patch fields {name?, alias?}.
func (i *Instance) Patch(name *Name, alias *string) {
	if name != nil {
		i.name = *name
	}
	if alias != nil {
		i.alias = *alias
	}
	i.touch()
}

// SetProxyURL updates the outbound proxy (supplemented feature, see
// SPEC_FULL.md §C) after validating the URL shape.
func (i *Instance) SetProxyURL(proxyURL string) error {
	if err := ValidateProxyURL(proxyURL); err != nil {
		return err
	}
	i.proxyURL = proxyURL
	i.touch()
	return nil
}

// SetPluginOverrides replaces the full override map (sync-from-store, 4.3).
func (i *Instance) SetPluginOverrides(overrides PluginOverrides) {
	i.pluginOverrides = overrides.Clone()
	i.touch()
}

// SetPluginEnabled flips a single plugin's override.
func (i *Instance) SetPluginEnabled(name string, enabled bool) {
	if i.pluginOverrides == nil {
		i.pluginOverrides = make(PluginOverrides)
	}
	i.pluginOverrides[name] = enabled
	i.touch()
}

// Getters

func (i *Instance) ID() ID                          { return i.id }
func (i *Instance) Phone() Phone                     { return i.phone }
func (i *Instance) Name() Name                       { return i.name }
func (i *Instance) Alias() string                    { return i.alias }
func (i *Instance) Status() Status                   { return i.status }
func (i *Instance) WaJID() string                    { return i.waJID }
func (i *Instance) QRCode() string                   { return i.qrCode }
func (i *Instance) ProxyURL() string                 { return i.proxyURL }
func (i *Instance) HasProxy() bool                   { return i.proxyURL != "" }
func (i *Instance) PluginOverrides() PluginOverrides { return i.pluginOverrides.Clone() }
func (i *Instance) ReconnectAttempts() int           { return i.reconnectAttempts }
func (i *Instance) LastError() string                { return i.lastError }
func (i *Instance) CreatedAt() time.Time             { return i.createdAt }
func (i *Instance) UpdatedAt() time.Time             { return i.updatedAt }

// Validate checks invariants that must hold before persistence.
func (i *Instance) Validate() error {
	if i.phone.IsEmpty() {
		return ErrInvalidPhone
	}
	if !i.status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
