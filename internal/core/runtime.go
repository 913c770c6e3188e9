package core

import (
	"context"
	"sync"
	"time"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/logentry"
	"chatgateway/internal/domain/message"
	"chatgateway/internal/domain/plugin"
	"chatgateway/internal/domain/transport"
	"chatgateway/internal/infra/plugins"
	"chatgateway/internal/shared/safeserialise"
	"chatgateway/pkg/logger"
)

// Runtime binds one Instance to its own Transport, Plugin Chain and event
// loop (4.1). Exactly one Runtime exists per phone at a time (I6).
type Runtime struct {
	mu   sync.Mutex
	inst *instance.Instance

	manager   *Manager
	transport transport.Transport
	chain     plugin.Chain

	groupCacheMu sync.Mutex
	groupCache   map[string]*transport.GroupMetadata

	cancel  context.CancelFunc
	done    chan struct{}
	boundAt time.Time
}

func newRuntime(inst *instance.Instance, m *Manager) *Runtime {
	chain := plugins.NewChain(inst.Phone().String(), m.pluginRegistry, inst.PluginOverrides(), m.instances, m.log)
	return &Runtime{
		inst:       inst,
		manager:    m,
		chain:      chain,
		groupCache: make(map[string]*transport.GroupMetadata),
		boundAt:    time.Now(),
	}
}

func (r *Runtime) snapshot() *instance.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inst
}

func (r *Runtime) replace(inst *instance.Instance) {
	r.mu.Lock()
	r.inst = inst
	r.mu.Unlock()
}

func (r *Runtime) save(ctx context.Context) {
	r.mu.Lock()
	inst := r.inst
	r.mu.Unlock()
	if err := r.manager.instances.Update(ctx, inst); err != nil {
		r.manager.log.ErrorWithError("failed to persist instance state", err, logger.Fields{"phone": inst.Phone().String()})
	}
}

// start transitions a pending/inactive/logged_out Instance into connecting
// (entity Start's guard) and opens the transport. This is the public,
// user-initiated entry point, called only by Manager.Start.
func (r *Runtime) start(ctx context.Context) error {
	r.mu.Lock()
	if err := r.inst.Start(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()
	return r.open(ctx)
}

// reopen resumes an already-bound Instance's transport without Start's
// pending/inactive/logged_out guard, moving it straight to connecting (4.2's
// wildcard "* -> connecting" row). Used by every path that reopens a
// transport for an Instance that is not in one of Start's accepted states:
// scheduled reconnection, Restart, and Initialise resuming a process
// restart mid-session (active/connecting/qr_ready/reconnecting).
func (r *Runtime) reopen(ctx context.Context) error {
	r.mu.Lock()
	r.inst.HandleConnecting()
	r.mu.Unlock()
	r.save(ctx)
	return r.open(ctx)
}

// open creates the transport if necessary and launches the event loop
// goroutine. Callers must have already moved the Instance to connecting.
func (r *Runtime) open(ctx context.Context) error {
	r.mu.Lock()
	inst := r.inst
	if r.transport == nil {
		t, err := r.manager.transportFactory.New(inst.Phone().String(), r.manager.credentialDir(inst.Phone().String()), inst.ProxyURL())
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.transport = t
	}
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	t := r.transport
	r.mu.Unlock()

	r.save(ctx)

	go r.eventLoop(runCtx, t)

	if err := t.Open(runCtx); err != nil {
		r.mu.Lock()
		inst.MarkError(err.Error())
		r.mu.Unlock()
		r.save(ctx)
		return err
	}
	return nil
}

// restart cycles the transport closed then open, marking the single-shot
// manual-restart flag so HandleClose treats the resulting close as expected
// (4.2, Restart operation). Uses reopen, not start: the
// Instance is typically active when Restart is called, a state Start's
// guard rejects.
func (r *Runtime) restart(ctx context.Context) error {
	r.mu.Lock()
	r.inst.MarkManualRestart()
	t := r.transport
	r.mu.Unlock()
	r.save(ctx)

	if t != nil {
		_ = t.Close()
	}
	r.mu.Lock()
	r.transport = nil
	r.mu.Unlock()

	return r.reopen(ctx)
}

func (r *Runtime) close() {
	r.mu.Lock()
	cancel := r.cancel
	t := r.transport
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if t != nil {
		_ = t.Close()
	}
}

func (r *Runtime) sendText(ctx context.Context, to, text string) (transport.SendResult, error) {
	r.mu.Lock()
	inst := r.inst
	t := r.transport
	r.mu.Unlock()

	if !inst.CanSend() {
		return transport.SendResult{}, instance.ErrInstanceNotConnected
	}
	res, err := t.SendText(ctx, to, text)
	r.recordOutbound(ctx, inst, to, message.TypeText, message.Content{Text: text}, res, err)
	return res, err
}

func (r *Runtime) sendMedia(ctx context.Context, to string, media transport.Media) (transport.SendResult, error) {
	r.mu.Lock()
	inst := r.inst
	t := r.transport
	r.mu.Unlock()

	if !inst.CanSend() {
		return transport.SendResult{}, instance.ErrInstanceNotConnected
	}
	res, err := t.SendMedia(ctx, to, media)
	r.recordOutbound(ctx, inst, to, mediaMessageType(media.Type), message.Content{Text: media.Caption}, res, err)
	return res, err
}

func mediaMessageType(t string) message.Type {
	switch t {
	case "image":
		return message.TypeImage
	case "video":
		return message.TypeVideo
	case "audio":
		return message.TypeAudio
	case "document":
		return message.TypeDocument
	default:
		return message.TypeOther
	}
}

// recordOutbound persists the sent message and fires the outbound webhook
// event; a persistence failure is logged only (4.5's "contained per-step
// failures" posture applies symmetrically to outbound and inbound).
func (r *Runtime) recordOutbound(ctx context.Context, inst *instance.Instance, to string, msgType message.Type, content message.Content, res transport.SendResult, sendErr error) {
	from, _ := r.transport.UserID()
	status := message.StatusSent
	if sendErr != nil {
		status = message.StatusFailed
	} else {
		content.UpstreamMessageID = res.MessageID
	}
	msg := message.New(inst.ID().String(), message.DirectionOutgoing, from, to, msgType, content, status)
	if err := r.manager.messages.Create(ctx, msg); err != nil {
		r.manager.log.ErrorWithError("failed to persist outbound message", err, logger.Fields{"phone": inst.Phone().String()})
	}
	event := "message.sent"
	if sendErr != nil {
		event = "message.failed"
	}
	r.manager.dispatcher.Dispatch(ctx, inst.ID().String(), event, map[string]interface{}{
		"to": to, "type": string(msgType), "messageId": res.MessageID,
	})
}

// eventLoop consumes the transport's typed event stream and drives the
// Instance's state machine and inbound pipeline (4.2, 4.5). Runs until
// ctx is cancelled or the transport closes its event channel.
func (r *Runtime) eventLoop(ctx context.Context, t transport.Transport) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-t.Events():
			if !ok {
				return
			}
			r.handleEvent(ctx, evt)
		}
	}
}

func (r *Runtime) handleEvent(ctx context.Context, evt transport.Event) {
	switch evt.Kind {
	case transport.EventQR:
		r.mu.Lock()
		inst := r.inst
		inst.HandleQR(evt.QR.Code)
		r.mu.Unlock()
		r.save(ctx)
		r.manager.dispatcher.Dispatch(ctx, inst.ID().String(), "connection.update", map[string]interface{}{"status": "qr_ready"})

	case transport.EventConnectionState:
		r.handleConnectionState(ctx, evt.Connection)

	case transport.EventCredentialUpdate:
		r.writeLog(ctx, logentry.LevelInfo, "credentials updated")

	case transport.EventMessage:
		r.handleInboundMessage(ctx, evt.Message)

	case transport.EventGroupParticipants:
		r.handleGroupParticipants(ctx, evt.GroupParticipants)
	}
}

func (r *Runtime) handleConnectionState(ctx context.Context, conn *transport.ConnectionStateEvent) {
	r.mu.Lock()
	inst := r.inst
	r.mu.Unlock()

	switch conn.Phase {
	case transport.PhaseOpen:
		uid, _ := r.transport.UserID()
		r.mu.Lock()
		inst.HandleOpen(uid)
		r.mu.Unlock()
		r.save(ctx)
		r.manager.dispatcher.Dispatch(ctx, inst.ID().String(), "connection.update", map[string]interface{}{"status": "connected", "jid": uid})

	case transport.PhaseConnecting:
		r.mu.Lock()
		inst.HandleConnecting()
		r.mu.Unlock()
		r.save(ctx)
		r.manager.dispatcher.Dispatch(ctx, inst.ID().String(), "connection.update", map[string]interface{}{"status": "connecting"})

	case transport.PhaseClose:
		transientCode := conn.IsTransientCode || r.manager.policy.IsTransientCode(conn.UpstreamCode)
		r.mu.Lock()
		outcome := inst.HandleClose(conn.IsLogout, transientCode, r.manager.policy.MaxAttempts)
		r.mu.Unlock()
		r.save(ctx)

		subStatus := "reconnecting"
		switch outcome.NextStatus {
		case instance.StatusLoggedOut:
			subStatus = "logged_out"
		case instance.StatusInactive:
			subStatus = "manual_restart"
		}
		r.manager.dispatcher.Dispatch(ctx, inst.ID().String(), "connection.update", map[string]interface{}{"status": subStatus, "code": conn.UpstreamCode})

		if outcome.ShouldReconnect {
			delay := time.Duration(r.manager.policy.Delay) * time.Second
			time.AfterFunc(delay, func() {
				if err := r.reopen(context.Background()); err != nil {
					r.manager.log.ErrorWithError("scheduled reconnect failed", err, logger.Fields{"phone": inst.Phone().String()})
				}
			})
		}
	}
}

// handleInboundMessage implements the inbound pipeline (4.5): serialise,
// persist, plugin-chain, webhook - each step's failure is contained and
// logged, never aborting the remaining steps. Self-originated messages
// (IsFromMe) are skipped, since otherwise an Instance would echo its own
// outbound sends back through its own inbound pipeline (9, open question).
func (r *Runtime) handleInboundMessage(ctx context.Context, in *transport.InboundMessage) {
	if in == nil || in.IsFromMe {
		return
	}

	r.mu.Lock()
	inst := r.inst
	r.mu.Unlock()

	raw := safeserialise.Sanitise(in.Raw)
	content := message.Content{
		PushName:          in.PushName,
		UpstreamMessageID: in.ID,
		UpstreamTimestamp: in.Timestamp,
		Raw:               raw,
	}
	msg := message.New(inst.ID().String(), message.DirectionIncoming, in.From, in.To, message.Type(in.Type), content, message.StatusReceived)
	if err := r.manager.messages.Create(ctx, msg); err != nil {
		r.manager.log.ErrorWithError("failed to persist inbound message", err, logger.Fields{"phone": inst.Phone().String()})
	}

	r.chain.Dispatch(ctx, plugin.Envelope{
		Phone:     inst.Phone().String(),
		Transport: r.transport,
		Message:   in,
	})

	r.manager.dispatcher.Dispatch(ctx, inst.ID().String(), "message.received", map[string]interface{}{
		"from": in.From, "to": in.To, "type": in.Type, "pushName": in.PushName,
	})
}

func (r *Runtime) handleGroupParticipants(ctx context.Context, evt *transport.GroupParticipantsEvent) {
	if evt == nil {
		return
	}
	r.mu.Lock()
	inst := r.inst
	r.mu.Unlock()

	r.invalidateGroupCache(evt.GroupID)

	r.chain.Dispatch(ctx, plugin.Envelope{
		Phone:             inst.Phone().String(),
		Transport:         r.transport,
		GroupParticipants: evt,
	})

	r.manager.dispatcher.Dispatch(ctx, inst.ID().String(), "group.participants_update", map[string]interface{}{
		"groupId": evt.GroupID, "action": string(evt.Action), "participants": evt.Participants,
	})
}

// cachedGroupMetadata memoizes successful metadata lookups and never caches
// a transport failure, so a subsequent call retries against the upstream
// rather than sticking with a bad result (design note 9 — group-metadata
// cache).
func (r *Runtime) cachedGroupMetadata(ctx context.Context, groupID string) (*transport.GroupMetadata, error) {
	r.groupCacheMu.Lock()
	if cached, ok := r.groupCache[groupID]; ok {
		r.groupCacheMu.Unlock()
		return cached, nil
	}
	r.groupCacheMu.Unlock()

	meta, err := r.transport.QueryGroupMetadata(ctx, groupID)
	if err != nil {
		return nil, err
	}
	r.groupCacheMu.Lock()
	r.groupCache[groupID] = meta
	r.groupCacheMu.Unlock()
	return meta, nil
}

func (r *Runtime) invalidateGroupCache(groupID string) {
	r.groupCacheMu.Lock()
	delete(r.groupCache, groupID)
	r.groupCacheMu.Unlock()
}

func (r *Runtime) writeLog(ctx context.Context, level logentry.Level, msg string) {
	r.mu.Lock()
	inst := r.inst
	r.mu.Unlock()
	entry := logentry.New(inst.ID().String(), level, msg)
	if err := r.manager.logs.Create(ctx, entry); err != nil {
		r.manager.log.ErrorWithError("failed to persist log entry", err, logger.Fields{"phone": inst.Phone().String()})
	}
}
