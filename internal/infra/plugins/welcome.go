package plugins

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"chatgateway/internal/domain/plugin"
	"chatgateway/internal/domain/transport"
)

const welcomeBatchDelay = 5 * time.Minute

// groupPending is the per-group batching state described in design note 9
// ("Coroutine-style timers (welcome plugin)"): a pending participant set and
// its cancellable delay.
type groupPending struct {
	participants map[string]bool
	transport    transport.Transport
	timer        *time.Timer
}

// welcomePlugin greets newly added group participants once, 5 minutes after
// the first addition in a batch, naming everyone added in that window. A
// `remove` that empties the pending set before the timer fires cancels the
// scheduled send (scenario 4). State is scoped per owning Instance by
// keying on phone — each Instance's Chain invokes the same registered
// handler, but never shares pending state with another Instance's.
type welcomePlugin struct {
	mu    sync.Mutex
	state map[string]map[string]*groupPending // phone -> groupId -> pending
}

var welcome = &welcomePlugin{state: make(map[string]map[string]*groupPending)}

func init() {
	Register(plugin.Plugin{
		Name:           "welcome",
		DefaultEnabled: false,
		Description:    "Greets newly added group participants after a 5-minute batching window.",
		Handler:        welcome.handle,
	})
}

func (w *welcomePlugin) handle(ctx context.Context, env plugin.Envelope) error {
	gp := env.GroupParticipants
	if gp == nil || env.Transport == nil {
		return nil
	}

	switch gp.Action {
	case transport.ActionAdd:
		w.enqueue(env.Phone, gp.GroupID, gp.Participants, env.Transport)
	case transport.ActionRemove:
		w.cancelIfEmpty(env.Phone, gp.GroupID, gp.Participants)
	}
	return nil
}

func (w *welcomePlugin) enqueue(phone, groupID string, participants []string, t transport.Transport) {
	w.mu.Lock()
	defer w.mu.Unlock()

	byGroup, ok := w.state[phone]
	if !ok {
		byGroup = make(map[string]*groupPending)
		w.state[phone] = byGroup
	}

	pending, ok := byGroup[groupID]
	if !ok {
		pending = &groupPending{participants: make(map[string]bool), transport: t}
		byGroup[groupID] = pending
	}
	pending.transport = t
	for _, p := range participants {
		pending.participants[p] = true
	}

	if pending.timer == nil {
		pending.timer = time.AfterFunc(welcomeBatchDelay, func() {
			w.fire(phone, groupID)
		})
	}
}

func (w *welcomePlugin) cancelIfEmpty(phone, groupID string, removed []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	byGroup, ok := w.state[phone]
	if !ok {
		return
	}
	pending, ok := byGroup[groupID]
	if !ok {
		return
	}
	for _, p := range removed {
		delete(pending.participants, p)
	}
	if len(pending.participants) == 0 {
		if pending.timer != nil {
			pending.timer.Stop()
		}
		delete(byGroup, groupID)
	}
}

func (w *welcomePlugin) fire(phone, groupID string) {
	w.mu.Lock()
	byGroup := w.state[phone]
	pending, ok := byGroup[groupID]
	if !ok {
		w.mu.Unlock()
		return
	}
	names := make([]string, 0, len(pending.participants))
	for p := range pending.participants {
		names = append(names, p)
	}
	t := pending.transport
	delete(byGroup, groupID)
	w.mu.Unlock()

	if len(names) == 0 || t == nil {
		return
	}
	msg := fmt.Sprintf("Welcome to the group, %s!", strings.Join(names, ", "))
	_, _ = t.SendText(context.Background(), groupID, msg)
}
