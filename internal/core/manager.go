// Package core implements the Instance Manager (4.1): the phone-keyed
// registry of live Instances, each bound to its own Chat Transport and Plugin
// Chain, all sharing the Manager's one Webhook Dispatcher, plus the
// per-Instance runtime loop that drives the 4.2 state machine off transport
// events.
package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/logentry"
	"chatgateway/internal/domain/message"
	"chatgateway/internal/domain/plugin"
	"chatgateway/internal/domain/transport"
	"chatgateway/internal/domain/webhook"
	"chatgateway/pkg/logger"
)

// Manager owns the phone-keyed registry of running Instances (4.1). Lock
// discipline (5): the registry mutex is only ever held across map
// lookups/inserts, never across a suspension point (a transport Open call,
// a repository round-trip, a plugin dispatch) — those run with the
// Instance's own runtime holding no manager-level lock.
type Manager struct {
	mu        sync.RWMutex
	runtimes  map[string]*Runtime // phone -> runtime

	instances    instance.Repository
	messages     message.Repository
	webhookSubs  webhook.SubscriptionRepository
	logs         logentry.Repository
	dispatcher   webhook.Dispatcher
	pluginRegistry plugin.Registry
	transportFactory transport.Factory

	policy      ReconnectPolicy
	authRootDir string
	log         logger.Logger
}

type Dependencies struct {
	Instances        instance.Repository
	Messages         message.Repository
	WebhookSubs      webhook.SubscriptionRepository
	Logs             logentry.Repository
	Dispatcher       webhook.Dispatcher
	PluginRegistry   plugin.Registry
	TransportFactory transport.Factory
	Policy           ReconnectPolicy
	AuthRootDir      string
	Log              logger.Logger
}

func NewManager(deps Dependencies) *Manager {
	return &Manager{
		runtimes:         make(map[string]*Runtime),
		instances:        deps.Instances,
		messages:         deps.Messages,
		webhookSubs:      deps.WebhookSubs,
		logs:             deps.Logs,
		dispatcher:       deps.Dispatcher,
		pluginRegistry:   deps.PluginRegistry,
		transportFactory: deps.TransportFactory,
		policy:           deps.Policy,
		authRootDir:      deps.AuthRootDir,
		log:              deps.Log,
	}
}

// Initialise loads every persisted Instance and binds a Runtime for each.
// Only Instances in active, connecting, qr_ready or reconnecting state have
// their transport reopened, so a process restart resumes sessions that were
// live (4.1); Instances in any other state are bound but not opened.
func (m *Manager) Initialise(ctx context.Context) error {
	const pageSize = 100
	offset := 0
	for {
		insts, total, err := m.instances.List(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("list instances: %w", err)
		}
		for _, inst := range insts {
			rt := m.bind(inst)
			switch inst.Status() {
			case instance.StatusActive, instance.StatusConnecting, instance.StatusQRReady, instance.StatusReconnecting:
				if err := rt.reopen(ctx); err != nil {
					m.log.ErrorWithError("failed to resume instance on startup", err, logger.Fields{"phone": inst.Phone().String()})
				}
			}
		}
		offset += len(insts)
		if offset >= total || len(insts) == 0 {
			break
		}
	}
	return nil
}

// Create persists a new Instance and binds (but does not start) its Runtime.
func (m *Manager) Create(ctx context.Context, phone instance.Phone, name instance.Name, alias string) (*instance.Instance, error) {
	if exists, err := m.instances.Exists(ctx, phone); err != nil {
		return nil, err
	} else if exists {
		return nil, instance.ErrInstanceAlreadyExists
	}
	inst := instance.New(phone, name, alias)
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if err := m.instances.Create(ctx, inst); err != nil {
		return nil, err
	}
	m.bind(inst)
	return inst, nil
}

// bind constructs (or replaces) the Runtime for an Instance without
// starting its transport; registry lock is held only for the map mutation.
func (m *Manager) bind(inst *instance.Instance) *Runtime {
	rt := newRuntime(inst, m)
	m.mu.Lock()
	m.runtimes[inst.Phone().String()] = rt
	m.mu.Unlock()
	return rt
}

func (m *Manager) runtimeFor(phone string) (*Runtime, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rt, ok := m.runtimes[phone]
	return rt, ok
}

// Get returns the persisted Instance for a phone, loading it if no Runtime
// is currently bound (e.g. a logged-out instance not auto-resumed).
func (m *Manager) Get(ctx context.Context, phone instance.Phone) (*instance.Instance, error) {
	if rt, ok := m.runtimeFor(phone.String()); ok {
		return rt.snapshot(), nil
	}
	return m.instances.GetByPhone(ctx, phone)
}

// List returns a page of persisted Instances.
func (m *Manager) List(ctx context.Context, limit, offset int) ([]*instance.Instance, int, error) {
	return m.instances.List(ctx, limit, offset)
}

// Start begins (or resumes) connecting an Instance's transport (4.1/4.2).
func (m *Manager) Start(ctx context.Context, phone instance.Phone) error {
	rt, ok := m.runtimeFor(phone.String())
	if !ok {
		inst, err := m.instances.GetByPhone(ctx, phone)
		if err != nil {
			return err
		}
		rt = m.bind(inst)
	}
	return rt.start(ctx)
}

// Restart marks the single-shot manual-restart flag and cycles the
// transport closed then open.
func (m *Manager) Restart(ctx context.Context, phone instance.Phone) error {
	rt, ok := m.runtimeFor(phone.String())
	if !ok {
		return instance.ErrInstanceNotFound
	}
	return rt.restart(ctx)
}

// Update patches name/alias/proxy fields and persists them.
func (m *Manager) Update(ctx context.Context, phone instance.Phone, name *instance.Name, alias *string, proxyURL *string) (*instance.Instance, error) {
	rt, ok := m.runtimeFor(phone.String())
	var inst *instance.Instance
	var err error
	if ok {
		inst = rt.snapshot()
	} else {
		inst, err = m.instances.GetByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
	}
	inst.Patch(name, alias)
	if proxyURL != nil {
		if err := inst.SetProxyURL(*proxyURL); err != nil {
			return nil, err
		}
	}
	if err := m.instances.Update(ctx, inst); err != nil {
		return nil, err
	}
	if ok {
		rt.replace(inst)
	}
	return inst, nil
}

// Delete removes an Instance's Runtime and, unless keepRecord is set,
// deletes its persisted row too (soft-clean semantics, 4.2).
func (m *Manager) Delete(ctx context.Context, phone instance.Phone, keepRecord bool) error {
	m.mu.Lock()
	rt, ok := m.runtimes[phone.String()]
	delete(m.runtimes, phone.String())
	m.mu.Unlock()

	if ok {
		rt.close()
	}

	if keepRecord {
		inst, err := m.instances.GetByPhone(ctx, phone)
		if err != nil {
			return err
		}
		inst.MarkLoggedOut()
		return m.instances.Update(ctx, inst)
	}

	inst, err := m.instances.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	return m.instances.Delete(ctx, inst.ID())
}

// SendText routes an outbound text send through the owning Instance's
// transport, validating it is active first (4.1, 4.5 outbound pipeline).
func (m *Manager) SendText(ctx context.Context, phone instance.Phone, to, text string) (transport.SendResult, error) {
	rt, ok := m.runtimeFor(phone.String())
	if !ok {
		return transport.SendResult{}, instance.ErrInstanceNotFound
	}
	return rt.sendText(ctx, to, text)
}

// SendMedia routes an outbound media send through the owning Instance's
// transport.
func (m *Manager) SendMedia(ctx context.Context, phone instance.Phone, to string, media transport.Media) (transport.SendResult, error) {
	rt, ok := m.runtimeFor(phone.String())
	if !ok {
		return transport.SendResult{}, instance.ErrInstanceNotFound
	}
	return rt.sendMedia(ctx, to, media)
}

// GroupMetadata queries the live transport for group metadata.
func (m *Manager) GroupMetadata(ctx context.Context, phone instance.Phone, groupJID string) (*transport.GroupMetadata, error) {
	rt, ok := m.runtimeFor(phone.String())
	if !ok {
		return nil, instance.ErrInstanceNotFound
	}
	return rt.cachedGroupMetadata(ctx, groupJID)
}

// Chain exposes an Instance's Plugin Chain for the control-API plugin
// enable/disable/sync endpoints (4.3, 6).
func (m *Manager) Chain(phone instance.Phone) (plugin.Chain, bool) {
	rt, ok := m.runtimeFor(phone.String())
	if !ok {
		return nil, false
	}
	return rt.chain, true
}

// ManagerStatus summarises every bound Runtime for the control API's
// health/snapshot surface (6). Uptime reads "3 days ago" style, phrased
// relative to when the Runtime was bound, for direct display without the
// caller reaching for its own duration formatting.
type ManagerStatus struct {
	Phone  string
	Status instance.Status
	Uptime string
}

func (m *Manager) Status() []ManagerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ManagerStatus, 0, len(m.runtimes))
	for phone, rt := range m.runtimes {
		out = append(out, ManagerStatus{
			Phone:  phone,
			Status: rt.snapshot().Status(),
			Uptime: humanize.Time(rt.boundAt),
		})
	}
	return out
}

// Shutdown closes every bound Runtime's transport without touching
// persisted state, used on graceful process shutdown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	runtimes := make([]*Runtime, 0, len(m.runtimes))
	for _, rt := range m.runtimes {
		runtimes = append(runtimes, rt)
	}
	m.mu.Unlock()

	for _, rt := range runtimes {
		rt.close()
	}
}

func (m *Manager) credentialDir(phone string) string {
	return filepath.Join(m.authRootDir, phone)
}
