package plugins

import (
	"context"
	"sync"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/plugin"
	"chatgateway/pkg/logger"
)

// Chain is the concrete per-instance plugin.Chain: it holds the effective
// override map and dispatches enabled plugins concurrently for each event
// (4.3).
type Chain struct {
	mu        sync.RWMutex
	phone     string
	registry  plugin.Registry
	overrides map[string]bool
	repo      instance.Repository
	log       logger.Logger
}

// NewChain builds a Chain defaulting every known plugin to disabled — the
// explicit safety policy in 4.3 — then layers the given persisted overrides
// on top.
func NewChain(phone string, registry plugin.Registry, overrides map[string]bool, repo instance.Repository, log logger.Logger) *Chain {
	c := &Chain{
		phone:     phone,
		registry:  registry,
		overrides: make(map[string]bool),
		repo:      repo,
		log:       log,
	}
	for k, v := range overrides {
		c.overrides[k] = v
	}
	return c
}

func (c *Chain) GetStatus() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.registry.List()))
	for _, p := range c.registry.List() {
		out[p.Name] = c.overrides[p.Name]
	}
	return out
}

func (c *Chain) Enable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[name] = true
}

func (c *Chain) Disable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[name] = false
}

func (c *Chain) SetMap(overrides map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range overrides {
		c.overrides[k] = v
	}
}

// SyncFromStore replaces the overrides from the latest persisted Instance
// row and logs the diff (4.3).
func (c *Chain) SyncFromStore(ctx context.Context) error {
	phone, err := instance.NewPhone(c.phone)
	if err != nil {
		return err
	}
	inst, err := c.repo.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}

	fresh := inst.PluginOverrides()

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, enabled := range fresh {
		if prev, ok := c.overrides[name]; !ok || prev != enabled {
			c.log.InfoWithFields("plugin override changed by sync-from-store", logger.Fields{
				"phone": c.phone, "plugin": name, "enabled": enabled,
			})
		}
	}
	c.overrides = make(map[string]bool, len(fresh))
	for k, v := range fresh {
		c.overrides[k] = v
	}
	return nil
}

// Dispatch builds the set of enabled plugins, invokes their handlers
// concurrently and waits for all of them to settle. A plugin failure
// (error return or panic) is logged and never propagated (4.3, P4).
func (c *Chain) Dispatch(ctx context.Context, env plugin.Envelope) {
	c.mu.RLock()
	enabled := make([]plugin.Plugin, 0, len(c.overrides))
	for _, p := range c.registry.List() {
		if c.overrides[p.Name] {
			enabled = append(enabled, p)
		}
	}
	c.mu.RUnlock()

	if len(enabled) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, p := range enabled {
		wg.Add(1)
		go func(p plugin.Plugin) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.log.ErrorWithFields("plugin handler panicked", logger.Fields{
						"phone": c.phone, "plugin": p.Name, "panic": r,
					})
				}
			}()
			pluginEnv := env
			pluginEnv.Defaults = mergeDefaults(p, env.Defaults)
			if err := p.Handler(ctx, pluginEnv); err != nil {
				c.log.ErrorWithError("plugin handler failed", err, logger.Fields{
					"phone": c.phone, "plugin": p.Name,
				})
			}
		}(p)
	}
	wg.Wait()
}

func mergeDefaults(p plugin.Plugin, existing map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{
		"enabled":     true,
		"description": p.Description,
	}
	for k, v := range existing {
		merged[k] = v
	}
	return merged
}
