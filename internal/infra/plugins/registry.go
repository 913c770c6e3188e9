// Package plugins implements the Plugin Registry and Plugin Chain (4.3).
//
// Registration follows the database/sql driver pattern: built-in plugins
// register themselves from an init() function by calling Register at
// package load time, rather than being scanned from a directory at
// runtime (9 — "the plugin handler set is fixed at process start").
package plugins

import (
	"fmt"
	"sync"

	"chatgateway/internal/domain/plugin"
)

var (
	mu           sync.RWMutex
	registered   = map[string]plugin.Plugin{}
)

// Register adds a plugin to the process-wide static set. Intended to be
// called from a plugin package's init() function.
func Register(p plugin.Plugin) {
	mu.Lock()
	defer mu.Unlock()
	registered[p.Name] = p
}

// StaticRegistry is a plugin.Registry view over the package-level static
// set built by Register.
type StaticRegistry struct{}

func NewStaticRegistry() *StaticRegistry { return &StaticRegistry{} }

func (r *StaticRegistry) Register(p plugin.Plugin) error {
	if p.Name == "" {
		return fmt.Errorf("plugin name must not be empty")
	}
	Register(p)
	return nil
}

func (r *StaticRegistry) Get(name string) (plugin.Plugin, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registered[name]
	return p, ok
}

func (r *StaticRegistry) List() []plugin.Plugin {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]plugin.Plugin, 0, len(registered))
	for _, p := range registered {
		out = append(out, p)
	}
	return out
}

// Reload is a no-op: the handler set is fixed at process start. Retained so
// the out-of-band reload trigger described in 4.3 has somewhere to land.
func (r *StaticRegistry) Reload() error { return nil }
