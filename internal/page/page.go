// Package page holds screen implementations and name to constructor registry.
package page

import (
	"sort"
	"sync"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/state"
	"github.com/openq1/q1display/internal/types"
)

const (
	Boot  = "boot"
	Main  = "main"
	Files = "files"
)

type Constructor func(s *state.Session, changePage types.ChangePageFunc) types.Page

type Registry struct {
	mu sync.RWMutex
	m  map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Constructor, 8)}
}

// Default registry contains all built-in pages.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Boot, NewBootPage)
	r.Register(Main, NewMainPage)
	r.Register(Files, NewFilesPage)
	return r
}

func (self *Registry) Register(name string, c Constructor) {
	if name == "" || c == nil {
		panic("code error page.Register name or constructor empty")
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if _, ok := self.m[name]; ok {
		panic("code error page duplicate register name=" + name)
	}
	self.m[name] = c
}

// New fails with NotFound error for unregistered name.
func (self *Registry) New(name string, s *state.Session, changePage types.ChangePageFunc) (types.Page, error) {
	self.mu.RLock()
	c, ok := self.m[name]
	self.mu.RUnlock()
	if !ok {
		return nil, errors.NotFoundf("page=%s", name)
	}
	p := c(s, changePage)
	if p == nil {
		return nil, errors.Errorf("code error page=%s constructor returned nil", name)
	}
	return p, nil
}

func (self *Registry) Has(name string) bool {
	self.mu.RLock()
	_, ok := self.m[name]
	self.mu.RUnlock()
	return ok
}

func (self *Registry) Names() []string {
	self.mu.RLock()
	names := make([]string, 0, len(self.m))
	for name := range self.m {
		names = append(names, name)
	}
	self.mu.RUnlock()
	sort.Strings(names)
	return names
}
