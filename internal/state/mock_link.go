package state

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/types"
)

// MockDisplay records commands, use in tests instead of serial display.
type MockDisplay struct {
	mu        sync.Mutex
	commands  []string
	connected bool
	// returned by Connect/Command when set
	Err error
	// called after each successful Command
	OnCommand func(text string)
}

var _ types.DisplayLink = new(MockDisplay) // compile-time interface test

func (self *MockDisplay) Connect(ctx context.Context) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.Err != nil {
		return self.Err
	}
	self.connected = true
	return nil
}

func (self *MockDisplay) Command(ctx context.Context, text string) error {
	self.mu.Lock()
	if self.Err != nil {
		self.mu.Unlock()
		return errors.Annotatef(self.Err, "display command=%s", text)
	}
	self.commands = append(self.commands, text)
	f := self.OnCommand
	self.mu.Unlock()
	if f != nil {
		f(text)
	}
	return nil
}

func (self *MockDisplay) Close() error {
	self.mu.Lock()
	self.connected = false
	self.mu.Unlock()
	return nil
}

func (self *MockDisplay) Connected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}

// Commands returns copy of all commands sent so far.
func (self *MockDisplay) Commands() []string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]string(nil), self.commands...)
}

func (self *MockDisplay) Reset() {
	self.mu.Lock()
	self.commands = nil
	self.mu.Unlock()
}

type MockPrinter struct {
	mu        sync.Mutex
	connected bool
	Err       error
}

var _ types.PrinterLink = new(MockPrinter)

func (self *MockPrinter) Connect(ctx context.Context) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.Err != nil {
		return self.Err
	}
	self.connected = true
	return nil
}

func (self *MockPrinter) Close() error {
	self.mu.Lock()
	self.connected = false
	self.mu.Unlock()
	return nil
}

func (self *MockPrinter) Connected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}
