package types

import "context"

// Page is one navigable screen.
// Handlers run detached from the router, each in its own goroutine,
// so they may block but must be safe for concurrent use.
type Page interface {
	Name() string
	OnDisplayEvent(ctx context.Context, e DisplayEvent) error
	OnPrinterStatusUpdate(ctx context.Context, snap Snapshot) error
	OnFileListUpdate(ctx context.Context, snap Snapshot) error
}

// ChangePageFunc is the only way pages mutate navigation.
type ChangePageFunc func(ctx context.Context, target string) error

// DisplayLink is connection to touchscreen.
type DisplayLink interface {
	Connect(ctx context.Context) error
	// Command sends one screen control instruction, e.g. "page main".
	Command(ctx context.Context, text string) error
	Close() error
}

// PrinterLink is connection to printer backend.
type PrinterLink interface {
	Connect(ctx context.Context) error
	Close() error
}

// Teler reports controller state to remote monitoring.
type Teler interface {
	Status(PrinterStatus)
	Page(name string)
	Error(error)
	Close()
}

type TeleStub struct{}

func (TeleStub) Status(PrinterStatus) {}
func (TeleStub) Page(string)          {}
func (TeleStub) Error(error)          {}
func (TeleStub) Close()               {}

// Shower is optional Page extension, called after page became visible
// by forward or back navigation.
type Shower interface {
	OnShow(ctx context.Context) error
}
