package state

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/types"
	"github.com/openq1/q1display/log2"
	"github.com/temoto/alive/v2"
	"go.uber.org/atomic"
)

const ContextKey = "run/session"

// Session is process wide shared state.
// Only router mutates it, pages read.
type Session struct {
	Alive     *alive.Alive
	Backstack *Backstack
	Config    *Config
	Display   types.DisplayLink
	Log       *log2.Log
	Printer   types.PrinterLink
	Tele      types.Teler

	printerData atomic.Value // types.Snapshot
	fileList    atomic.Value // types.Snapshot
	status      atomic.Uint32
}

func NewSession(log *log2.Log, config *Config) *Session {
	if log == nil {
		panic("code error NewSession() log=nil")
	}
	s := &Session{
		Alive:     alive.NewAlive(),
		Backstack: new(Backstack),
		Config:    config,
		Log:       log,
		Tele:      types.TeleStub{},
	}
	s.printerData.Store(types.Snapshot{})
	s.fileList.Store(types.Snapshot{})
	s.status.Store(uint32(types.PrinterNotReady))
	return s
}

func GetSession(ctx context.Context) *Session {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if s, ok := v.(*Session); ok {
		return s
	}
	panic(fmt.Sprintf("context['%s'] expected type *Session actual=%#v", ContextKey, v))
}

func (s *Session) Context(parent context.Context) context.Context {
	return context.WithValue(parent, ContextKey, s)
}

// PrinterData is the latest printer status snapshot, never nil.
func (s *Session) PrinterData() types.Snapshot { return s.printerData.Load().(types.Snapshot) }

// FileList is the latest file list snapshot, never nil.
func (s *Session) FileList() types.Snapshot { return s.fileList.Load().(types.Snapshot) }

func (s *Session) Status() types.PrinterStatus { return types.PrinterStatus(s.status.Load()) }

// Setters below are for router only.

func (s *Session) SetPrinterData(snap types.Snapshot) {
	if snap == nil {
		snap = types.Snapshot{}
	}
	s.printerData.Store(snap)
}

func (s *Session) SetFileList(snap types.Snapshot) {
	if snap == nil {
		snap = types.Snapshot{}
	}
	s.fileList.Store(snap)
}

func (s *Session) SetStatus(st types.PrinterStatus) { s.status.Store(uint32(st)) }

// Error logs err annotated with formatted context, empty format adds nothing.
func (s *Session) Error(err error, format string, args ...interface{}) {
	if err == nil {
		return
	}
	if format != "" {
		err = errors.Annotatef(err, format, args...)
	}
	// Log error hook forwards to telemetry, see cmd/q1display
	s.Log.Error(err)
	s.Log.Debugf("%s", errors.ErrorStack(err))
}
