// Package router owns the page backstack and routes display and printer
// events to the page on top of it.
//
// Every page handler runs in its own goroutine addressed to the page
// that was current when the event arrived. Navigation that happens
// before the handler runs does not retarget it.
package router

import (
	"context"
	"runtime/debug"

	"github.com/juju/errors"
	"github.com/openq1/q1display/helpers"
	"github.com/openq1/q1display/internal/page"
	"github.com/openq1/q1display/internal/state"
	"github.com/openq1/q1display/internal/types"
	"github.com/openq1/q1display/log2"
	"go.uber.org/atomic"
)

// StatusPages maps printer status to navigation target, "" is no-op.
var StatusPages = map[types.PrinterStatus]string{
	types.PrinterNotReady:     page.Boot,
	types.PrinterReady:        page.Main,
	types.PrinterStopped:      "",
	types.PrinterMoonrakerErr: "",
	types.PrinterKlipperErr:   "",
}

type Router struct {
	log      *log2.Log
	pages    *page.Registry
	session  *state.Session
	navMu    chan struct{} // 1-buffered, lock that respects ctx
	inflight atomic.Int32

	// test hook, called after dispatched handler returns
	XXX_afterDispatch func(target types.Page, kind string, err error)
}

func New(s *state.Session, pages *page.Registry) *Router {
	if s == nil || pages == nil {
		panic("code error router.New session or pages nil")
	}
	return &Router{
		log:     s.Log.Clone("router: "),
		pages:   pages,
		session: s,
		navMu:   make(chan struct{}, 1),
	}
}

// Init pushes boot page onto empty backstack, then connects display and printer.
// Links must be already set in Session and bound to router callbacks.
func (self *Router) Init(ctx context.Context) error {
	if self.session.Backstack.Len() != 0 {
		return errors.Errorf("code error router.Init backstack not empty len=%d", self.session.Backstack.Len())
	}
	boot, err := self.pages.New(page.Boot, self.session, self.ChangePage)
	if err != nil {
		return errors.Annotate(err, "router init")
	}
	self.session.Backstack.Push(boot)
	self.session.Tele.Page(page.Boot)

	if err := self.session.Display.Connect(ctx); err != nil {
		return errors.Annotate(err, "display connect")
	}
	// panel may keep previous screen after controller restart
	if err := self.session.Display.Command(ctx, "page "+page.Boot); err != nil {
		return errors.Annotate(err, "display init")
	}
	if shower, ok := boot.(types.Shower); ok {
		self.dispatch(ctx, boot, "show", func(ctx context.Context) error {
			return shower.OnShow(ctx)
		})
	}
	if err := self.session.Printer.Connect(ctx); err != nil {
		return errors.Annotate(err, "printer connect")
	}
	return nil
}

// ChangePage navigates to target page:
// second from top equals target -> pop, else push new.
// Then display is switched to target. Unknown page is error, nothing changes.
func (self *Router) ChangePage(ctx context.Context, target string) error {
	if !self.pages.Has(target) {
		return errors.NotFoundf("page=%s", target)
	}

	select {
	case self.navMu <- struct{}{}:
	case <-ctx.Done():
		return errors.Annotatef(ctx.Err(), "change page=%s", target)
	}
	defer func() { <-self.navMu }()

	before := self.session.Backstack.Names()
	nav, err := self.session.Backstack.Navigate(target, func() (types.Page, error) {
		return self.pages.New(target, self.session, self.ChangePage)
	})
	if err != nil {
		if nav == state.NavInvalid {
			return errors.Annotatef(err, "change page=%s", target)
		}
		// page popped, close failed
		self.log.Error(err)
	}
	self.log.Debugf("change page=%s nav=%s stack=%v -> %v", target, nav.String(), before, self.session.Backstack.Names())
	self.session.Tele.Page(target)

	if err := self.session.Display.Command(ctx, "page "+target); err != nil {
		return errors.Annotatef(err, "change page=%s", target)
	}

	top := self.session.Backstack.Top()
	if shower, ok := top.(types.Shower); ok {
		self.dispatch(ctx, top, "show", func(ctx context.Context) error {
			return shower.OnShow(ctx)
		})
	}
	return nil
}

// OnDisplayEvent is DisplayLink callback.
func (self *Router) OnDisplayEvent(ctx context.Context, e types.DisplayEvent) {
	target := self.session.Backstack.Top()
	if target == nil {
		self.log.Errorf("display event=%s before init", e.String())
		return
	}
	self.log.Debugf("display event=%s page=%s", e.String(), target.Name())
	self.dispatch(ctx, target, "display", func(ctx context.Context) error {
		return target.OnDisplayEvent(ctx, e)
	})
}

// OnConnectionEvent is PrinterLink callback for status transitions.
func (self *Router) OnConnectionEvent(ctx context.Context, status types.PrinterStatus) {
	self.log.Infof("connection status=%s", status.String())
	self.session.SetStatus(status)
	self.session.Tele.Status(status)

	target, ok := StatusPages[status]
	if !ok {
		self.log.Errorf("code error unknown status=%s", status.String())
		return
	}
	if target == "" {
		return
	}
	if err := self.ChangePage(ctx, target); err != nil {
		self.session.Error(err, "status=%s", status.String())
	}
}

// OnPrinterStatusUpdate is PrinterLink callback for printer object snapshot.
func (self *Router) OnPrinterStatusUpdate(ctx context.Context, snap types.Snapshot) {
	self.session.SetPrinterData(snap)
	target := self.session.Backstack.Top()
	if target == nil {
		return
	}
	self.dispatch(ctx, target, "printer-status", func(ctx context.Context) error {
		return target.OnPrinterStatusUpdate(ctx, snap)
	})
}

// OnFileListUpdate is PrinterLink callback for file list snapshot.
func (self *Router) OnFileListUpdate(ctx context.Context, snap types.Snapshot) {
	self.session.SetFileList(snap)
	target := self.session.Backstack.Top()
	if target == nil {
		return
	}
	self.dispatch(ctx, target, "file-list", func(ctx context.Context) error {
		return target.OnFileListUpdate(ctx, snap)
	})
}

// Inflight is number of handlers still running.
func (self *Router) Inflight() int { return int(self.inflight.Load()) }

// dispatch runs handler detached, errors and panics are logged.
func (self *Router) dispatch(ctx context.Context, target types.Page, kind string, fun func(context.Context) error) {
	if !self.session.Alive.Add(1) {
		self.log.Debugf("dispatch %s page=%s skip, stopping", kind, target.Name())
		return
	}
	self.inflight.Inc()
	go func() {
		var err error
		defer self.session.Alive.Done()
		defer self.inflight.Dec()
		defer func() {
			if x := recover(); x != nil {
				err = helpers.Recovered(x)
				self.log.Errorf("page=%s %s handler %v\n%s", target.Name(), kind, err, debug.Stack())
			}
			if self.XXX_afterDispatch != nil {
				self.XXX_afterDispatch(target, kind, err)
			}
		}()

		err = fun(ctx)
		if err != nil {
			self.session.Error(err, "page=%s %s handler", target.Name(), kind)
		}
	}()
}
