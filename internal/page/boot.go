package page

import (
	"context"

	"github.com/openq1/q1display/internal/state"
	"github.com/openq1/q1display/internal/types"
)

const (
	bootObjStatus = "t0"
)

var bootMessages = map[types.PrinterStatus]string{
	types.PrinterNotReady:     "Waiting for Klipper...",
	types.PrinterReady:        "Ready",
	types.PrinterStopped:      "Printer stopped, restart firmware",
	types.PrinterMoonrakerErr: "Moonraker unreachable",
	types.PrinterKlipperErr:   "Klipper unreachable",
}

// BootPage is shown until printer backend reports ready.
type BootPage struct {
	Base
}

func NewBootPage(s *state.Session, changePage types.ChangePageFunc) types.Page {
	return &BootPage{Base: NewBase(Boot, s, changePage)}
}

func (self *BootPage) OnShow(ctx context.Context) error { return self.render(ctx) }

func (self *BootPage) OnDisplayEvent(ctx context.Context, e types.DisplayEvent) error {
	switch e.Type {
	case types.EventStartup, types.EventReconnected, types.EventAutoWake:
		return self.render(ctx)
	}
	return nil
}

func (self *BootPage) render(ctx context.Context) error {
	return self.SetText(ctx, bootObjStatus, bootMessages[self.Session().Status()])
}
