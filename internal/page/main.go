package page

import (
	"context"
	"fmt"

	"github.com/openq1/q1display/helpers"
	"github.com/openq1/q1display/internal/state"
	"github.com/openq1/q1display/internal/types"
)

// main screen component ids and object names
const (
	mainButtonFiles uint8 = 1

	mainObjNozzle   = "t_nozzle"
	mainObjBed      = "t_bed"
	mainObjState    = "t_state"
	mainObjProgress = "j_progress"
)

// MainPage shows temperatures and print progress.
type MainPage struct {
	Base
}

func NewMainPage(s *state.Session, changePage types.ChangePageFunc) types.Page {
	return &MainPage{Base: NewBase(Main, s, changePage)}
}

func (self *MainPage) OnShow(ctx context.Context) error {
	return self.render(ctx, self.Session().PrinterData())
}

func (self *MainPage) OnDisplayEvent(ctx context.Context, e types.DisplayEvent) error {
	if touched(e, mainButtonFiles) {
		return self.ChangePage(ctx, Files)
	}
	return nil
}

func (self *MainPage) OnPrinterStatusUpdate(ctx context.Context, snap types.Snapshot) error {
	return self.render(ctx, snap)
}

func (self *MainPage) render(ctx context.Context, snap types.Snapshot) error {
	errs := make([]error, 0, 4)
	if t, ok := snap.Float("extruder", "temperature"); ok {
		target, _ := snap.Float("extruder", "target")
		errs = append(errs, self.SetText(ctx, mainObjNozzle, formatTemp(t, target)))
	}
	if t, ok := snap.Float("heater_bed", "temperature"); ok {
		target, _ := snap.Float("heater_bed", "target")
		errs = append(errs, self.SetText(ctx, mainObjBed, formatTemp(t, target)))
	}
	if s, ok := snap.String("print_stats", "state"); ok {
		errs = append(errs, self.SetText(ctx, mainObjState, s))
	}
	if p, ok := snap.Float("virtual_sdcard", "progress"); ok {
		errs = append(errs, self.SetValue(ctx, mainObjProgress, int(p*100+0.5)))
	}
	return helpers.FoldErrors(errs)
}

func formatTemp(current, target float64) string {
	if target <= 0 {
		return fmt.Sprintf("%.0f°C", current)
	}
	return fmt.Sprintf("%.0f/%.0f°C", current, target)
}
