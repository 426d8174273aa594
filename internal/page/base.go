package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/state"
	"github.com/openq1/q1display/internal/types"
)

// Base implements Page with no-op handlers, embed and override what's needed.
type Base struct {
	name       string
	session    *state.Session
	changePage types.ChangePageFunc
}

func NewBase(name string, s *state.Session, changePage types.ChangePageFunc) Base {
	return Base{name: name, session: s, changePage: changePage}
}

func (self *Base) Name() string             { return self.name }
func (self *Base) Session() *state.Session { return self.session }

func (self *Base) ChangePage(ctx context.Context, target string) error {
	return self.changePage(ctx, target)
}

func (self *Base) OnDisplayEvent(ctx context.Context, e types.DisplayEvent) error { return nil }
func (self *Base) OnPrinterStatusUpdate(ctx context.Context, snap types.Snapshot) error {
	return nil
}
func (self *Base) OnFileListUpdate(ctx context.Context, snap types.Snapshot) error { return nil }

// SetText sends `obj.txt="text"`.
func (self *Base) SetText(ctx context.Context, obj string, text string) error {
	cmd := fmt.Sprintf(`%s.txt="%s"`, obj, escapeText(text))
	return errors.Annotatef(self.session.Display.Command(ctx, cmd), "page=%s", self.name)
}

// SetValue sends `obj.val=n`.
func (self *Base) SetValue(ctx context.Context, obj string, n int) error {
	cmd := fmt.Sprintf("%s.val=%d", obj, n)
	return errors.Annotatef(self.session.Display.Command(ctx, cmd), "page=%s", self.name)
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", `\r`)

func escapeText(s string) string { return textEscaper.Replace(s) }

// touched reports release of component on current screen.
func touched(e types.DisplayEvent, component uint8) bool {
	if e.Type != types.EventTouch {
		return false
	}
	td, ok := e.Data.(types.TouchData)
	return ok && td.Component == component && !td.Press
}
