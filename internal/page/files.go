package page

import (
	"context"
	"fmt"
	"sort"

	"github.com/openq1/q1display/helpers"
	"github.com/openq1/q1display/internal/state"
	"github.com/openq1/q1display/internal/types"
	"go.uber.org/atomic"
)

const (
	filesButtonBack uint8 = 1
	filesButtonPrev uint8 = 2
	filesButtonNext uint8 = 3
	FilesPerScreen        = 5
)

// FilesPage lists gcode files by pages of FilesPerScreen.
// Offset is touched only from handlers, which may overlap, so it is guarded.
type FilesPage struct {
	Base
	offset atomic.Int32
}

func NewFilesPage(s *state.Session, changePage types.ChangePageFunc) types.Page {
	return &FilesPage{Base: NewBase(Files, s, changePage)}
}

func (self *FilesPage) OnShow(ctx context.Context) error {
	return self.render(ctx, self.Session().FileList())
}

func (self *FilesPage) OnDisplayEvent(ctx context.Context, e types.DisplayEvent) error {
	switch {
	case touched(e, filesButtonBack):
		return self.ChangePage(ctx, Main)
	case touched(e, filesButtonPrev):
		if self.offset.Add(-FilesPerScreen) < 0 {
			self.offset.Store(0)
		}
		return self.render(ctx, self.Session().FileList())
	case touched(e, filesButtonNext):
		total := len(FileNames(self.Session().FileList()))
		if int(self.offset.Add(FilesPerScreen)) >= total {
			self.offset.Add(-FilesPerScreen)
		}
		return self.render(ctx, self.Session().FileList())
	}
	return nil
}

func (self *FilesPage) OnFileListUpdate(ctx context.Context, snap types.Snapshot) error {
	self.offset.Store(0)
	return self.render(ctx, snap)
}

func (self *FilesPage) render(ctx context.Context, snap types.Snapshot) error {
	names := FileNames(snap)
	offset := int(self.offset.Load())
	errs := make([]error, 0, FilesPerScreen)
	for i := 0; i < FilesPerScreen; i++ {
		text := ""
		if offset+i < len(names) {
			text = names[offset+i]
		}
		errs = append(errs, self.SetText(ctx, fmt.Sprintf("t%d", i), text))
	}
	return helpers.FoldErrors(errs)
}

// FileNames extracts sorted paths from file list snapshot {"files":[{"path":...}]}.
func FileNames(snap types.Snapshot) []string {
	v, ok := snap.Lookup("files")
	if !ok {
		return nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if path, ok := m["path"].(string); ok {
			names = append(names, path)
		}
	}
	sort.Strings(names)
	return names
}
