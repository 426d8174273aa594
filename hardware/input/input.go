// Package input turns hardware key sources into display events,
// so pages handle physical buttons like panel touches.
package input

import (
	"context"
	"io"
	"sync"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/types"
	"github.com/openq1/q1display/log2"
)

type Source interface {
	Read() (types.KeyData, error)
	String() string
	io.Closer
}

type Dispatch struct {
	log  *log2.Log
	emit types.DisplayEventFunc
	wg   sync.WaitGroup
}

func NewDispatch(log *log2.Log, emit types.DisplayEventFunc) *Dispatch {
	return &Dispatch{log: log.Clone("input: "), emit: emit}
}

// Run reads all sources until stop is closed.
// Source error stops only that source.
func (self *Dispatch) Run(ctx context.Context, sources []Source, stop <-chan struct{}) {
	for _, source := range sources {
		self.wg.Add(1)
		go self.readSource(ctx, source)
	}
	<-stop
	for _, source := range sources {
		if err := source.Close(); err != nil {
			self.log.Errorf("close source=%s err=%v", source.String(), err)
		}
	}
	self.wg.Wait()
}

func (self *Dispatch) readSource(ctx context.Context, source Source) {
	defer self.wg.Done()
	tag := source.String()
	for {
		key, err := source.Read()
		if err != nil {
			if errors.Cause(err) != io.EOF {
				self.log.Errorf("source=%s err=%v", tag, err)
			}
			return
		}
		e := types.DisplayEvent{Type: types.EventKey, Data: key}
		self.log.Debugf("emit %s", e.String())
		self.emit(ctx, e)
	}
}
