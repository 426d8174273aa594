package nextion

import (
	"io"
	"sync"

	"github.com/juju/errors"
)

// Uarter is serial port to panel.
// Close must unblock pending Read.
type Uarter interface {
	Open(path string, baud int) error
	io.ReadWriteCloser
}

// Mock Uarter for tests, panel side is the other end of pipes.
type pipeUart struct {
	mu     sync.Mutex
	r      *io.PipeReader
	w      *io.PipeWriter
	opened int
	// returned by Open when set
	OpenErr error
}

// NewPipeUart returns uart and panel side: write to panelW to emulate
// panel output, read panelR to see sent commands.
func NewPipeUart() (u *pipeUart, panelW *io.PipeWriter, panelR *io.PipeReader) {
	u = &pipeUart{}
	u.r, panelW = io.Pipe()
	panelR, u.w = io.Pipe()
	return u, panelW, panelR
}

func (self *pipeUart) Open(path string, baud int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.OpenErr != nil {
		return self.OpenErr
	}
	self.opened++
	return nil
}

func (self *pipeUart) Opened() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.opened
}

func (self *pipeUart) Read(p []byte) (int, error)  { return self.r.Read(p) }
func (self *pipeUart) Write(p []byte) (int, error) { return self.w.Write(p) }

func (self *pipeUart) Close() error {
	errs := []error{self.r.Close(), self.w.Close()}
	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
