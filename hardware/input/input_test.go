package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"sync"
	"syscall"
	"testing"

	"github.com/openq1/q1display/internal/types"
	"github.com/openq1/q1display/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/inputevent-go"
)

func encodeEvents(t testing.TB, events ...inputevent.InputEvent) []byte {
	buf := bytes.NewBuffer(nil)
	for _, e := range events {
		require.NoError(t, binary.Write(buf, binary.LittleEndian, e))
	}
	return buf.Bytes()
}

func key(code uint16, state inputevent.KeyEventState) inputevent.InputEvent {
	return inputevent.InputEvent{Time: syscall.Timeval{}, Type: evKey, Code: code, Value: int32(state)}
}

func TestDevInputEventRead(t *testing.T) {
	t.Parallel()

	report := inputevent.InputEvent{Type: 0x00}
	b := encodeEvents(t,
		key(28, inputevent.KeyStateDown),
		report,
		key(28, inputevent.KeyStateHold),
		key(28, inputevent.KeyStateUp),
	)
	src := NewDevInputEventReader(io.NopCloser(bytes.NewReader(b)))

	k, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, types.KeyData{Source: DevInputEventTag, Code: 28, Up: false}, k)
	k, err = src.Read()
	require.NoError(t, err)
	assert.Equal(t, types.KeyData{Source: DevInputEventTag, Code: 28, Up: true}, k)
	_, err = src.Read()
	assert.Equal(t, io.EOF, err)
}

type chanSource struct {
	ch   chan types.KeyData
	once sync.Once
}

func (self *chanSource) String() string { return "chan" }
func (self *chanSource) Read() (types.KeyData, error) {
	k, ok := <-self.ch
	if !ok {
		return types.KeyData{}, io.EOF
	}
	return k, nil
}
func (self *chanSource) Close() error {
	self.once.Do(func() { close(self.ch) })
	return nil
}

func TestDispatchRun(t *testing.T) {
	t.Parallel()

	got := make(chan types.DisplayEvent, 4)
	d := NewDispatch(log2.NewTest(t, log2.LDebug), func(ctx context.Context, e types.DisplayEvent) { got <- e })
	src := &chanSource{ch: make(chan types.KeyData)}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), []Source{src}, stop)
		close(done)
	}()

	src.ch <- types.KeyData{Source: "chan", Code: 2}
	assert.Equal(t, types.DisplayEvent{Type: types.EventKey, Data: types.KeyData{Source: "chan", Code: 2}}, <-got)
	close(stop)
	<-done
}
