package nextion

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/types"
	"github.com/openq1/q1display/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventSink struct {
	ch chan types.DisplayEvent
}

func newEventSink() *eventSink { return &eventSink{ch: make(chan types.DisplayEvent, 16)} }

func (self *eventSink) on(ctx context.Context, e types.DisplayEvent) { self.ch <- e }

func (self *eventSink) next(t testing.TB) types.DisplayEvent {
	select {
	case e := <-self.ch:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting display event")
	}
	return types.DisplayEvent{}
}

func TestDisplayEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := log2.NewTest(t, log2.LDebug)
	uart, panelW, panelR := NewPipeUart()
	sink := newEventSink()
	d, err := NewDisplay(log, uart, Options{Device: "/dev/null", Baud: 115200, LogDebug: true}, sink.on)
	require.NoError(t, err)

	require.Error(t, d.Command(ctx, "page boot"))
	require.NoError(t, d.Connect(ctx))
	require.NoError(t, d.Connect(ctx)) // idempotent
	assert.Equal(t, 1, uart.Opened())
	assert.True(t, d.Connected())

	go func() {
		panelW.Write(mustHex(t, "88 ffffff 01ffffff 1a ffffff 65 010301 ffffff"))
		panelW.Write(mustHex(t, "71 ffffff"))
		panelW.Write(mustHex(t, "ff ffffff"))
	}()
	assert.Equal(t, types.DisplayEvent{Type: types.EventStartup}, sink.next(t))
	assert.Equal(t, types.DisplayEvent{Type: types.EventTouch, Data: types.TouchData{Page: 1, Component: 3, Press: true}}, sink.next(t))
	assert.Equal(t, types.DisplayEvent{Type: types.EventNumber, Data: types.NumberData{Value: -1}}, sink.next(t))

	sent := make(chan []byte, 1)
	go func() {
		b := make([]byte, 64)
		n, _ := io.ReadAtLeast(panelR, b, 12)
		sent <- b[:n]
	}()
	txBefore := statTx.Value()
	require.NoError(t, d.Command(ctx, "page main"))
	assert.Equal(t, "70616765206d61696effffff", hexString(<-sent))
	assert.GreaterOrEqual(t, statTx.Value()-txBefore, int64(12))
	assert.NotZero(t, statRx.Value())

	require.NoError(t, d.Close())
	assert.False(t, d.Connected())
	err = d.Command(ctx, "page boot")
	require.Error(t, err)
	assert.Equal(t, ErrNotConnected, errors.Cause(err))
	require.NoError(t, d.Close())
}

func TestDisplayConnectError(t *testing.T) {
	t.Parallel()
	uart, _, _ := NewPipeUart()
	uart.OpenErr = errors.New("no such device")
	d, err := NewDisplay(log2.NewTest(t, log2.LDebug), uart, Options{Device: "/dev/ttyX"}, newEventSink().on)
	require.NoError(t, err)
	err = d.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/ttyX")
	assert.False(t, d.Connected())
}

func TestDisplayBadCodepage(t *testing.T) {
	t.Parallel()
	uart, _, _ := NewPipeUart()
	_, err := NewDisplay(log2.NewTest(t, log2.LDebug), uart, Options{Codepage: "klingon"}, newEventSink().on)
	require.Error(t, err)
}

// scriptUart gives next scripted input on each Open.
// Last script blocks like idle port until Close.
type scriptUart struct {
	mu       sync.Mutex
	scripts  [][]byte
	r        io.Reader
	opens    int
	closedAt int
	w        bytes.Buffer
}

func (self *scriptUart) Open(path string, baud int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if len(self.scripts) == 0 {
		return errors.New("no more scripts")
	}
	self.opens++
	self.r = bytes.NewReader(self.scripts[0])
	self.scripts = self.scripts[1:]
	return nil
}

func (self *scriptUart) Read(p []byte) (int, error) {
	self.mu.Lock()
	r, last := self.r, len(self.scripts) == 0
	self.mu.Unlock()
	n, err := r.Read(p)
	if err != io.EOF || !last {
		return n, err
	}
	for {
		self.mu.Lock()
		closed := self.closedAt == self.opens
		self.mu.Unlock()
		if closed {
			return 0, io.EOF
		}
		time.Sleep(time.Millisecond)
	}
}

func (self *scriptUart) Write(p []byte) (int, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.w.Write(p)
}

func (self *scriptUart) Close() error {
	self.mu.Lock()
	self.closedAt = self.opens
	self.mu.Unlock()
	return nil
}

func TestDisplayReconnect(t *testing.T) {
	t.Parallel()
	uart := &scriptUart{scripts: [][]byte{
		mustHex(t, "86 ffffff"),
		mustHex(t, "87 ffffff"),
	}}
	sink := newEventSink()
	d, err := NewDisplay(log2.NewTest(t, log2.LDebug), uart,
		Options{Device: "/dev/null", ReconnectMin: time.Millisecond, ReconnectMax: 5 * time.Millisecond}, sink.on)
	require.NoError(t, err)
	require.NoError(t, d.Connect(context.Background()))

	assert.Equal(t, types.EventAutoSleep, sink.next(t).Type)
	assert.Equal(t, types.EventReconnected, sink.next(t).Type)
	assert.Equal(t, types.EventAutoWake, sink.next(t).Type)
	require.NoError(t, d.Close())
}
