// Package nextion talks to Nextion/TJC serial touch panels.
// Instructions are text terminated by FF FF FF, panel replies with
// binary frames terminated the same way.
package nextion

import (
	"bufio"
	"context"
	"expvar"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/openq1/q1display/helpers"
	"github.com/openq1/q1display/internal/types"
	"github.com/openq1/q1display/log2"
	"go.uber.org/atomic"
)

var ErrNotConnected = errors.New("display not connected")

var (
	statRx = expvar.NewInt("display.rx_bytes")
	statTx = expvar.NewInt("display.tx_bytes")
)

type Options struct {
	Device   string
	Baud     int
	Codepage string
	LogDebug bool
	// reconnect delay limits, zero is default
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

type Display struct {
	codec   *Codec
	log     *log2.Log
	onEvent types.DisplayEventFunc
	opt     Options
	uart    Uarter

	backoff   helpers.Backoff
	connected atomic.Bool
	wmu       sync.Mutex
	lk        sync.Mutex // guards stop, done
	stop      chan struct{}
	done      chan struct{}
}

var _ types.DisplayLink = new(Display) // compile-time interface test

func NewDisplay(log *log2.Log, uart Uarter, opt Options, onEvent types.DisplayEventFunc) (*Display, error) {
	if uart == nil || onEvent == nil {
		return nil, errors.Errorf("code error nextion.NewDisplay uart or onEvent nil")
	}
	codec, err := NewCodec(opt.Codepage)
	if err != nil {
		return nil, errors.Annotate(err, "display")
	}
	if opt.ReconnectMin == 0 {
		opt.ReconnectMin = 200 * time.Millisecond
	}
	if opt.ReconnectMax == 0 {
		opt.ReconnectMax = 10 * time.Second
	}
	self := &Display{
		codec:   codec,
		log:     log.Clone("display: "),
		onEvent: onEvent,
		opt:     opt,
		uart:    uart,
		backoff: helpers.Backoff{Min: opt.ReconnectMin, Max: opt.ReconnectMax, K: 2},
	}
	return self, nil
}

// Connect opens uart and starts reading panel events.
func (self *Display) Connect(ctx context.Context) error {
	self.lk.Lock()
	defer self.lk.Unlock()
	if self.stop != nil {
		return nil
	}
	if err := self.uart.Open(self.opt.Device, self.opt.Baud); err != nil {
		return errors.Annotatef(err, "display connect device=%s", self.opt.Device)
	}
	self.log.Infof("connected device=%s baud=%d codepage=%s", self.opt.Device, self.opt.Baud, self.codec.Name())
	self.connected.Store(true)
	self.stop = make(chan struct{})
	self.done = make(chan struct{})
	go self.readLoop(ctx, self.stop, self.done)
	return nil
}

func (self *Display) Connected() bool { return self.connected.Load() }

// Command sends one instruction, does not wait for result code.
func (self *Display) Command(ctx context.Context, text string) error {
	if !self.connected.Load() {
		return errors.Annotatef(ErrNotConnected, "command=%s", text)
	}
	b, err := self.codec.Encode(text)
	if err != nil {
		return errors.Annotatef(err, "command=%s", text)
	}
	frame := EncodeCommand(b)

	self.wmu.Lock()
	defer self.wmu.Unlock()
	if err := ctx.Err(); err != nil {
		return errors.Annotatef(err, "command=%s", text)
	}
	if self.opt.LogDebug {
		self.log.Debugf("-> %s", text)
	}
	if err := helpers.WriteAll(helpers.NewStatWriter(self.uart, statTx, 0), frame); err != nil {
		return errors.Annotatef(err, "command=%s", text)
	}
	return nil
}

func (self *Display) Close() error {
	self.lk.Lock()
	stop, done := self.stop, self.done
	self.stop, self.done = nil, nil
	self.lk.Unlock()
	if stop == nil {
		return nil
	}
	self.connected.Store(false)
	close(stop)
	err := self.uart.Close()
	<-done
	return errors.Trace(err)
}

func (self *Display) readLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		err := self.readFrames(ctx)
		select {
		case <-stop:
			return
		default:
		}
		self.connected.Store(false)
		if err == nil {
			err = errors.New("EOF")
		}
		self.log.Errorf("read device=%s err=%v", self.opt.Device, err)

		for {
			self.backoff.Failure()
			if !self.backoff.Sleep(stop) {
				return
			}
			self.uart.Close()
			if err := self.uart.Open(self.opt.Device, self.opt.Baud); err != nil {
				self.log.Errorf("reconnect device=%s err=%v", self.opt.Device, err)
				continue
			}
			break
		}
		select {
		case <-stop:
			self.uart.Close()
			return
		default:
		}
		self.backoff.Reset()
		self.connected.Store(true)
		self.log.Infof("reconnected device=%s", self.opt.Device)
		self.onEvent(ctx, types.DisplayEvent{Type: types.EventReconnected})
	}
}

// readFrames returns on read error or EOF
func (self *Display) readFrames(ctx context.Context) error {
	scanner := bufio.NewScanner(helpers.NewStatReader(self.uart, statRx, 0))
	scanner.Split(SplitFrame)
	for scanner.Scan() {
		frame := scanner.Bytes()
		if self.opt.LogDebug {
			self.log.Debugf("<- %x", frame)
		}
		e, err := ParseEvent(frame, self.codec)
		if err != nil {
			self.log.Errorf("frame=%x err=%v", frame, err)
			continue
		}
		if e.Type == types.EventInvalid {
			if frame[0] == CodeSuccess {
				continue
			}
			self.log.Debugf("instruction result code=%02x %s", frame[0], ResultString(frame[0]))
			continue
		}
		self.onEvent(ctx, e)
	}
	return scanner.Err()
}
