// Package moonraker is printer link over Moonraker websocket JSON-RPC API.
package moonraker

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/openq1/q1display/helpers"
	"github.com/openq1/q1display/internal/types"
	"github.com/openq1/q1display/log2"
	"go.uber.org/atomic"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 2 * time.Second
	ClientName          = "q1display"

	statusUnknown = 0xff
)

type Options struct {
	URL          string
	APIKey       string
	Objects      []string
	Timeout      time.Duration
	PollInterval time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	LogDebug     bool
}

// Callbacks are called from single client goroutine, in order.
type Callbacks struct {
	OnConnection types.StatusFunc
	OnStatus     types.SnapshotFunc
	OnFiles      types.SnapshotFunc
}

type Client struct {
	cb     Callbacks
	dialer websocket.Dialer
	log    *log2.Log
	opt    Options

	backoff helpers.Backoff
	nextID  atomic.Int64
	status  atomic.Uint32

	lk   sync.Mutex // guards stop, done
	stop chan struct{}
	done chan struct{}
}

var _ types.PrinterLink = new(Client) // compile-time interface test

func NewClient(log *log2.Log, opt Options, cb Callbacks) (*Client, error) {
	if cb.OnConnection == nil || cb.OnStatus == nil || cb.OnFiles == nil {
		return nil, errors.Errorf("code error moonraker.NewClient callbacks incomplete")
	}
	if opt.URL == "" {
		return nil, errors.NotValidf("moonraker url empty")
	}
	opt.Timeout = orDefault(opt.Timeout, DefaultTimeout)
	opt.PollInterval = orDefault(opt.PollInterval, DefaultPollInterval)
	opt.ReconnectMin = orDefault(opt.ReconnectMin, 500*time.Millisecond)
	opt.ReconnectMax = orDefault(opt.ReconnectMax, 30*time.Second)
	self := &Client{
		cb:      cb,
		dialer:  websocket.Dialer{HandshakeTimeout: opt.Timeout},
		log:     log.Clone("printer: "),
		opt:     opt,
		backoff: helpers.Backoff{Min: opt.ReconnectMin, Max: opt.ReconnectMax, K: 2},
	}
	self.status.Store(statusUnknown)
	return self, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Connect starts background connection loop and returns immediately.
// Connection problems are reported via OnConnection.
func (self *Client) Connect(ctx context.Context) error {
	self.lk.Lock()
	defer self.lk.Unlock()
	if self.stop != nil {
		return nil
	}
	self.stop = make(chan struct{})
	self.done = make(chan struct{})
	go self.run(ctx, self.stop, self.done)
	return nil
}

func (self *Client) Close() error {
	self.lk.Lock()
	stop, done := self.stop, self.done
	self.stop, self.done = nil, nil
	self.lk.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

// Status is last reported status, false before first report.
func (self *Client) Status() (types.PrinterStatus, bool) {
	v := self.status.Load()
	return types.PrinterStatus(v), v != statusUnknown
}

func (self *Client) setStatus(ctx context.Context, st types.PrinterStatus) {
	if old := self.status.Swap(uint32(st)); old == uint32(st) {
		return
	}
	self.log.Infof("status=%s", st.String())
	self.cb.OnConnection(ctx, st)
}

func (self *Client) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		err := self.session(ctx, stop)
		select {
		case <-stop:
			return
		default:
		}
		self.log.Errorf("url=%s err=%v", self.opt.URL, err)
		self.setStatus(ctx, types.PrinterMoonrakerErr)
		self.backoff.Failure()
		if !self.backoff.Sleep(stop) {
			return
		}
	}
}

// session lives for one websocket connection
func (self *Client) session(ctx context.Context, stop <-chan struct{}) error {
	header := http.Header{}
	if self.opt.APIKey != "" {
		header.Set("X-Api-Key", self.opt.APIKey)
	}
	dialCtx, cancel := context.WithTimeout(ctx, self.opt.Timeout)
	conn, _, err := self.dialer.DialContext(dialCtx, self.opt.URL, header)
	cancel()
	if err != nil {
		return errors.Annotate(err, "dial")
	}
	c := newConn(conn, self.log, self.opt.LogDebug)
	defer c.close()
	self.log.Infof("connected url=%s", self.opt.URL)

	sess := &session{client: self, conn: c}
	if err := sess.identify(ctx); err != nil {
		// older servers lack identify, not fatal
		self.log.Debugf("identify err=%v", err)
	}
	if err := sess.checkKlippy(ctx); err != nil {
		return err
	}
	self.backoff.Reset()

	poll := time.NewTicker(self.opt.PollInterval)
	defer poll.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-c.readDone:
			return c.readErr
		case <-c.noted:
			for _, n := range c.notifications() {
				if err := sess.handleNotify(ctx, n); err != nil {
					return err
				}
			}
		case <-poll.C:
			if st, _ := self.Status(); st != types.PrinterReady {
				if err := sess.checkKlippy(ctx); err != nil {
					return err
				}
			}
		}
	}
}

type session struct {
	client *Client
	conn   *conn
	data   types.Snapshot
}

func (self *session) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	id := self.client.nextID.Inc()
	ctx, cancel := context.WithTimeout(ctx, self.client.opt.Timeout)
	defer cancel()
	return self.conn.call(ctx, request{JSONRPC: "2.0", Method: method, Params: params, ID: id}, result)
}

func (self *session) identify(ctx context.Context) error {
	params := map[string]interface{}{
		"client_name": ClientName,
		"version":     "0.1",
		"type":        "display",
		"url":         "https://github.com/openq1/q1display",
	}
	if self.client.opt.APIKey != "" {
		params["api_key"] = self.client.opt.APIKey
	}
	return self.call(ctx, methodIdentify, params, nil)
}

// checkKlippy queries firmware state, on ready subscribes and lists files
func (self *session) checkKlippy(ctx context.Context) error {
	var info serverInfo
	if err := self.call(ctx, methodServerInfo, nil, &info); err != nil {
		return errors.Annotate(err, methodServerInfo)
	}
	st := KlippyStatus(info.KlippyState)
	if st == types.PrinterReady {
		if err := self.subscribe(ctx); err != nil {
			return err
		}
		if err := self.listFiles(ctx); err != nil {
			return err
		}
	}
	self.client.setStatus(ctx, st)
	return nil
}

// KlippyStatus maps server.info klippy_state to printer status.
func KlippyStatus(state string) types.PrinterStatus {
	switch state {
	case "ready":
		return types.PrinterReady
	case "startup":
		return types.PrinterNotReady
	case "shutdown":
		return types.PrinterStopped
	}
	// error, disconnected
	return types.PrinterKlipperErr
}

func (self *session) subscribe(ctx context.Context) error {
	objects := make(map[string]interface{}, len(self.client.opt.Objects))
	for _, name := range self.client.opt.Objects {
		objects[name] = nil
	}
	var result subscribeResult
	if err := self.call(ctx, methodSubscribe, map[string]interface{}{"objects": objects}, &result); err != nil {
		return errors.Annotate(err, methodSubscribe)
	}
	self.data = types.Snapshot(result.Status)
	if self.data == nil {
		self.data = types.Snapshot{}
	}
	self.client.cb.OnStatus(ctx, self.data.Clone())
	return nil
}

func (self *session) listFiles(ctx context.Context) error {
	var files []interface{}
	if err := self.call(ctx, methodFilesList, map[string]interface{}{"root": "gcodes"}, &files); err != nil {
		return errors.Annotate(err, methodFilesList)
	}
	if files == nil {
		files = []interface{}{}
	}
	self.client.cb.OnFiles(ctx, types.Snapshot{"files": files})
	return nil
}

func (self *session) handleNotify(ctx context.Context, m message) error {
	switch m.Method {
	case notifyStatus:
		var params []json.RawMessage
		if err := json.Unmarshal(m.Params, &params); err != nil || len(params) == 0 {
			self.client.log.Errorf("%s invalid params=%s", m.Method, string(m.Params))
			return nil
		}
		var update map[string]interface{}
		if err := json.Unmarshal(params[0], &update); err != nil {
			self.client.log.Errorf("%s invalid status=%s", m.Method, string(params[0]))
			return nil
		}
		if self.data == nil {
			self.data = types.Snapshot{}
		}
		self.data.Merge(update)
		self.client.cb.OnStatus(ctx, self.data.Clone())
	case notifyReady:
		return self.checkKlippy(ctx)
	case notifyShutdown:
		self.client.setStatus(ctx, types.PrinterStopped)
	case notifyDisconnect:
		self.client.setStatus(ctx, types.PrinterKlipperErr)
	case notifyFileChanged:
		return self.listFiles(ctx)
	default:
		if self.client.opt.LogDebug {
			self.client.log.Debugf("notify method=%s ignored", m.Method)
		}
	}
	return nil
}
