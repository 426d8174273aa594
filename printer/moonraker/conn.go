package moonraker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/openq1/q1display/log2"
)

// conn multiplexes requests and notifications over one websocket.
type conn struct {
	ws       *websocket.Conn
	log      *log2.Log
	logDebug bool

	wmu     sync.Mutex
	pmu     sync.Mutex
	pending map[int64]chan message

	queue    []message     // notifications, guarded by pmu
	noted    chan struct{} // 1-buffered, signals queue not empty
	readDone chan struct{}
	readErr  error // valid after readDone closed
}

func newConn(ws *websocket.Conn, log *log2.Log, logDebug bool) *conn {
	c := &conn{
		ws:       ws,
		log:      log,
		logDebug: logDebug,
		pending:  make(map[int64]chan message),
		noted:    make(chan struct{}, 1),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (self *conn) close() {
	self.ws.Close()
	<-self.readDone
}

func (self *conn) readLoop() {
	defer close(self.readDone)
	for {
		_, b, err := self.ws.ReadMessage()
		if err != nil {
			self.readErr = errors.Annotate(err, "read")
			return
		}
		if self.logDebug {
			self.log.Debugf("<- %s", string(b))
		}
		var m message
		if err := json.Unmarshal(b, &m); err != nil {
			self.log.Errorf("invalid json=%s err=%v", string(b), err)
			continue
		}
		if m.ID != 0 {
			self.pmu.Lock()
			ch, ok := self.pending[m.ID]
			delete(self.pending, m.ID)
			self.pmu.Unlock()
			if !ok {
				self.log.Debugf("response id=%d no waiter", m.ID)
				continue
			}
			ch <- m
			continue
		}
		if m.Method != "" {
			self.pmu.Lock()
			self.queue = append(self.queue, m)
			self.pmu.Unlock()
			select {
			case self.noted <- struct{}{}:
			default:
			}
		}
	}
}

// notifications takes all queued notifications in order of arrival.
func (self *conn) notifications() []message {
	self.pmu.Lock()
	q := self.queue
	self.queue = nil
	self.pmu.Unlock()
	return q
}

func (self *conn) call(ctx context.Context, req request, result interface{}) error {
	b, err := json.Marshal(req)
	if err != nil {
		return errors.Annotatef(err, "method=%s marshal", req.Method)
	}
	ch := make(chan message, 1)
	self.pmu.Lock()
	self.pending[req.ID] = ch
	self.pmu.Unlock()
	defer func() {
		self.pmu.Lock()
		delete(self.pending, req.ID)
		self.pmu.Unlock()
	}()

	if self.logDebug {
		self.log.Debugf("-> %s", string(b))
	}
	self.wmu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = self.ws.SetWriteDeadline(deadline)
	}
	err = self.ws.WriteMessage(websocket.TextMessage, b)
	self.wmu.Unlock()
	if err != nil {
		return errors.Annotatef(err, "method=%s write", req.Method)
	}

	select {
	case m := <-ch:
		if m.Error != nil {
			return errors.Annotatef(m.Error, "method=%s", req.Method)
		}
		if result == nil || len(m.Result) == 0 {
			return nil
		}
		return errors.Annotatef(json.Unmarshal(m.Result, result), "method=%s result", req.Method)
	case <-self.readDone:
		return errors.Annotatef(self.readErr, "method=%s", req.Method)
	case <-ctx.Done():
		return errors.Timeoutf("method=%s", req.Method)
	}
}
