package tele

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type mockMsg struct {
	Topic    string
	Qos      byte
	Retained bool
	Payload  string
}

// mqttMock records publishes, embedded interface panics on unexpected calls.
type mqttMock struct {
	mqtt.Client
	mu        sync.Mutex
	opt       *mqtt.ClientOptions
	pub       []mockMsg
	connected bool
	connects  int
	quiesce   uint
	// consumed by Connect, one per attempt
	connectErrs []error
}

func (self *mqttMock) new(opt *mqtt.ClientOptions) mqtt.Client {
	self.opt = opt
	return self
}

func (self *mqttMock) Connect() mqtt.Token {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.connects++
	if len(self.connectErrs) != 0 {
		err := self.connectErrs[0]
		self.connectErrs = self.connectErrs[1:]
		return mockToken{err}
	}
	self.connected = true
	return mockToken{}
}

func (self *mqttMock) connectCount() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connects
}

func (self *mqttMock) Disconnect(quiesce uint) {
	self.mu.Lock()
	self.connected = false
	self.quiesce = quiesce
	self.mu.Unlock()
}

func (self *mqttMock) IsConnected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}

func (self *mqttMock) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	self.mu.Lock()
	self.pub = append(self.pub, mockMsg{topic, qos, retained, payload.(string)})
	self.mu.Unlock()
	return mockToken{}
}

func (self *mqttMock) published() []mockMsg {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]mockMsg(nil), self.pub...)
}

type mockToken struct{ error }

func (tok mockToken) Error() error                   { return tok.error }
func (tok mockToken) Wait() bool                     { return true }
func (tok mockToken) WaitTimeout(time.Duration) bool { return true }
