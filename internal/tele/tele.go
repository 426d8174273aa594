// Package tele publishes controller state to MQTT broker for remote monitoring.
//
// Topics under prefix:
//   status  retained, printer status name
//   page    retained, current page name
//   error   not retained, error text
//   online  retained, "1" on connect, "0" as last will and on Close
package tele

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/openq1/q1display/helpers"
	tele_config "github.com/openq1/q1display/internal/tele/config"
	"github.com/openq1/q1display/internal/types"
	"github.com/openq1/q1display/log2"
)

const (
	DefaultClientID    = "q1display"
	defaultKeepalive   = 60 * time.Second
	defaultPingTimeout = 30 * time.Second
	defaultRetryMax    = 60 * time.Second
	connectRetryMin    = 100 * time.Millisecond
	connectTimeout     = 10 * time.Second
	closeQuiesceMs     = 250
)

var mqttLogOnce sync.Once

type Tele struct {
	conf    tele_config.Config
	log     *log2.Log
	m       mqtt.Client
	backoff helpers.Backoff
	stop    chan struct{}
	done    chan struct{}

	topicStatus string
	topicPage   string
	topicError  string
	topicOnline string
}

var _ types.Teler = new(Tele) // compile-time interface test

// NewClientFunc creates MQTT client, tests replace it with mock.
type NewClientFunc func(*mqtt.ClientOptions) mqtt.Client

// New returns stub when disabled. Network problems are not errors,
// client keeps reconnecting in background.
func New(log *log2.Log, conf tele_config.Config, newClient NewClientFunc) (types.Teler, error) {
	if !conf.Enabled {
		return types.TeleStub{}, nil
	}
	if conf.MqttBroker == "" {
		return nil, errors.NotValidf("tele mqtt_broker empty")
	}
	if newClient == nil {
		newClient = mqtt.NewClient
	}
	if conf.ClientID == "" {
		conf.ClientID = DefaultClientID
	}
	if conf.TopicPrefix == "" {
		conf.TopicPrefix = conf.ClientID
	}

	self := &Tele{
		conf:        conf,
		log:         log.Clone("tele: "),
		topicStatus: conf.TopicPrefix + "/status",
		topicPage:   conf.TopicPrefix + "/page",
		topicError:  conf.TopicPrefix + "/error",
		topicOnline: conf.TopicPrefix + "/online",
		backoff: helpers.Backoff{
			Min: connectRetryMin,
			Max: helpers.IntSecondDefault(conf.ReconnectSec, defaultRetryMax),
			K:   2,
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	mqttLogOnce.Do(func() {
		mqttLog := log.Clone("mqtt: ")
		mqtt.CRITICAL = mqttLog
		mqtt.ERROR = mqttLog
		mqtt.WARN = mqttLog
	})

	keepalive := helpers.IntSecondDefault(conf.KeepaliveSec, defaultKeepalive)
	opt := mqtt.NewClientOptions().
		AddBroker(conf.MqttBroker).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetClientID(conf.ClientID).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepalive).
		SetMaxReconnectInterval(self.backoff.Max).
		SetPingTimeout(helpers.IntSecondDefault(conf.PingTimeout, defaultPingTimeout)).
		SetWill(self.topicOnline, "0", 1, true).
		SetOnConnectHandler(self.onConnect).
		SetConnectionLostHandler(self.onConnectionLost)
	if conf.MqttPassword != "" {
		opt.SetUsername(conf.ClientID).SetPassword(conf.MqttPassword)
	}
	self.m = newClient(opt)
	go self.connectLoop()
	self.log.Infof("broker=%s topic prefix=%s", conf.MqttBroker, conf.TopicPrefix)
	return self, nil
}

func (self *Tele) Status(st types.PrinterStatus) { self.publish(self.topicStatus, 1, true, st.String()) }

func (self *Tele) Page(name string) { self.publish(self.topicPage, 1, true, name) }

func (self *Tele) Error(err error) {
	if err == nil {
		return
	}
	self.publish(self.topicError, 0, false, err.Error())
}

func (self *Tele) Close() {
	close(self.stop)
	<-self.done
	if self.m.IsConnected() {
		tok := self.m.Publish(self.topicOnline, 1, true, "0")
		tok.WaitTimeout(time.Second)
	}
	self.m.Disconnect(closeQuiesceMs)
}

// publish never waits for network
func (self *Tele) publish(topic string, qos byte, retained bool, payload string) {
	if self.conf.LogDebug {
		self.log.Debugf("publish topic=%s payload=%s", topic, payload)
	}
	// dropped while offline, delivery result is not interesting
	_ = self.m.Publish(topic, qos, retained, payload)
}

// connectLoop retries first connect until success or Close,
// after that client AutoReconnect takes over.
func (self *Tele) connectLoop() {
	defer close(self.done)
	for {
		tok := self.m.Connect()
		tok.Wait()
		err := tok.Error()
		if err == nil {
			self.backoff.Reset()
			return
		}
		self.log.Errorf("connect broker=%s err=%v", self.conf.MqttBroker, err)
		self.backoff.Failure()
		if !self.backoff.Sleep(self.stop) {
			return
		}
	}
}

func (self *Tele) onConnect(c mqtt.Client) {
	self.log.Infof("connected")
	c.Publish(self.topicOnline, 1, true, "1")
}

func (self *Tele) onConnectionLost(c mqtt.Client, err error) {
	self.log.Infof("connection lost err=%v", err)
}

func (self *Tele) String() string {
	return fmt.Sprintf("tele broker=%s prefix=%s", self.conf.MqttBroker, self.conf.TopicPrefix)
}
