package state

import (
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/openq1/q1display/log2"
	"github.com/stretchr/testify/assert"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"empty-defaults", "", func(t testing.TB, c *Config) {
			assert.Equal(t, DefaultDisplayDevice, c.Display.Device)
			assert.Equal(t, DefaultDisplayBaud, c.Display.Baud)
			assert.Equal(t, DefaultPrinterURL, c.Printer.URL)
			assert.Equal(t, DefaultPrinterObjects, c.Printer.Objects)
			assert.False(t, c.Tele.Enabled)
		}, ""},

		{"display",
			`display { device = "/dev/ttyUSB3" baud = 9600 codepage = "gb2312" }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "/dev/ttyUSB3", c.Display.Device)
				assert.Equal(t, 9600, c.Display.Baud)
				assert.Equal(t, "gb2312", c.Display.Codepage)
			},
			"",
		},

		{"printer", `
printer {
	url = "ws://q1.local:7125/websocket"
	api_key = "secret"
	objects = ["extruder", "heater_bed"]
	reconnect_sec = 5
}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "ws://q1.local:7125/websocket", c.Printer.URL)
				assert.Equal(t, "secret", c.Printer.APIKey)
				assert.Equal(t, []string{"extruder", "heater_bed"}, c.Printer.Objects)
				assert.Equal(t, 5, c.Printer.ReconnectSec)
			},
			"",
		},

		{"tele-log", `
log { level = "debug" file = "/tmp/q1.log" max_size_mb = 4 }
tele { enable = true mqtt_broker = "tcp://broker:1883" topic_prefix = "q1" }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "debug", c.Log.Level)
				assert.Equal(t, "/tmp/q1.log", c.Log.File)
				assert.Equal(t, 4, c.Log.MaxSizeMB)
				assert.True(t, c.Tele.Enabled)
				assert.Equal(t, "tcp://broker:1883", c.Tele.MqttBroker)
				assert.Equal(t, "q1", c.Tele.TopicPrefix)
			},
			"",
		},

		{"include-normalize", `
display { baud = 9600 }
include "./empty" {}`,
			nil, ""},

		{"include-optional", `
include "baud-921600" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 921600, c.Display.Baud)
			}, ""},

		{"include-overwrites", `
display { baud = 9600 }
include "baud-921600" {}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 921600, c.Display.Baud)
			}, ""},

		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
		{"error-include-required", `include "non-exist" {}`, nil, "config required name=non-exist"},
		{"error-baud", `display { baud = -1 }`, nil, "display.baud=-1 not valid"},
		{"error-url-scheme", `printer { url = "http://localhost:7125" }`, nil, "printer.url scheme=http not valid"},
		{"error-log-level", `log { level = "loud" }`, nil, "log.level"},
		{"error-tele-broker", `tele { enable = true }`, nil, "tele.mqtt_broker empty not valid"},
		{"error-input-device", `input { dev_input_event { enable = true } }`, nil, "dev_input_event.device empty not valid"},
	}
	mkCheck := func(c Case) func(*testing.T) {
		return func(t *testing.T) {
			log := log2.NewTest(t, log2.LDebug)
			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"empty":        "",
				"baud-921600":  "display{baud=921600}",
				"error-syntax": "hello",
				"include-loop": `include "include-loop" {}`,
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if c.expectErr == "" {
				if err != nil {
					t.Fatalf("error expected=nil actual='%v'", errors.ErrorStack(err))
				}
				if c.check != nil {
					c.check(t, cfg)
				}
			} else {
				if err == nil || !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		}
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, mkCheck(c))
	}
}
