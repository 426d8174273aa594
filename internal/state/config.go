package state

import (
	"net/url"
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/openq1/q1display/helpers"
	tele_config "github.com/openq1/q1display/internal/tele/config"
	"github.com/openq1/q1display/log2"
)

const (
	DefaultDisplayDevice = "/dev/ttyS1"
	DefaultDisplayBaud   = 115200
	DefaultPrinterURL    = "ws://127.0.0.1:7125/websocket"
)

var DefaultPrinterObjects = []string{
	"display_status",
	"extruder",
	"heater_bed",
	"print_stats",
	"toolhead",
	"virtual_sdcard",
}

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Display struct {
		Device   string `hcl:"device"`
		Baud     int    `hcl:"baud"`
		Codepage string `hcl:"codepage"`
		LogDebug bool   `hcl:"log_debug"`
	} `hcl:"display"`

	Printer struct {
		URL          string   `hcl:"url"`
		APIKey       string   `hcl:"api_key"`
		ReconnectSec int      `hcl:"reconnect_sec"`
		PollSec      int      `hcl:"poll_sec"`
		TimeoutSec   int      `hcl:"timeout_sec"`
		Objects      []string `hcl:"objects"`
		LogDebug     bool     `hcl:"log_debug"`
	} `hcl:"printer"`

	Log struct {
		Level      string `hcl:"level"`
		File       string `hcl:"file"`
		MaxSizeMB  int    `hcl:"max_size_mb"`
		MaxBackups int    `hcl:"max_backups"`
		MaxAgeDays int    `hcl:"max_age_days"`
	} `hcl:"log"`

	Input struct {
		DevInputEvent struct {
			Enable bool   `hcl:"enable"`
			Device string `hcl:"device"`
		} `hcl:"dev_input_event"`
	} `hcl:"input"`

	Tele tele_config.Config `hcl:"tele"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// Validate fills defaults and reports invalid values.
func (c *Config) Validate() error {
	errs := make([]error, 0)

	if c.Display.Device == "" {
		c.Display.Device = DefaultDisplayDevice
	}
	if c.Display.Baud == 0 {
		c.Display.Baud = DefaultDisplayBaud
	} else if c.Display.Baud < 0 {
		errs = append(errs, errors.NotValidf("config: display.baud=%d", c.Display.Baud))
	}

	if c.Printer.URL == "" {
		c.Printer.URL = DefaultPrinterURL
	}
	if u, err := url.Parse(c.Printer.URL); err != nil {
		errs = append(errs, errors.Annotate(err, "config: printer.url"))
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errs = append(errs, errors.NotValidf("config: printer.url scheme=%s", u.Scheme))
	}
	if len(c.Printer.Objects) == 0 {
		c.Printer.Objects = append([]string(nil), DefaultPrinterObjects...)
	}

	if _, err := log2.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, errors.Annotate(err, "config: log.level"))
	}

	if c.Input.DevInputEvent.Enable && c.Input.DevInputEvent.Device == "" {
		errs = append(errs, errors.NotValidf("config: input.dev_input_event.device empty"))
	}

	if c.Tele.Enabled && c.Tele.MqttBroker == "" {
		errs = append(errs, errors.NotValidf("config: tele.mqtt_broker empty"))
	}

	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s", source.Name)
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, errors.Trace(err)
		}
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) == 0 {
		errs = append(errs, c.Validate())
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
