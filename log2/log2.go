// Package log2 is a leveled logger on top of stdlib *log.Logger.
// - log level filtering, e.g. show debug messages in tests only
// - safe concurrent change of log level
// - nil *Log is valid and discards everything
// - per component clones with prefix, sharing output
package log2

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/juju/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// type specified here helped against accidentally passing flags as level
	Lmicroseconds     int = log.Lmicroseconds
	Lshortfile        int = log.Lshortfile
	LStdFlags         int = log.Ltime | Lshortfile
	LInteractiveFlags int = log.Ltime | Lshortfile | Lmicroseconds
	LServiceFlags     int = Lshortfile
	LTestFlags        int = Lshortfile | Lmicroseconds
)

type Level int32

const (
	LError Level = iota
	LInfo
	LDebug
	LAll Level = math.MaxInt32
)

func (l Level) String() string {
	switch l {
	case LError:
		return "error"
	case LInfo:
		return "info"
	case LDebug:
		return "debug"
	case LAll:
		return "all"
	}
	return fmt.Sprintf("Level(%d)", int32(l))
}

// Empty string means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return LInfo, nil
	case "error":
		return LError, nil
	case "debug":
		return LDebug, nil
	case "all":
		return LAll, nil
	}
	return LInfo, errors.NotValidf("log level=%s", s)
}

type FmtFunc func(format string, args ...interface{})
type ErrorFunc func(error)

type Log struct {
	l       *log.Logger
	level   *int32 // shared with clones
	w       io.Writer
	fatalf  FmtFunc
	errfun  atomic.Value // ErrorFunc
	onClose func() error
}

func NewStderr(level Level) *Log { return NewWriter(os.Stderr, level) }
func NewWriter(w io.Writer, level Level) *Log {
	if w == io.Discard {
		return nil
	}
	lv := int32(level)
	return &Log{
		l:     log.New(w, "", LStdFlags),
		level: &lv,
		w:     w,
	}
}

type FuncWriter struct{ FmtFunc }

func NewFunc(f FmtFunc, level Level) *Log { return NewWriter(FuncWriter{f}, level) }
func (self FuncWriter) Write(b []byte) (int, error) {
	self.FmtFunc("%s", strings.TrimSuffix(string(b), "\n"))
	return len(b), nil
}

func NewTest(t testing.TB, level Level) *Log {
	self := NewFunc(t.Logf, level)
	self.fatalf = t.Fatalf
	return self
}

type RotateConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// also write to stderr
	Tee bool
}

// NewRotate writes into size-rotated file, see lumberjack.Logger.
// Close() the result to release the file.
func NewRotate(rc RotateConfig, level Level) *Log {
	lj := &lumberjack.Logger{
		Filename:   rc.Filename,
		MaxSize:    rc.MaxSizeMB,
		MaxBackups: rc.MaxBackups,
		MaxAge:     rc.MaxAgeDays,
	}
	var w io.Writer = lj
	if rc.Tee {
		w = io.MultiWriter(os.Stderr, lj)
	}
	self := NewWriter(w, level)
	self.onClose = lj.Close
	return self
}

func (self *Log) Close() error {
	if self == nil || self.onClose == nil {
		return nil
	}
	return self.onClose()
}

// Clone shares output and level, prefix is separate.
func (self *Log) Clone(prefix string) *Log {
	if self == nil {
		return nil
	}
	l := &Log{
		l:      log.New(self.w, prefix, self.l.Flags()),
		level:  self.level,
		w:      self.w,
		fatalf: self.fatalf,
	}
	if f, ok := self.errfun.Load().(ErrorFunc); ok {
		l.errfun.Store(f)
	}
	return l
}

func (self *Log) Level() Level {
	if self == nil {
		return LError
	}
	return Level(atomic.LoadInt32(self.level))
}

func (self *Log) SetLevel(l Level) {
	if self == nil {
		return
	}
	atomic.StoreInt32(self.level, int32(l))
}

func (self *Log) SetFlags(f int) {
	if self == nil {
		return
	}
	self.l.SetFlags(f)
}

func (self *Log) SetPrefix(prefix string) {
	if self == nil {
		return
	}
	self.l.SetPrefix(prefix)
}

// SetErrorFunc installs hook called with every logged error, e.g. telemetry.
func (self *Log) SetErrorFunc(f ErrorFunc) {
	if self == nil {
		return
	}
	self.errfun.Store(f)
}

func (self *Log) Enabled(level Level) bool {
	if self == nil {
		return false
	}
	return atomic.LoadInt32(self.level) >= int32(level)
}

func (self *Log) Log(level Level, s string) {
	if self.Enabled(level) {
		_ = self.l.Output(3, s)
	}
}
func (self *Log) Logf(level Level, format string, args ...interface{}) {
	if self.Enabled(level) {
		_ = self.l.Output(3, fmt.Sprintf(format, args...))
	}
}

func (self *Log) Error(args ...interface{}) {
	self.Log(LError, "error: "+fmt.Sprint(args...))
	if self == nil {
		return
	}
	if f, ok := self.errfun.Load().(ErrorFunc); ok && f != nil {
		var err error
		if len(args) == 1 {
			err, _ = args[0].(error)
		}
		if err == nil {
			err = errors.New(fmt.Sprint(args...))
		}
		f(err)
	}
}
func (self *Log) Errorf(format string, args ...interface{}) {
	self.Logf(LError, "error: "+format, args...)
	if self == nil {
		return
	}
	if f, ok := self.errfun.Load().(ErrorFunc); ok && f != nil {
		f(fmt.Errorf(format, args...))
	}
}
func (self *Log) Info(args ...interface{}) {
	self.Log(LInfo, fmt.Sprint(args...))
}
func (self *Log) Infof(format string, args ...interface{}) {
	self.Logf(LInfo, format, args...)
}
func (self *Log) Debug(args ...interface{}) {
	self.Log(LDebug, "debug: "+fmt.Sprint(args...))
}
func (self *Log) Debugf(format string, args ...interface{}) {
	self.Logf(LDebug, "debug: "+format, args...)
}

// Printf makes *Log usable as paho mqtt.Logger.
func (self *Log) Printf(format string, args ...interface{}) {
	self.Logf(LError, format, args...)
}
func (self *Log) Println(args ...interface{}) {
	self.Log(LError, strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (self *Log) Fatalf(format string, args ...interface{}) {
	if self != nil && self.fatalf != nil {
		self.fatalf(format, args...)
		return
	}
	self.Logf(LError, "fatal: "+format, args...)
	os.Exit(1)
}
func (self *Log) Fatal(args ...interface{}) {
	s := fmt.Sprint(args...)
	if self != nil && self.fatalf != nil {
		self.fatalf("%s", s)
		return
	}
	self.Logf(LError, "fatal: %s", s)
	os.Exit(1)
}
