package input

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/types"
	"github.com/temoto/inputevent-go"
)

const DevInputEventTag = "dev-input-event"

// linux/input-event-codes.h
const evKey uint16 = 0x01

type DevInputEventSource struct {
	f io.ReadCloser
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func (self *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotatef(err, "%s device=%s", DevInputEventTag, device)
	}
	return &DevInputEventSource{f: f}, nil
}

func NewDevInputEventReader(r io.ReadCloser) *DevInputEventSource {
	return &DevInputEventSource{f: r}
}

// Read skips everything except key press and release, autorepeat included.
func (self *DevInputEventSource) Read() (types.KeyData, error) {
	for {
		ie, err := inputevent.ReadOne(self.f)
		if err != nil {
			return types.KeyData{}, err
		}
		if ie.Type != evKey || ie.Value == int32(inputevent.KeyStateHold) {
			continue
		}
		return types.KeyData{
			Source: DevInputEventTag,
			Code:   ie.Code,
			Up:     ie.Value == int32(inputevent.KeyStateUp),
		}, nil
	}
}

func (self *DevInputEventSource) Close() error { return self.f.Close() }
