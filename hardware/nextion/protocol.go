package nextion

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/types"
)

// Return codes sent by panel.
const (
	CodeInvalidInstruction byte = 0x00
	CodeSuccess            byte = 0x01
	CodeTouch              byte = 0x65
	CodeCurrentPage        byte = 0x66
	CodeTouchCoordinate    byte = 0x67
	CodeTouchInSleep       byte = 0x68
	CodeString             byte = 0x70
	CodeNumber             byte = 0x71
	CodeAutoSleep          byte = 0x86
	CodeAutoWake           byte = 0x87
	CodeStartup            byte = 0x88
	CodeSDCardUpgrade      byte = 0x89
	CodeTransparentDone    byte = 0xfd
	CodeTransparentReady   byte = 0xfe
)

var Terminator = []byte{0xff, 0xff, 0xff}

// payload length for codes with fixed size frames,
// number may contain 0xff bytes so it must not be split by terminator search
var fixedLength = map[byte]int{
	CodeTouch:           3,
	CodeCurrentPage:     1,
	CodeTouchCoordinate: 5,
	CodeTouchInSleep:    5,
	CodeNumber:          4,
	CodeAutoSleep:       0,
	CodeAutoWake:        0,
	CodeStartup:         0,
	CodeSDCardUpgrade:   0,
}

var resultNames = map[byte]string{
	CodeInvalidInstruction: "invalid instruction",
	CodeSuccess:            "success",
	0x02:                   "invalid component id",
	0x03:                   "invalid page id",
	0x04:                   "invalid picture id",
	0x05:                   "invalid font id",
	0x06:                   "invalid file operation",
	0x09:                   "invalid crc",
	0x11:                   "invalid baud rate",
	0x12:                   "invalid waveform id or channel",
	0x1a:                   "invalid variable name or attribute",
	0x1b:                   "invalid variable operation",
	0x1c:                   "assignment failed",
	0x1d:                   "eeprom operation failed",
	0x1e:                   "invalid quantity of parameters",
	0x1f:                   "io operation failed",
	0x20:                   "escape character invalid",
	0x23:                   "variable name too long",
	0x24:                   "serial buffer overflow",
	CodeTransparentDone:    "transparent data finished",
	CodeTransparentReady:   "transparent data ready",
}

// ResultString describes instruction result code.
func ResultString(code byte) string {
	if s, ok := resultNames[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown code=%02x", code)
}

// EncodeCommand appends terminator to encoded instruction.
func EncodeCommand(text []byte) []byte {
	b := make([]byte, 0, len(text)+len(Terminator))
	b = append(b, text...)
	return append(b, Terminator...)
}

// SplitFrame is bufio.SplitFunc, tokens are frames without terminator.
func SplitFrame(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) == 0 {
		return 0, nil, nil
	}
	if n, ok := fixedLength[data[0]]; ok {
		total := 1 + n + len(Terminator)
		if len(data) < total {
			if atEOF {
				return len(data), nil, nil
			}
			return 0, nil, nil
		}
		if bytes.Equal(data[1+n:total], Terminator) {
			return total, data[:1+n], nil
		}
		// not a fixed frame after all, resync on next terminator
	}
	if i := bytes.Index(data, Terminator); i >= 0 {
		return i + len(Terminator), data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// ParseEvent decodes frame (without terminator) into display event.
// Instruction result frames give EventInvalid type with nil error.
func ParseEvent(frame []byte, codec *Codec) (types.DisplayEvent, error) {
	e := types.DisplayEvent{}
	if len(frame) == 0 {
		return e, errors.NotValidf("nextion empty frame")
	}
	code, data := frame[0], frame[1:]
	if n, ok := fixedLength[code]; ok && len(data) != n {
		return e, errors.NotValidf("nextion frame code=%02x length=%d expected=%d", code, len(data), n)
	}
	switch code {
	case CodeTouch:
		e.Type = types.EventTouch
		e.Data = types.TouchData{Page: data[0], Component: data[1], Press: data[2] == 1}
	case CodeCurrentPage:
		e.Type = types.EventCurrentPage
		e.Data = types.PageData{Page: data[0]}
	case CodeTouchCoordinate, CodeTouchInSleep:
		e.Type = types.EventTouchCoordinate
		if code == CodeTouchInSleep {
			e.Type = types.EventTouchInSleep
		}
		e.Data = types.CoordinateData{
			X:     binary.BigEndian.Uint16(data[0:2]),
			Y:     binary.BigEndian.Uint16(data[2:4]),
			Press: data[4] == 1,
		}
	case CodeString:
		s, err := codec.Decode(data)
		if err != nil {
			return e, errors.Annotate(err, "nextion string")
		}
		e.Type = types.EventString
		e.Data = types.StringData{Value: s}
	case CodeNumber:
		e.Type = types.EventNumber
		e.Data = types.NumberData{Value: int32(binary.LittleEndian.Uint32(data))}
	case CodeAutoSleep:
		e.Type = types.EventAutoSleep
	case CodeAutoWake:
		e.Type = types.EventAutoWake
	case CodeStartup:
		e.Type = types.EventStartup
	case CodeSDCardUpgrade:
		e.Type = types.EventSDCardUpgrade
	}
	return e, nil
}
