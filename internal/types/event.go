package types

import (
	"context"
	"fmt"
)

type DisplayEventType uint8

const (
	EventInvalid DisplayEventType = iota
	EventTouch
	EventTouchCoordinate
	EventTouchInSleep
	EventCurrentPage
	EventString
	EventNumber
	EventAutoSleep
	EventAutoWake
	EventStartup
	EventSDCardUpgrade
	EventReconnected
	EventKey
)

var displayEventNames = [...]string{
	EventInvalid:         "Invalid",
	EventTouch:           "Touch",
	EventTouchCoordinate: "TouchCoordinate",
	EventTouchInSleep:    "TouchInSleep",
	EventCurrentPage:     "CurrentPage",
	EventString:          "String",
	EventNumber:          "Number",
	EventAutoSleep:       "AutoSleep",
	EventAutoWake:        "AutoWake",
	EventStartup:         "Startup",
	EventSDCardUpgrade:   "SDCardUpgrade",
	EventReconnected:     "Reconnected",
	EventKey:             "Key",
}

func (t DisplayEventType) String() string {
	if int(t) < len(displayEventNames) {
		return displayEventNames[t]
	}
	return fmt.Sprintf("DisplayEventType(%d)", t)
}

// DisplayEvent.Data is one of *Data types below or nil.
type DisplayEvent struct {
	Type DisplayEventType
	Data interface{}
}

func (e DisplayEvent) String() string {
	if e.Data == nil {
		return fmt.Sprintf("DisplayEvent(%s)", e.Type.String())
	}
	return fmt.Sprintf("DisplayEvent(%s %+v)", e.Type.String(), e.Data)
}

type TouchData struct {
	Page      uint8
	Component uint8
	Press     bool
}

type CoordinateData struct {
	X, Y  uint16
	Press bool
}

type PageData struct {
	Page uint8
}

type StringData struct {
	Value string
}

type NumberData struct {
	Value int32
}

type KeyData struct {
	Source string
	Code   uint16
	Up     bool
}

type DisplayEventFunc func(ctx context.Context, e DisplayEvent)
