package types

import (
	"context"
	"fmt"
)

type PrinterStatus uint8

const (
	PrinterNotReady PrinterStatus = iota
	PrinterReady
	PrinterStopped
	// backend controller (moonraker) unreachable
	PrinterMoonrakerErr
	// firmware control layer (klipper) unreachable
	PrinterKlipperErr
)

func (s PrinterStatus) String() string {
	switch s {
	case PrinterNotReady:
		return "NOT_READY"
	case PrinterReady:
		return "READY"
	case PrinterStopped:
		return "STOPPED"
	case PrinterMoonrakerErr:
		return "MOONRAKER_ERR"
	case PrinterKlipperErr:
		return "KLIPPER_ERR"
	}
	return fmt.Sprintf("PrinterStatus(%d)", s)
}

// Snapshot is a decoded JSON object, replaced wholesale on update.
// Treat received snapshots as read-only.
type Snapshot map[string]interface{}

// Clone copies nested objects and arrays.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return cloneValue(map[string]interface{}(s)).(map[string]interface{})
}

func cloneValue(v interface{}) interface{} {
	switch x := v.(type) {
	case Snapshot:
		return Snapshot(cloneValue(map[string]interface{}(x)).(map[string]interface{}))
	case map[string]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, item := range x {
			m[k] = cloneValue(item)
		}
		return m
	case []interface{}:
		a := make([]interface{}, len(x))
		for i, item := range x {
			a[i] = cloneValue(item)
		}
		return a
	default:
		return v
	}
}

// Merge applies partial update recursively, objects merged, other values replaced.
func (s Snapshot) Merge(update map[string]interface{}) {
	for k, v := range update {
		if um, ok := v.(map[string]interface{}); ok {
			if sm, ok := s[k].(map[string]interface{}); ok {
				Snapshot(sm).Merge(um)
				continue
			}
			s[k] = cloneValue(um)
			continue
		}
		s[k] = cloneValue(v)
	}
}

// Lookup walks nested objects by keys.
func (s Snapshot) Lookup(keys ...string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(s)
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (s Snapshot) Float(keys ...string) (float64, bool) {
	v, ok := s.Lookup(keys...)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func (s Snapshot) String(keys ...string) (string, bool) {
	v, ok := s.Lookup(keys...)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

type StatusFunc func(ctx context.Context, status PrinterStatus)
type SnapshotFunc func(ctx context.Context, snap Snapshot)
