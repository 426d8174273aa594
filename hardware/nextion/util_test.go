package nextion

import (
	"encoding/hex"
	"testing"

	"github.com/openq1/q1display/helpers"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	return helpers.MustHex(s)
}

func hexString(b []byte) string { return hex.EncodeToString(b) }
