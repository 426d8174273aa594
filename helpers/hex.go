package helpers

import (
	"encoding/hex"
	"strings"
)

// MustHex decodes hex dump, spaces between bytes are allowed.
func MustHex(s string) []byte {
	b, err := hex.DecodeString(strings.Replace(s, " ", "", -1))
	if err != nil {
		panic(err)
	}
	return b
}
