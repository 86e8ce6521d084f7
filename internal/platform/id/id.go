// Package id generates URL-safe identifiers.
//
// Identifiers are UUIDv7 values (48-bit millisecond timestamp followed by
// random bits) encoded as lowercase base32 without padding. The timestamp
// prefix keeps ids created in rapid succession distinct and roughly ordered,
// and the random tail keeps ids from different processes apart.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a 26-character lowercase base32 identifier.
func NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// NewPrefixed returns NewID with prefix and an underscore in front, such as
// room_<id>.
func NewPrefixed(prefix string) (string, error) {
	value, err := NewID()
	if err != nil {
		return "", err
	}
	return prefix + "_" + value, nil
}
