// Package random produces seeds for the table's dice generator when no fixed
// seed is configured.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed reads eight bytes from crypto/rand and returns them as a seed.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read dice seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
