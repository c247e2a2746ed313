// Package randomness supplies settlement seeds from the operating system
// CSPRNG. Entrants cannot observe or influence the draw ahead of time.
package randomness

import (
	"context"
	"crypto/rand"
	"fmt"
)

const seedBytes = 32

// Source draws seeds from crypto/rand.
type Source struct{}

// New returns a CSPRNG-backed source.
func New() *Source { return &Source{} }

// Seed returns a fresh 32-byte seed. A short read is an error; the caller
// must abort rather than settle on a weak seed.
func (s *Source) Seed(ctx context.Context) ([]byte, error) {
	buf := make([]byte, seedBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return buf, nil
}
