package code

import (
	"crypto/rand"
	"fmt"
)

// Alphabet is the session code character set: uppercase letters and digits
// with I, O, 0 and 1 removed so codes survive being read off a projector.
// 32 symbols at the default length of 6 gives 32^6 ≈ 1.07e9 combinations,
// enough that guessing within one rotation window is impractical.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultLength is the code length used when a Generator is built with a
// non-positive length.
const DefaultLength = 6

// Generator produces fixed-length session codes. Generation is pure: the
// caller is responsible for collision checks against currently active codes.
type Generator struct {
	length int
}

// NewGenerator creates a Generator producing codes of the given length.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate returns a new random code.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		// Alphabet has 32 symbols, so masking the low 5 bits indexes it
		// uniformly.
		buf[i] = Alphabet[b&31]
	}
	return string(buf), nil
}

// Length returns the configured code length.
func (g *Generator) Length() int {
	return g.length
}
