package code

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		g := NewGenerator(length)
		c, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate(%d): %v", length, err)
		}
		if len(c) != length {
			t.Errorf("len = %d, want %d", len(c), length)
		}
	}
}

func TestGenerateDefaultsLength(t *testing.T) {
	g := NewGenerator(0)
	if g.Length() != DefaultLength {
		t.Errorf("Length() = %d, want %d", g.Length(), DefaultLength)
	}
}

func TestGenerateAlphabet(t *testing.T) {
	g := NewGenerator(DefaultLength)
	for i := 0; i < 200; i++ {
		c, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		for _, ch := range c {
			if !strings.ContainsRune(Alphabet, ch) {
				t.Fatalf("code %q contains %q, outside the alphabet", c, ch)
			}
		}
		// The ambiguous characters are excluded by construction.
		if strings.ContainsAny(c, "IO01") {
			t.Fatalf("code %q contains an ambiguous character", c)
		}
	}
}

func TestGenerateVaries(t *testing.T) {
	g := NewGenerator(DefaultLength)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		c, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		seen[c] = true
	}
	// With 32^6 combinations, 100 draws colliding down to a handful would
	// mean the randomness is broken.
	if len(seen) < 95 {
		t.Errorf("only %d distinct codes out of 100", len(seen))
	}
}

func TestCheckInPayload(t *testing.T) {
	got := CheckInPayload("8e3b5c4a-0000-0000-0000-000000000000", "ABC234")
	want := "hadirku://checkin?s=8e3b5c4a-0000-0000-0000-000000000000&c=ABC234"
	if got != want {
		t.Errorf("payload = %q, want %q", got, want)
	}
}

func TestQRPNG(t *testing.T) {
	png, err := QRPNG("8e3b5c4a-0000-0000-0000-000000000000", "ABC234", 256)
	if err != nil {
		t.Fatalf("QRPNG: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}
