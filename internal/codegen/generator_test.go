package codegen

import (
	"bytes"
	"regexp"
	"testing"
	"time"
)

var codeShape = regexp.MustCompile(`^EYS-[0-9A-Z]{4}-[0-9A-Z]{4}-[0-9A-Z]{4}$`)

func TestGenerateShape(t *testing.T) {
	g := New("EYS")
	for i := 0; i < 100; i++ {
		code := g.Generate()
		if !codeShape.MatchString(code) {
			t.Fatalf("code %q does not match PREFIX-TTTT-AAAA-BBBB shape", code)
		}
	}
}

func TestGeneratePrefixUppercased(t *testing.T) {
	g := New("win")
	code := g.Generate()
	if code[:4] != "WIN-" {
		t.Fatalf("expected WIN- prefix, got %q", code)
	}
}

func TestGenerateNoCollisions(t *testing.T) {
	const n = 10000
	g := New("EYS")
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code := g.Generate()
		if _, dup := seen[code]; dup {
			t.Fatalf("collision after %d codes: %q", i, code)
		}
		seen[code] = struct{}{}
	}
}

func TestGenerateFixedWidthSmallValues(t *testing.T) {
	// A random segment that formats to fewer than four base-36 digits
	// must be left-padded, never shortened.
	g := New("EYS")
	g.now = func() time.Time { return time.UnixMilli(1) }
	g.random = bytes.NewReader(make([]byte, 8)) // two zero uint32s

	code := g.Generate()
	if code != "EYS-0001-0000-0000" {
		t.Fatalf("expected EYS-0001-0000-0000, got %q", code)
	}
}

func TestGeneratePanicsWithoutEntropy(t *testing.T) {
	g := New("EYS")
	g.random = bytes.NewReader(nil) // exhausted source

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when the random source is unavailable")
		}
	}()
	g.Generate()
}
