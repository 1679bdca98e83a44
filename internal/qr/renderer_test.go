package qr

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
)

func TestRenderBindsVisual(t *testing.T) {
	r := NewRenderer(220)
	if err := r.Render("EYS-0001-AAAA-BBBB"); err != nil {
		t.Fatalf("render: %v", err)
	}

	v, ok := r.Current()
	if !ok {
		t.Fatal("expected a bound visual after render")
	}
	if v.Code != "EYS-0001-AAAA-BBBB" {
		t.Fatalf("visual bound to %q", v.Code)
	}
	if len(v.PNG) == 0 {
		t.Fatal("expected non-empty PNG bytes")
	}
}

func TestRenderReplacesPriorVisual(t *testing.T) {
	r := NewRenderer(220)
	if err := r.Render("EYS-0001-AAAA-BBBB"); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if err := r.Render("EYS-0002-CCCC-DDDD"); err != nil {
		t.Fatalf("second render: %v", err)
	}

	v, _ := r.Current()
	if v.Code != "EYS-0002-CCCC-DDDD" {
		t.Fatalf("expected the second code to replace the first, got %q", v.Code)
	}
}

func TestRenderWithoutCodec(t *testing.T) {
	r := NewRendererWithEncoder(nil, 220)
	err := r.Render("EYS-0001-AAAA-BBBB")
	if !errors.Is(err, ErrEncodingUnavailable) {
		t.Fatalf("expected ErrEncodingUnavailable, got %v", err)
	}
	if _, ok := r.Current(); ok {
		t.Fatal("no visual should be bound when the codec is missing")
	}
}

func TestFailedEncodeClearsSlot(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	enc := func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return []byte("png"), nil
	}

	r := NewRendererWithEncoder(enc, 220)
	if err := r.Render("EYS-0001-AAAA-BBBB"); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if err := r.Render("EYS-0002-CCCC-DDDD"); !errors.Is(err, boom) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if _, ok := r.Current(); ok {
		t.Fatal("a failed render must not leave the previous visual bound")
	}
}

func TestExportBeforeRender(t *testing.T) {
	r := NewRenderer(220)
	if _, err := r.Export(t.TempDir(), ""); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestExportWritesPNG(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(220)
	if err := r.Render("EYS-0001-AAAA-BBBB"); err != nil {
		t.Fatalf("render: %v", err)
	}

	path, err := r.Export(dir, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "EYS-0001-AAAA-BBBB.png" {
		t.Fatalf("default filename should be <code>.png, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	v, _ := r.Current()
	if len(data) == 0 || len(data) != len(v.PNG) {
		t.Fatal("exported bytes do not match the bound visual")
	}
}

func TestExportStripsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(220)
	if err := r.Render("EYS-0001-AAAA-BBBB"); err != nil {
		t.Fatalf("render: %v", err)
	}

	path, err := r.Export(dir, "../../evil.png")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("export escaped the target dir: %s", path)
	}
}

func TestClearUnbinds(t *testing.T) {
	r := NewRenderer(220)
	if err := r.Render("EYS-0001-AAAA-BBBB"); err != nil {
		t.Fatalf("render: %v", err)
	}
	r.Clear()
	if _, ok := r.Current(); ok {
		t.Fatal("expected no visual after Clear")
	}
	if _, err := r.Export(t.TempDir(), ""); !errors.Is(err, ErrNotReady) {
		t.Fatalf("export after clear should signal not ready, got %v", err)
	}
}
