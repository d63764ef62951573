package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInitIdempotent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	if err := Init(Options{ImageRoot: dir}); err != nil {
		t.Fatal(err)
	}
	if !Initialized() {
		t.Fatal("expected initialized")
	}
	// Second call returns the memoized success even with different options.
	if err := Init(Options{ImageRoot: "/does/not/exist"}); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestInitFailureMemoized(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first := Init(Options{ImageRoot: filepath.Join(t.TempDir(), "missing")})
	if first == nil {
		t.Fatal("expected init failure")
	}
	// Failure is memoized: a later call with a valid root still fails.
	second := Init(Options{ImageRoot: t.TempDir()})
	if second == nil {
		t.Fatal("expected memoized failure")
	}
	if first.Error() != second.Error() {
		t.Fatalf("expected same memoized error, got %v then %v", first, second)
	}
	if Initialized() {
		t.Fatal("failed engine must not report initialized")
	}
}

func TestResolveBeforeInit(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, err := Resolve(context.Background(), "slice.png"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := Register("custom", LoaderFunc(func(context.Context, string) (image.Image, error) {
		return nil, nil
	})); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestFileLoader(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "slice0.png"), 8, 8)
	if err := Init(Options{ImageRoot: dir}); err != nil {
		t.Fatal(err)
	}

	img, err := Resolve(context.Background(), "slice0.png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 {
		t.Fatalf("bounds: %v", img.Bounds())
	}

	// file:// prefix resolves the same slice.
	if _, err := Resolve(context.Background(), "file://slice0.png"); err != nil {
		t.Fatal(err)
	}

	// Traversal is rejected.
	if _, err := Resolve(context.Background(), "../slice0.png"); !errors.Is(err, ErrPathTraversal) {
		t.Fatalf("expected ErrPathTraversal, got %v", err)
	}

	// A missing slice fails without affecting the engine.
	if _, err := Resolve(context.Background(), "nope.png"); err == nil {
		t.Fatal("expected error for missing slice")
	}
	if _, err := Resolve(context.Background(), "slice0.png"); err != nil {
		t.Fatal(err)
	}
}

func TestDataLoader(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	if err := Init(Options{ImageRoot: t.TempDir()}); err != nil {
		t.Fatal(err)
	}

	img := image.NewGray(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	got, err := Resolve(context.Background(), uri)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds().Dx() != 4 {
		t.Fatalf("bounds: %v", got.Bounds())
	}

	// Non-base64 data URIs are rejected.
	if _, err := Resolve(context.Background(), "data:image/png,plain"); err == nil {
		t.Fatal("expected error for non-base64 data URI")
	}
}

func TestRegisterCustomScheme(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	if err := Init(Options{ImageRoot: t.TempDir()}); err != nil {
		t.Fatal(err)
	}

	want := image.NewGray(image.Rect(0, 0, 2, 2))
	err := Register("wado", LoaderFunc(func(_ context.Context, ref string) (image.Image, error) {
		return want, nil
	}))
	if err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(context.Background(), "wado://study/1/slice/0")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatal("custom loader not dispatched")
	}
}

func TestSchemeOf(t *testing.T) {
	tests := []struct {
		uri    string
		scheme string
	}{
		{"slice.png", "file"},
		{"dir/slice.png", "file"},
		{"file://x/y.png", "file"},
		{"data:image/png;base64,AAAA", "data"},
		{"WADO://x", "wado"},
		{"has space:x", "file"},
	}
	for _, tt := range tests {
		if got := schemeOf(tt.uri); got != tt.scheme {
			t.Errorf("schemeOf(%q) = %q, want %q", tt.uri, got, tt.scheme)
		}
	}
}
