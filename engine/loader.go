package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// ErrPathTraversal is returned when a file reference escapes the image root.
var ErrPathTraversal = errors.New("engine: path traversal detected")

// fileLoader resolves file references to decoded pixels from disk. All
// paths are confined to the configured root.
type fileLoader struct {
	root     string
	maxBytes int64
}

func (l *fileLoader) Resolve(ctx context.Context, ref string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(ref, "file://")
	path, err := safePath(l.root, path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engine: open slice: %w", err)
	}
	defer f.Close()

	data, err := limitedReadAll(f, l.maxBytes)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("engine: decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// dataLoader resolves inline data URIs (data:image/png;base64,...), the
// form the analysis backend emits for slice previews.
type dataLoader struct {
	maxBytes int64
}

func (l *dataLoader) Resolve(ctx context.Context, ref string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, fmt.Errorf("engine: not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("engine: malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("engine: data URI must be base64-encoded")
	}
	if int64(len(payload)) > l.maxBytes*4/3+4 {
		return nil, fmt.Errorf("engine: data URI exceeds %d bytes", l.maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("engine: decode data URI: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("engine: decode data URI image: %w", err)
	}
	return img, nil
}

// safePath validates that joining base and userInput does not escape base.
// Returns the cleaned path or ErrPathTraversal.
func safePath(base, userInput string) (string, error) {
	if strings.Contains(userInput, "..") {
		return "", ErrPathTraversal
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+userInput))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) &&
		cleaned != filepath.Clean(base) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// limitedReadAll reads at most maxBytes from r.
func limitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("engine: slice exceeds %d bytes", maxBytes)
	}
	return data, nil
}
