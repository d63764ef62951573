// Package engine manages the process-wide image decoding engine: a
// scheme-keyed registry of loaders that resolve image references (URIs) to
// decoded pixels.
//
// Initialization is one-shot per process. The first Init call registers the
// built-in loaders and its outcome — success or failure — is memoized, so a
// permanently broken environment fails fast and consistently instead of
// re-running setup on every render. Reset restores the uninitialized state
// and is reserved for tests.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ErrNotInitialized is returned when Resolve or Register is called before a
// successful Init.
var ErrNotInitialized = errors.New("engine: not initialized")

// ErrNoLoader is returned when no loader is registered for a URI scheme.
var ErrNoLoader = errors.New("engine: no loader for scheme")

// Loader resolves one image reference to decoded pixels. Resolution is
// asynchronous from the caller's perspective (it runs on the caller's
// goroutine but callers issue it concurrently) and may fail independently
// per reference.
type Loader interface {
	Resolve(ctx context.Context, ref string) (image.Image, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, ref string) (image.Image, error)

// Resolve implements Loader.
func (f LoaderFunc) Resolve(ctx context.Context, ref string) (image.Image, error) {
	return f(ctx, ref)
}

// Options configures engine initialization.
type Options struct {
	// ImageRoot is the directory the file loader serves slices from.
	// Default: current directory.
	ImageRoot string
	// MaxImageBytes caps how much a loader reads for a single slice.
	// Default: 32 MiB.
	MaxImageBytes int64
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.ImageRoot == "" {
		o.ImageRoot = "."
	}
	if o.MaxImageBytes <= 0 {
		o.MaxImageBytes = 32 << 20
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

type state struct {
	mu      sync.Mutex
	done    bool
	err     error
	loaders map[string]Loader
}

var global state

// Init performs the one-shot engine setup: it registers the built-in
// loaders ("file" for slices on disk under ImageRoot, "data" for inline
// base64 PNG/JPEG data URIs). The first call does the real work; every
// later call returns the memoized outcome, success or failure, without
// retrying.
func Init(opts Options) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.done {
		return global.err
	}
	global.done = true
	global.err = initLocked(opts)
	return global.err
}

func initLocked(opts Options) error {
	opts.defaults()

	info, err := os.Stat(opts.ImageRoot)
	if err != nil {
		return fmt.Errorf("engine: image root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("engine: image root %q is not a directory", opts.ImageRoot)
	}

	global.loaders = map[string]Loader{
		"file": &fileLoader{root: opts.ImageRoot, maxBytes: opts.MaxImageBytes},
		"data": &dataLoader{maxBytes: opts.MaxImageBytes},
	}
	opts.Logger.Debug("engine: initialized", "image_root", opts.ImageRoot, "loaders", len(global.loaders))
	return nil
}

// Initialized reports whether Init has been called and succeeded.
func Initialized() bool {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.done && global.err == nil
}

// Register adds (or replaces) a loader for a URI scheme. The engine must be
// initialized first.
func Register(scheme string, l Loader) error {
	global.mu.Lock()
	defer global.mu.Unlock()
	if !global.done || global.err != nil {
		return ErrNotInitialized
	}
	if scheme == "" || l == nil {
		return errors.New("engine: scheme and loader are required")
	}
	global.loaders[strings.ToLower(scheme)] = l
	return nil
}

// Resolve dispatches the image reference to the loader registered for its
// scheme. A reference with no scheme is treated as a file path.
func Resolve(ctx context.Context, uri string) (image.Image, error) {
	global.mu.Lock()
	if !global.done || global.err != nil {
		global.mu.Unlock()
		return nil, ErrNotInitialized
	}
	l, ok := global.loaders[schemeOf(uri)]
	global.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoLoader, schemeOf(uri))
	}
	return l.Resolve(ctx, uri)
}

// Reset restores the uninitialized state. Reserved for test isolation; the
// engine is never torn down mid-process in production.
func Reset() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.done = false
	global.err = nil
	global.loaders = nil
}

// schemeOf extracts the lowercase URI scheme. References without a scheme
// (plain paths) map to "file".
func schemeOf(uri string) string {
	idx := strings.Index(uri, ":")
	if idx <= 0 {
		return "file"
	}
	scheme := uri[:idx]
	for _, r := range scheme {
		if !isSchemeChar(r) {
			return "file"
		}
	}
	return strings.ToLower(scheme)
}

func isSchemeChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '+' || r == '-' || r == '.'
}
