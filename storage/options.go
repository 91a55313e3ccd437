package storage

import (
	"log/slog"
	"time"

	"github.com/hupe1980/gridpls/internal/fs"
	"github.com/hupe1980/gridpls/internal/resource"
)

// Mode selects where field blocks live.
type Mode int

const (
	// ModeResident keeps every field block in memory.
	ModeResident Mode = iota
	// ModePaged keeps field blocks in per-field backing files, one mapped at a time.
	ModePaged
)

func (m Mode) String() string {
	switch m {
	case ModeResident:
		return "resident"
	case ModePaged:
		return "paged"
	default:
		return "unknown"
	}
}

type options struct {
	mode      Mode
	dir       string
	fs        fs.FileSystem
	resources *resource.Controller
	logger    *slog.Logger
	onSwitch  func(from, to int, d time.Duration)
}

// Option configures a Store.
type Option func(*options)

// WithMode selects resident or paged storage. Defaults to ModeResident.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithTempDir sets the parent directory of the paged backing files.
// Defaults to the system temp directory.
func WithTempDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithFileSystem replaces the file system used for backing files.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) { o.fs = fsys }
}

// WithResources sets the controller that budgets resident blocks and throttles page writes.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) { o.resources = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFieldSwitchHook registers a callback invoked after the mapped field changes.
func WithFieldSwitchHook(fn func(from, to int, d time.Duration)) Option {
	return func(o *options) { o.onSwitch = fn }
}
