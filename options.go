package gridpls

import (
	"log/slog"

	"github.com/hupe1980/gridpls/archive"
	"github.com/hupe1980/gridpls/internal/fs"
	"github.com/hupe1980/gridpls/planstore"
	"github.com/hupe1980/gridpls/rng"
	"github.com/hupe1980/gridpls/storage"
)

type options struct {
	mode             storage.Mode
	tempDir          string
	fs               fs.FileSystem
	metricsCollector MetricsCollector
	logger           *Logger
	seed             uint32
	workers          int
	memoryLimit      int64
	ioLimit          int64
	compression      archive.Compression
	plans            planstore.Store
}

// Option configures a Session.
type Option func(*options)

// WithMode selects resident or paged value storage.
// Paged storage keeps each field in its own backing file and maps one
// field at a time; use it for datasets larger than memory.
func WithMode(m storage.Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithTempDir sets the directory that holds paged backing files.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithFileSystem replaces the file system used for backing files.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &gridpls.BasicMetricsCollector{}
//	s, _ := gridpls.New(g, gridpls.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Recomputes: %d, Avg latency: %dns\n", stats.RecomputeCount, stats.RecomputeAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSeed seeds the generator that draws leave-many-out plans.
// Defaults to rng.DefaultSeed.
func WithSeed(seed uint32) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithWorkers sets the number of statistics and archive workers.
// Zero means runtime.NumCPU; values above resource.MaxWorkers are capped.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMemoryLimit caps the bytes held by resident field blocks.
// Allocations beyond it fail with ErrOutOfMemory. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles bulk page imports and archive transfers to bytes
// per second. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithCompression sets the block compression used by Save.
func WithCompression(c archive.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithPlanStore records every leave-many-out plan, with the seed it was
// drawn from, in ps. The store must already be initialized.
func WithPlanStore(ps planstore.Store) Option {
	return func(o *options) {
		o.plans = ps
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		mode:             storage.ModeResident,
		fs:               fs.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		seed:             rng.DefaultSeed,
		compression:      archive.CompressionZstd,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
