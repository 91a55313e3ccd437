package archive

import (
	"log/slog"

	"github.com/hupe1980/gridpls/codec"
	"github.com/hupe1980/gridpls/internal/resource"
	"github.com/hupe1980/gridpls/storage"
)

type options struct {
	compression Compression
	codec       codec.Codec
	resources   *resource.Controller
	logger      *slog.Logger
	storage     []storage.Option
}

// Option configures Save, Load, Inspect and Verify.
type Option func(*options)

// WithCompression selects the block compression used by Save.
// Defaults to CompressionZstd.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithCodec sets the manifest codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithResources bounds transfer parallelism and throughput.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) { o.resources = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStorageOptions configures the storage created by Load.
func WithStorageOptions(opts ...storage.Option) Option {
	return func(o *options) { o.storage = append(o.storage, opts...) }
}

func applyOptions(optFns []Option) options {
	o := options{
		compression: CompressionZstd,
		codec:       codec.Default,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
