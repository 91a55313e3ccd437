package planstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/gridpls/codec"
	"github.com/hupe1980/gridpls/cv"
)

var (
	// ErrNotInitialized is returned when a store is used before Init.
	ErrNotInitialized = errors.New("planstore: store is not initialized")
	// ErrInvalidRecord is returned for records without a valid plan.
	ErrInvalidRecord = errors.New("planstore: invalid record")
)

// Record is one stored plan.
type Record struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	Seed      uint32    `json:"seed"`
	CreatedAt time.Time `json:"createdAt"`
	Plan      *cv.Plan  `json:"plan"`
}

// NewRecord wraps plan with a fresh random ID.
func NewRecord(plan *cv.Plan, seed uint32, label string) Record {
	return Record{
		ID:        uuid.NewString(),
		Label:     label,
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
		Plan:      plan,
	}
}

// Summary is the listing view of a Record.
type Summary struct {
	ID        string
	Label     string
	Scheme    cv.Scheme
	Seed      uint32
	FoldCount int
	CreatedAt time.Time
}

func (r *Record) summary() Summary {
	return Summary{
		ID:        r.ID,
		Label:     r.Label,
		Scheme:    r.Plan.Scheme,
		Seed:      r.Seed,
		FoldCount: r.Plan.FoldCount,
		CreatedAt: r.CreatedAt,
	}
}

// Store persists plan records.
type Store interface {
	Init(ctx context.Context) error
	// Save inserts or replaces rec. An empty ID is replaced by a new one;
	// the stored ID is returned.
	Save(ctx context.Context, rec Record) (string, error)
	Get(ctx context.Context, id string) (Record, bool, error)
	// List returns every record, oldest first.
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewStore returns a backend by kind: "memory" (or "") or "sqlite".
func NewStore(kind, sqlitePath string, opts ...Option) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(opts...), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported plan store backend: %s", kind)
	}
}

// Option configures a store.
type Option func(*options)

type options struct {
	codec codec.Codec
}

// WithCodec sets the codec used for new records. Records are always
// decoded with the codec that wrote them.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

func applyOptions(optFns []Option) options {
	o := options{codec: codec.Default}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// prepare validates rec, fills a missing ID and encodes it.
func (o *options) prepare(rec *Record) ([]byte, error) {
	if rec.Plan == nil {
		return nil, fmt.Errorf("%w: no plan", ErrInvalidRecord)
	}
	if err := rec.Plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return o.codec.Marshal(rec)
}

func decode(codecName string, payload []byte) (Record, error) {
	c, ok := codec.ByName(codecName)
	if !ok {
		return Record{}, fmt.Errorf("unknown codec %q", codecName)
	}
	var rec Record
	if err := c.Unmarshal(payload, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
