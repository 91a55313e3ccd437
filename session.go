package gridpls

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/gridpls/archive"
	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/blobstore"
	"github.com/hupe1980/gridpls/cv"
	"github.com/hupe1980/gridpls/grid"
	"github.com/hupe1980/gridpls/internal/resource"
	"github.com/hupe1980/gridpls/planstore"
	"github.com/hupe1980/gridpls/rng"
	"github.com/hupe1980/gridpls/stats"
	"github.com/hupe1980/gridpls/storage"
)

// Session is one dataset: its grid, attributes, values and the engines
// computing over them.
//
// Objects and y variables are declared first. The first call that needs
// values (AddFields, SetY, Allocate) fixes that layout; fields can be
// added at any time afterwards.
//
// A Session is not safe for concurrent use. The statistics engine it
// exposes parallelizes internally.
type Session struct {
	opts   options
	logger *Logger
	rc     *resource.Controller
	rand   *rng.MT19937

	grid   grid.Grid
	attrs  *attr.Store
	values *storage.Store
	stats  *stats.Engine
	part   *cv.Partitioner

	closed bool
}

// New creates an empty session on grid g.
func New(g grid.Grid, optFns ...Option) (*Session, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	s := newSession(applyOptions(optFns))
	s.grid = g
	s.attrs = attr.New(g.XVars())
	return s, nil
}

func newSession(o options) *Session {
	return &Session{
		opts:   o,
		logger: o.logger,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			Workers:            o.workers,
			IOLimitBytesPerSec: o.ioLimit,
		}),
		rand: rng.New(o.seed),
	}
}

func (s *Session) storageOptions() []storage.Option {
	return []storage.Option{
		storage.WithMode(s.opts.mode),
		storage.WithTempDir(s.opts.tempDir),
		storage.WithFileSystem(s.opts.fs),
		storage.WithResources(s.rc),
		storage.WithLogger(s.logger.Logger),
		storage.WithFieldSwitchHook(func(from, to int, d time.Duration) {
			s.opts.metricsCollector.RecordFieldSwitch(d)
			s.logger.LogFieldSwitch(from, to, d)
		}),
	}
}

func (s *Session) attach(values *storage.Store) {
	s.values = values
	s.stats = stats.New(s.attrs, values, stats.WithResources(s.rc), stats.WithLogger(s.logger.Logger))
	s.part = cv.New(s.attrs, values, cv.WithLogger(s.logger.Logger))
}

// Grid returns the session grid.
func (s *Session) Grid() grid.Grid { return s.grid }

// Attrs returns the attribute store. Attribute changes take effect in
// statistics after the next Recompute.
func (s *Session) Attrs() *attr.Store { return s.attrs }

// Values returns the value storage, or nil before the layout is fixed.
func (s *Session) Values() *storage.Store { return s.values }

// Stats returns the statistics engine, or nil before the layout is fixed.
func (s *Session) Stats() *stats.Engine { return s.stats }

// Resources returns the session resource controller.
func (s *Session) Resources() *resource.Controller { return s.rc }

// Counts returns the set sizes computed by the last Recompute.
func (s *Session) Counts() attr.Counts { return s.attrs.Counts() }

// AddObject declares an object of structure and returns its index.
func (s *Session) AddObject(id, structure int) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if s.values != nil {
		return 0, ErrLayoutFrozen
	}
	return s.attrs.AddObject(id, structure), nil
}

// AddYVar declares a response variable and returns its index.
func (s *Session) AddYVar(name string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if s.values != nil {
		return 0, ErrLayoutFrozen
	}
	return s.attrs.AddYVar(name), nil
}

// Allocate fixes the object layout and creates the value storage. It is
// called implicitly by AddFields and SetY.
func (s *Session) Allocate() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.values != nil {
		return nil
	}
	values, err := storage.New(s.attrs, s.grid, s.storageOptions()...)
	if err != nil {
		return translateError(err)
	}
	s.attach(values)
	return nil
}

// AddFields appends n fields imported on grid g and returns the index of
// the first. g must match the session grid. If allocation stops part way,
// the fields allocated so far are kept.
func (s *Session) AddFields(ctx context.Context, g grid.Grid, n int) (int, error) {
	if !s.grid.Match(g) {
		return 0, &ErrGridMismatch{Have: s.grid, Got: g, cause: &grid.ErrMismatch{Have: s.grid, Got: g}}
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d fields", ErrInvalidListRange, n)
	}
	if err := s.Allocate(); err != nil {
		return 0, err
	}

	first := s.values.NumFields()
	err := s.values.AddFields(n)
	s.attrs.AddFields(s.values.NumFields() - first)
	s.logger.LogFieldsAdded(ctx, first, n, err)
	return first, translateError(err)
}

// SetX stores one raw x value.
func (s *Session) SetX(f, obj, x int, v float32) error {
	if err := s.checkValues(); err != nil {
		return err
	}
	return translateError(s.values.SetX(f, obj, x, v))
}

// ImportPage writes the values of one object of field f through the
// backing file, throttled by the IO limit. Safe for concurrent importers.
func (s *Session) ImportPage(ctx context.Context, f, obj int, page []float32) error {
	if err := s.checkValues(); err != nil {
		return err
	}
	return translateError(s.values.WritePage(ctx, f, obj, page))
}

// GetX reads one x value with the read rules selected by flags.
func (s *Session) GetX(f, obj, x int, flags storage.Flags) (float64, error) {
	if err := s.checkValues(); err != nil {
		return 0, err
	}
	v, err := s.values.GetX(f, obj, x, flags)
	return v, translateError(err)
}

// SetY stores one y value, fixing the layout if needed.
func (s *Session) SetY(obj, y int, v float32) error {
	if err := s.Allocate(); err != nil {
		return err
	}
	return translateError(s.values.SetY(obj, y, v))
}

// GetY reads one y value; missing or out of range values are storage.Missing.
func (s *Session) GetY(obj, y int, flags storage.Flags) float64 {
	if s.values == nil {
		return float64(storage.Missing)
	}
	return s.values.GetY(obj, y, flags)
}

// Recompute refreshes the derived state after attribute changes: set
// counts, variable classification and y-variable summaries.
func (s *Session) Recompute(ctx context.Context) (attr.Counts, error) {
	if err := s.checkOpen(); err != nil {
		return attr.Counts{}, err
	}
	start := time.Now()

	counts := s.attrs.Recount()
	var err error
	if s.values != nil {
		if err = s.stats.Classify(); err == nil {
			err = s.stats.UpdateYSummaries()
		}
		err = translateError(err)
	}

	d := time.Since(start)
	s.opts.metricsCollector.RecordRecompute(d, err)
	s.logger.LogRecompute(ctx, counts, d, err)
	return counts, err
}

// Seed resets the generator that draws leave-many-out plans.
func (s *Session) Seed(seed uint32) { s.rand.Seed(seed) }

func (s *Session) partition(ctx context.Context, scheme cv.Scheme, build func() (*cv.Plan, error)) (*cv.Plan, error) {
	if err := s.checkValues(); err != nil {
		return nil, err
	}
	start := time.Now()
	plan, err := build()
	folds := 0
	if err == nil {
		folds = plan.FoldCount
	}
	s.opts.metricsCollector.RecordPartition(folds, time.Since(start), err)
	s.logger.LogPartition(ctx, scheme.String(), folds, err)
	return plan, err
}

// LeaveOneOut builds a leave-one-out plan over the active structures.
func (s *Session) LeaveOneOut(ctx context.Context) (*cv.Plan, error) {
	return s.partition(ctx, cv.LeaveOneOut, func() (*cv.Plan, error) { return s.part.LeaveOneOut() })
}

// LeaveTwoOut builds a leave-two-out plan over the active structures.
func (s *Session) LeaveTwoOut(ctx context.Context) (*cv.Plan, error) {
	return s.partition(ctx, cv.LeaveTwoOut, func() (*cv.Plan, error) { return s.part.LeaveTwoOut() })
}

// LeaveManyOut draws a plan seed from the session generator and builds a
// leave-many-out plan from it. With a plan store configured the plan is
// recorded; Record.ID then names the stored record.
func (s *Session) LeaveManyOut(ctx context.Context, groups, runs int, label string) (planstore.Record, error) {
	seed := s.rand.Uint32()
	plan, err := s.partition(ctx, cv.LeaveManyOut, func() (*cv.Plan, error) {
		return s.part.LeaveManyOut(groups, runs, rng.New(seed))
	})
	if err != nil {
		return planstore.Record{}, err
	}

	rec := planstore.NewRecord(plan, seed, label)
	if s.opts.plans != nil {
		if _, err := s.opts.plans.Save(ctx, rec); err != nil {
			return rec, fmt.Errorf("record plan: %w", err)
		}
	}
	return rec, nil
}

// Plans lists the recorded plans.
func (s *Session) Plans(ctx context.Context) ([]planstore.Summary, error) {
	if s.opts.plans == nil {
		return nil, ErrNoPlanStore
	}
	return s.opts.plans.List(ctx)
}

// ReplayPlan rebuilds a recorded plan against the current attributes.
// With unchanged attributes the result equals the recorded plan.
func (s *Session) ReplayPlan(ctx context.Context, id string) (*cv.Plan, error) {
	if s.opts.plans == nil {
		return nil, ErrNoPlanStore
	}
	rec, ok, err := s.opts.plans.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: plan %s", ErrInvalidListRange, id)
	}

	switch rec.Plan.Scheme {
	case cv.LeaveOneOut:
		return s.LeaveOneOut(ctx)
	case cv.LeaveTwoOut:
		return s.LeaveTwoOut(ctx)
	default:
		return s.partition(ctx, cv.LeaveManyOut, func() (*cv.Plan, error) {
			return s.part.LeaveManyOut(rec.Plan.Groups, rec.Plan.Runs, rng.New(rec.Seed))
		})
	}
}

// Save archives the session to bs.
func (s *Session) Save(ctx context.Context, bs blobstore.BlobStore) (*archive.Manifest, error) {
	if err := s.Allocate(); err != nil {
		return nil, err
	}
	start := time.Now()
	m, err := archive.Save(ctx, bs, s.attrs, s.values,
		archive.WithCompression(s.opts.compression),
		archive.WithResources(s.rc),
		archive.WithLogger(s.logger.Logger),
	)
	var stored int64
	if err == nil {
		stored = m.StoredBytes()
	}
	s.opts.metricsCollector.RecordArchive(stored, time.Since(start), err)
	s.logger.LogArchive(ctx, "save", stored, err)
	return m, err
}

// Load restores a session archived with Save. Options configure the new
// session the same way as for New.
func Load(ctx context.Context, bs blobstore.BlobStore, optFns ...Option) (*Session, error) {
	s := newSession(applyOptions(optFns))
	start := time.Now()

	ds, err := archive.Load(ctx, bs,
		archive.WithResources(s.rc),
		archive.WithLogger(s.logger.Logger),
		archive.WithStorageOptions(s.storageOptions()...),
	)
	var stored int64
	if err == nil {
		stored = ds.Manifest.StoredBytes()
	}
	s.opts.metricsCollector.RecordArchive(stored, time.Since(start), err)
	s.logger.LogArchive(ctx, "load", stored, err)
	if err != nil {
		return nil, translateError(err)
	}

	s.grid = ds.Manifest.Grid
	s.attrs = ds.Attrs
	s.attach(ds.Values)
	return s, nil
}

// Close releases the value storage and removes paged backing files.
// It is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.values == nil {
		return nil
	}
	return s.values.Close()
}

func (s *Session) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Session) checkValues() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.values == nil {
		return fmt.Errorf("%w: no values allocated", ErrInvalidListRange)
	}
	return nil
}
