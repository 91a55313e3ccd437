package cv

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/stats"
	"github.com/hupe1980/gridpls/storage"
)

var (
	// ErrNotEnoughObjects is returned when too few active structures exist
	// for the requested scheme.
	ErrNotEnoughObjects = errors.New("not enough objects")
	// ErrInvalidListRange is returned for group or run counts outside their valid range.
	ErrInvalidListRange = attr.ErrInvalidListRange
)

// Rand draws uniform indices in [0, n).
type Rand interface {
	Intn(n int) int
}

// Partitioner builds plans from the current attribute state.
type Partitioner struct {
	attrs  *attr.Store
	store  *storage.Store
	eng    *stats.Engine
	logger *slog.Logger
}

// Option configures a Partitioner.
type Option func(*Partitioner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Partitioner) { p.logger = l }
}

// New returns a Partitioner reading y values from store.
func New(attrs *attr.Store, store *storage.Store, opts ...Option) *Partitioner {
	p := &Partitioner{
		attrs:  attrs,
		store:  store,
		eng:    stats.New(attrs, store),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(p)
	}
	return p
}

// basis is the per y-variable deviation of every active structure.
type basis struct {
	active []int
	yvars  int
	// dev2[i] is the squared deviation of active[i], summed over y variables.
	dev2 []float64
}

// prepare collects the active structures and checks every active y variable
// has at least need of them with a value.
func (p *Partitioner) prepare(need int) (*basis, error) {
	active := p.attrs.ActiveStructures()
	members := p.attrs.Structures()

	b := &basis{active: active, dev2: make([]float64, len(active))}
	if len(active) < need {
		return nil, fmt.Errorf("%w: %d active structures, need %d", ErrNotEnoughObjects, len(active), need)
	}

	for y := range p.store.NumYVars() {
		if !p.attrs.YVar(y).Flags.Has(attr.YActive) {
			continue
		}
		b.yvars++
		m := p.eng.AverageY(y, 0)

		present := 0
		for i, s := range active {
			v, ok := p.structureY(members[s], y)
			if !ok {
				continue
			}
			present++
			d := v - m
			b.dev2[i] += d * d
		}
		if present < need {
			return nil, fmt.Errorf("%w: y variable %d has %d structures with values, need %d",
				ErrNotEnoughObjects, y, present, need)
		}
	}
	return b, nil
}

// structureY is the weight normalized y value of a structure's training
// objects.
func (p *Partitioner) structureY(objs []int, y int) (float64, bool) {
	var s, w float64
	for _, o := range objs {
		obj := p.attrs.Object(o)
		if obj.Status != attr.ObjectActive || obj.Weight <= 0 {
			continue
		}
		v := p.store.GetY(o, y, 0)
		if storage.IsMissing(v) {
			continue
		}
		s += v * obj.Weight
		w += obj.Weight
	}
	if w == 0 {
		return 0, false
	}
	return s / w, true
}

// LeaveOneOut builds a plan with one fold per active structure. At least two
// active structures are required.
func (p *Partitioner) LeaveOneOut() (*Plan, error) {
	b, err := p.prepare(2)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Scheme:      LeaveOneOut,
		Structures:  b.active,
		YVars:       b.yvars,
		FoldCount:   len(b.active),
		Predictions: len(b.active) * b.yvars,
	}
	for _, d := range b.dev2 {
		plan.TSS += d
	}
	p.logger.Debug("partition built", slog.String("scheme", plan.Scheme.String()), slog.Int("folds", plan.FoldCount))
	return plan, nil
}

// LeaveTwoOut builds a plan with one fold per unordered pair of active
// structures. At least three active structures are required.
func (p *Partitioner) LeaveTwoOut() (*Plan, error) {
	b, err := p.prepare(3)
	if err != nil {
		return nil, err
	}
	n := len(b.active)
	pairs := n * (n - 1) / 2
	plan := &Plan{
		Scheme:      LeaveTwoOut,
		Structures:  b.active,
		YVars:       b.yvars,
		FoldCount:   pairs,
		Predictions: 2 * pairs * b.yvars,
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			plan.TSS += b.dev2[i] + b.dev2[j]
		}
	}
	p.logger.Debug("partition built", slog.String("scheme", plan.Scheme.String()), slog.Int("folds", plan.FoldCount))
	return plan, nil
}

// GroupSizes returns the bucket sizes for n structures in groups buckets:
// n/groups each, with the remainder spread one per bucket over the first
// buckets.
func GroupSizes(n, groups int) []int {
	sizes := make([]int, groups)
	for g := range sizes {
		sizes[g] = n / groups
		if g < n%groups {
			sizes[g]++
		}
	}
	return sizes
}

// LeaveManyOut partitions the active structures into groups buckets,
// independently for each of runs repetitions, drawing from r.
//
// groups must be at least 2 and runs at least 1. At least groups active
// structures are required.
func (p *Partitioner) LeaveManyOut(groups, runs int, r Rand) (*Plan, error) {
	if groups < 2 {
		return nil, fmt.Errorf("%w: %d groups", ErrInvalidListRange, groups)
	}
	if runs < 1 {
		return nil, fmt.Errorf("%w: %d runs", ErrInvalidListRange, runs)
	}
	b, err := p.prepare(max(2, groups))
	if err != nil {
		return nil, err
	}

	n := len(b.active)
	sizes := GroupSizes(n, groups)
	dev := make(map[int]float64, n)
	for i, s := range b.active {
		dev[s] = b.dev2[i]
	}

	plan := &Plan{
		Scheme:      LeaveManyOut,
		Structures:  b.active,
		YVars:       b.yvars,
		Runs:        runs,
		Groups:      groups,
		FoldCount:   groups * runs,
		Predictions: n * runs * b.yvars,
		Assignments: make([][][]int, runs),
	}

	pool := make([]int, 0, n)
	for run := range runs {
		pool = append(pool[:0], b.active...)
		assign := make([][]int, groups)
		for g, size := range sizes {
			assign[g] = make([]int, 0, size)
			for range size {
				i := r.Intn(len(pool))
				s := pool[i]
				last := len(pool) - 1
				pool[i] = pool[last]
				pool = pool[:last]

				assign[g] = append(assign[g], s)
				plan.TSS += dev[s]
			}
		}
		plan.Assignments[run] = assign
	}

	p.logger.Debug("partition built",
		slog.String("scheme", plan.Scheme.String()),
		slog.Int("groups", groups),
		slog.Int("runs", runs))
	return plan, nil
}

// Validate checks that every run of an LMO plan assigns each structure to
// exactly one group.
func (p *Plan) Validate() error {
	if p.Scheme != LeaveManyOut {
		return nil
	}
	want := slices.Clone(p.Structures)
	slices.Sort(want)
	for r, groups := range p.Assignments {
		var got []int
		for _, members := range groups {
			got = append(got, members...)
		}
		slices.Sort(got)
		if !slices.Equal(got, want) {
			return fmt.Errorf("%w: run %d does not cover the active structures once", ErrInvalidListRange, r)
		}
	}
	return nil
}
