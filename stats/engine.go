package stats

import (
	"errors"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/internal/resource"
	"github.com/hupe1980/gridpls/storage"
)

// DefaultFlags are the read flags used by classification and summaries.
const DefaultFlags = storage.FlagWeight | storage.FlagCutoff

// Engine computes statistics over an attribute store and its values.
type Engine struct {
	attrs  *attr.Store
	store  *storage.Store
	rc     *resource.Controller
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithResources sets the controller that sizes the worker pool.
func WithResources(rc *resource.Controller) Option {
	return func(e *Engine) { e.rc = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine over attrs and store.
func New(attrs *attr.Store, store *storage.Store, opts ...Option) *Engine {
	e := &Engine{
		attrs:  attrs,
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(e)
	}
	return e
}

// group is the training members of one structure.
type group struct {
	objs []int
	w    []float64
}

// training returns one group per structure holding its training objects.
// Structures without training objects yield empty groups.
func (e *Engine) training() []group {
	structs := e.attrs.Structures()
	out := make([]group, len(structs))
	for i, members := range structs {
		for _, o := range members {
			obj := e.attrs.Object(o)
			if obj.Status != attr.ObjectActive {
				continue
			}
			out[i].objs = append(out[i].objs, o)
			out[i].w = append(out[i].w, obj.Weight)
		}
	}
	return out
}

// mean is the object weighted mean of value over every group member.
func mean(groups []group, value func(obj int) float64) float64 {
	var sum, sumW float64
	for _, g := range groups {
		for i, o := range g.objs {
			v := value(o)
			if storage.IsMissing(v) {
				continue
			}
			sum += v * g.w[i]
			sumW += g.w[i]
		}
	}
	if sumW == 0 {
		return 0
	}
	return sum / sumW
}

// stddev runs West's weighted update over per-structure samples.
func stddev(groups []group, value func(obj int) float64) float64 {
	var (
		n       int
		sumW    float64
		avg, m2 float64
	)
	for _, g := range groups {
		var s, w float64
		for i, o := range g.objs {
			v := value(o)
			if storage.IsMissing(v) {
				continue
			}
			s += v * g.w[i]
			w += g.w[i]
		}
		if w <= 0 {
			continue
		}
		x := s / w

		temp := w + sumW
		delta := x - avg
		r := delta * w / temp
		avg += r
		m2 += sumW * delta * r
		sumW = temp
		n++
	}
	if n < 2 {
		return 0
	}
	variance := m2 * float64(n) / (float64(n-1) * sumW)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// fanOut calls fn for every index in [0, n), spread over the
// worker pool in contiguous chunks. Workers come from the resource
// controller, so concurrent calls share one bounded pool; a chunk that
// finds the pool saturated runs on the calling goroutine.
func (e *Engine) fanOut(n int, fn func(x int) error) error {
	workers := min(e.rc.Workers(), max(n, 1))
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	var inline error
	for lo := 0; lo < n && inline == nil; lo += chunk {
		hi := min(lo+chunk, n)
		run := func() error {
			for x := lo; x < hi; x++ {
				if err := fn(x); err != nil {
					return err
				}
			}
			return nil
		}
		if !e.rc.TryAcquireWorker() {
			inline = run()
			continue
		}
		g.Go(func() error {
			defer e.rc.ReleaseWorker()
			return run()
		})
	}
	return errors.Join(inline, g.Wait())
}
