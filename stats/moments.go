package stats

import (
	"github.com/hupe1980/gridpls/linalg"
	"github.com/hupe1980/gridpls/storage"
)

// AverageX returns the weighted mean of variable x of field f over the
// training objects, or 0 when their total weight is 0.
func (e *Engine) AverageX(f, x int, flags storage.Flags) (float64, error) {
	v, err := e.store.Acquire(f)
	if err != nil {
		return 0, err
	}
	defer v.Release()
	if x < 0 || x >= e.store.XVars() {
		return 0, storage.ErrIndexRange
	}
	return mean(e.training(), func(o int) float64 { return v.X(o, x, flags) }), nil
}

// StddevX returns the weighted standard deviation of variable x of field f.
func (e *Engine) StddevX(f, x int, flags storage.Flags) (float64, error) {
	v, err := e.store.Acquire(f)
	if err != nil {
		return 0, err
	}
	defer v.Release()
	if x < 0 || x >= e.store.XVars() {
		return 0, storage.ErrIndexRange
	}
	return stddev(e.training(), func(o int) float64 { return v.X(o, x, flags) }), nil
}

// AverageY returns the weighted mean of y variable y over the training objects.
func (e *Engine) AverageY(y int, flags storage.Flags) float64 {
	return mean(e.training(), func(o int) float64 { return e.store.GetY(o, y, flags) })
}

// StddevY returns the weighted standard deviation of y variable y.
func (e *Engine) StddevY(y int, flags storage.Flags) float64 {
	return stddev(e.training(), func(o int) float64 { return e.store.GetY(o, y, flags) })
}

// Summary holds the per-variable mean and standard deviation of one field.
type Summary struct {
	Mean *linalg.Vector
	SD   *linalg.Vector
}

// Summaries computes the mean and standard deviation of every variable of
// field f.
func (e *Engine) Summaries(f int, flags storage.Flags) (*Summary, error) {
	n := e.store.XVars()
	m, err := linalg.NewVector(n)
	if err != nil {
		return nil, err
	}
	sd, err := linalg.NewVector(n)
	if err != nil {
		return nil, err
	}

	v, err := e.store.Acquire(f)
	if err != nil {
		return nil, err
	}
	defer v.Release()

	groups := e.training()
	err = e.fanOut(n, func(x int) error {
		value := func(o int) float64 { return v.X(o, x, flags) }
		m.Set(x, mean(groups, value))
		sd.Set(x, stddev(groups, value))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Summary{Mean: m, SD: sd}, nil
}

// UpdateYSummaries stores the mean and standard deviation of every y
// variable in the attribute store.
func (e *Engine) UpdateYSummaries() error {
	groups := e.training()
	for y := range e.store.NumYVars() {
		value := func(o int) float64 { return e.store.GetY(o, y, 0) }
		if err := e.attrs.SetYSummary(y, mean(groups, value), stddev(groups, value)); err != nil {
			return err
		}
	}
	return nil
}
