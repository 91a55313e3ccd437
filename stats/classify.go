package stats

import (
	"log/slog"
	"math"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/sortperm"
	"github.com/hupe1980/gridpls/storage"
)

// Classify recomputes VarActive for every non-deleted field: a variable is
// active iff its standard deviation exceeds the field's SD cutoff and it is
// not flagged VarDelete. Field active-variable counts are updated.
func (e *Engine) Classify() error {
	for f := range e.store.NumFields() {
		if e.attrs.Field(f).Status == attr.FieldDeleted {
			continue
		}
		if err := e.ClassifyField(f); err != nil {
			return err
		}
	}
	return nil
}

// ClassifyField recomputes VarActive for field f.
func (e *Engine) ClassifyField(f int) error {
	sum, err := e.Summaries(f, DefaultFlags)
	if err != nil {
		return err
	}
	cutoff := e.attrs.Field(f).SDCutoff

	active := 0
	for x := range e.store.XVars() {
		on := sum.SD.At(x) > cutoff && !e.attrs.VarFlags(f, x).Has(attr.VarDelete)
		if on {
			active++
			err = e.attrs.SetVarFlags(f, x, attr.VarActive)
		} else {
			err = e.attrs.ClearVarFlags(f, x, attr.VarActive)
		}
		if err != nil {
			return err
		}
	}
	e.logger.Debug("field classified", slog.Int("field", f), slog.Int("active_vars", active))
	return e.attrs.SetActiveVarCount(f, active)
}

// FieldStats are the raw value summary of one field.
type FieldStats struct {
	Min   float64
	Max   float64
	Zeros int
}

// FieldSummary scans the raw values of field f over the training objects and
// records min, max and the number of zero values in the attribute store.
// Missing values are skipped. With no values, Min and Max are 0.
func (e *Engine) FieldSummary(f int) (FieldStats, error) {
	v, err := e.store.Acquire(f)
	if err != nil {
		return FieldStats{}, err
	}

	fs := FieldStats{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, o := range e.attrs.ActiveObjects().ToArray() {
		for _, raw := range v.Page(int(o)) {
			if raw == storage.Missing {
				continue
			}
			x := float64(raw)
			fs.Min = min(fs.Min, x)
			fs.Max = max(fs.Max, x)
			if raw == 0 {
				fs.Zeros++
			}
		}
	}
	v.Release()

	if math.IsInf(fs.Min, 1) {
		fs.Min, fs.Max = 0, 0
	}
	return fs, e.attrs.SetFieldSummary(f, fs.Min, fs.Max, fs.Zeros)
}

// RankVariables returns the active variables of field f ordered by
// descending standard deviation. Ties keep ascending variable order.
func (e *Engine) RankVariables(f int) ([]int, error) {
	sum, err := e.Summaries(f, DefaultFlags)
	if err != nil {
		return nil, err
	}
	vars := e.attrs.ActiveVars(f).ToArray()
	keys := make([]float64, len(vars))
	for i, x := range vars {
		keys[i] = -sum.SD.At(int(x))
	}
	perm := sortperm.Float64s(keys, 0)

	out := make([]int, len(perm))
	for i, p := range perm {
		out[i] = int(vars[p])
	}
	return out, nil
}
