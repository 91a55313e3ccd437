package stats

import (
	"fmt"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/linalg"
	"github.com/hupe1980/gridpls/storage"
)

// Tanimoto returns a structures x fields matrix of the similarity of every
// structure to structure ref. Structures are indexed as in
// attr.Store.Structures.
//
// Per field, each structure is reduced to the weight normalized average of
// its non-deleted objects over the active variables, with missing values
// taken as 0. The similarity of profiles a and b is
//
//	sum(ab) / (sum(a^2) + sum(b^2) - sum(ab))
//
// and 0 when the denominator is 0. Inactive fields yield a zero column.
func (e *Engine) Tanimoto(ref int) (*linalg.Matrix, error) {
	members := e.attrs.Structures()
	if ref < 0 || ref >= len(members) {
		return nil, fmt.Errorf("%w: structure %d", attr.ErrInvalidListRange, ref)
	}

	nf := e.store.NumFields()
	out, err := linalg.NewMatrix(len(members), nf)
	if err != nil {
		return nil, err
	}

	groups := make([]group, len(members))
	for i, objs := range members {
		for _, o := range objs {
			obj := e.attrs.Object(o)
			if obj.Status == attr.ObjectDeleted || obj.Status == attr.ObjectUnset {
				continue
			}
			groups[i].objs = append(groups[i].objs, o)
			groups[i].w = append(groups[i].w, obj.Weight)
		}
	}

	for f := range nf {
		if e.attrs.Field(f).Status != attr.FieldActive {
			continue
		}
		vars := e.attrs.ActiveVars(f).ToArray()
		if err := e.tanimotoField(out, f, ref, vars, groups); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine) tanimotoField(out *linalg.Matrix, f, ref int, vars []uint32, groups []group) error {
	v, err := e.store.Acquire(f)
	if err != nil {
		return err
	}
	defer v.Release()

	profile := func(g group) []float64 {
		p := make([]float64, len(vars))
		var sumW float64
		for _, w := range g.w {
			sumW += w
		}
		if sumW == 0 {
			return p
		}
		for i, o := range g.objs {
			scale := g.w[i] / sumW
			for j, x := range vars {
				val := v.X(o, int(x), DefaultFlags)
				if storage.IsMissing(val) {
					continue
				}
				p[j] += val * scale
			}
		}
		return p
	}

	a := profile(groups[ref])
	var aa float64
	for _, x := range a {
		aa += x * x
	}

	return e.fanOut(len(groups), func(s int) error {
		b := profile(groups[s])
		var ab, bb float64
		for j := range b {
			ab += a[j] * b[j]
			bb += b[j] * b[j]
		}
		if den := aa + bb - ab; den != 0 {
			out.Set(s, f, ab/den)
		}
		return nil
	})
}
