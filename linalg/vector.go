package linalg

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Vector is a growable float64 vector.
type Vector struct {
	data []float64
}

// NewVector returns a zeroed vector of length n.
func NewVector(n int) (*Vector, error) {
	v := &Vector{}
	if err := v.Resize(n); err != nil {
		return nil, err
	}
	return v, nil
}

// Len returns the logical length.
func (v *Vector) Len() int { return len(v.data) }

// At returns element i.
func (v *Vector) At(i int) float64 { return v.data[i] }

// Set stores x at i.
func (v *Vector) Set(i int, x float64) { v.data[i] = x }

// Data returns the logical elements, aliasing the vector storage.
func (v *Vector) Data() []float64 { return v.data }

// Resize changes the logical length. Capacity is never released.
func (v *Vector) Resize(n int) error {
	if err := checkSize(n, 1); err != nil {
		return err
	}
	old := len(v.data)
	if n > cap(v.data) {
		data := make([]float64, n, grow(cap(v.data), n))
		copy(data, v.data)
		v.data = data
		return nil
	}
	v.data = v.data[:n]
	if n > old {
		clear(v.data[old:])
	}
	return nil
}

// Permute reorders the elements so that element i takes the former element perm[i].
func (v *Vector) Permute(perm *Perm) error {
	if perm.Len() != len(v.data) {
		return &ErrDimensionMismatch{Expected: len(v.data), Actual: perm.Len()}
	}
	tmp := make([]float64, len(v.data))
	for i, src := range perm.Indices() {
		tmp[i] = v.data[src]
	}
	copy(v.data, tmp)
	return nil
}

// VecDense returns a gonum view sharing the vector storage.
func (v *Vector) VecDense() *mat.VecDense {
	if len(v.data) == 0 {
		return &mat.VecDense{}
	}
	var d mat.VecDense
	d.SetRawVector(blas64.Vector{N: len(v.data), Inc: 1, Data: v.data})
	return &d
}
