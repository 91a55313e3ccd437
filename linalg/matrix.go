package linalg

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a growable row-major matrix of float64.
type Matrix struct {
	data    []float64
	rows    int
	cols    int
	stride  int
	capRows int
}

// NewMatrix returns a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) (*Matrix, error) {
	m := &Matrix{}
	if err := m.Resize(rows, cols); err != nil {
		return nil, err
	}
	return m, nil
}

// Dims returns the logical dimensions.
func (m *Matrix) Dims() (rows, cols int) { return m.rows, m.cols }

// At returns the element at (i, j).
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.stride+j] }

// Set stores v at (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.stride+j] = v }

// Add increments the element at (i, j) by v.
func (m *Matrix) Add(i, j int, v float64) { m.data[i*m.stride+j] += v }

// Row returns row i as a slice aliasing the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	off := i * m.stride
	return m.data[off : off+m.cols : off+m.cols]
}

// Resize changes the logical size, keeping existing elements in place.
func (m *Matrix) Resize(rows, cols int) error {
	if err := checkSize(rows, cols); err != nil {
		return err
	}

	if cols > m.stride || rows > m.capRows {
		stride := grow(m.stride, cols)
		capRows := grow(m.capRows, rows)
		if err := checkSize(capRows, stride); err != nil {
			return err
		}
		data := make([]float64, capRows*stride)
		for i := 0; i < m.rows; i++ {
			copy(data[i*stride:i*stride+m.cols], m.data[i*m.stride:i*m.stride+m.cols])
		}
		m.data = data
		m.stride = stride
		m.capRows = capRows
	} else {
		// Storage is reused; clear what becomes visible again.
		for i := 0; i < rows; i++ {
			row := m.data[i*m.stride : i*m.stride+cols]
			from := 0
			if i < m.rows {
				from = m.cols
			}
			if from < cols {
				clear(row[from:])
			}
		}
	}

	m.rows, m.cols = rows, cols
	return nil
}

// Zero sets every logical element to zero.
func (m *Matrix) Zero() {
	for i := 0; i < m.rows; i++ {
		clear(m.Row(i))
	}
}

// PermuteRows reorders the rows so that row i takes the former row perm[i].
func (m *Matrix) PermuteRows(perm *Perm) error {
	if perm.Len() != m.rows {
		return &ErrDimensionMismatch{Expected: m.rows, Actual: perm.Len()}
	}
	tmp := make([]float64, m.rows*m.cols)
	for i, src := range perm.Indices() {
		copy(tmp[i*m.cols:(i+1)*m.cols], m.Row(src))
	}
	for i := 0; i < m.rows; i++ {
		copy(m.Row(i), tmp[i*m.cols:(i+1)*m.cols])
	}
	return nil
}

// Dense returns a gonum view sharing the matrix storage. The view is
// invalidated by a Resize that reallocates.
func (m *Matrix) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	var d mat.Dense
	d.SetRawMatrix(blas64.General{
		Rows:   m.rows,
		Cols:   m.cols,
		Stride: m.stride,
		Data:   m.data[:(m.rows-1)*m.stride+m.cols],
	})
	return &d
}
