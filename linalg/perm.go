package linalg

// Perm is a growable list of indices, typically a permutation.
type Perm struct {
	idx []int
}

// NewPerm returns a permutation of length n initialised to identity.
func NewPerm(n int) (*Perm, error) {
	p := &Perm{}
	if err := p.Resize(n); err != nil {
		return nil, err
	}
	p.Identity()
	return p, nil
}

// PermOf wraps indices without copying.
func PermOf(indices []int) *Perm { return &Perm{idx: indices} }

// Len returns the logical length.
func (p *Perm) Len() int { return len(p.idx) }

// At returns index i.
func (p *Perm) At(i int) int { return p.idx[i] }

// Set stores x at i.
func (p *Perm) Set(i, x int) { p.idx[i] = x }

// Indices returns the logical elements, aliasing the storage.
func (p *Perm) Indices() []int { return p.idx }

// Resize changes the logical length. Capacity is never released.
func (p *Perm) Resize(n int) error {
	if err := checkSize(n, 1); err != nil {
		return err
	}
	old := len(p.idx)
	if n > cap(p.idx) {
		idx := make([]int, n, grow(cap(p.idx), n))
		copy(idx, p.idx)
		p.idx = idx
		return nil
	}
	p.idx = p.idx[:n]
	if n > old {
		clear(p.idx[old:])
	}
	return nil
}

// Identity sets p[i] = i.
func (p *Perm) Identity() {
	for i := range p.idx {
		p.idx[i] = i
	}
}

// Valid reports whether p is a permutation of 0..Len()-1.
func (p *Perm) Valid() bool {
	seen := make([]bool, len(p.idx))
	for _, i := range p.idx {
		if i < 0 || i >= len(p.idx) || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

// Inverse returns q with q[p[i]] = i.
func (p *Perm) Inverse() *Perm {
	inv := make([]int, len(p.idx))
	for i, j := range p.idx {
		inv[j] = i
	}
	return &Perm{idx: inv}
}
