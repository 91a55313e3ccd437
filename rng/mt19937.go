package rng

const (
	n         = 624
	m         = 397
	matrixA   = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff
)

// DefaultSeed is used when a zero-value generator is drawn from.
const DefaultSeed uint32 = 5489

// MT19937 is a Mersenne Twister with period 2^19937-1.
type MT19937 struct {
	state  [n]uint32
	index  int
	seeded bool
}

// New returns a generator seeded with seed.
func New(seed uint32) *MT19937 {
	r := &MT19937{}
	r.Seed(seed)
	return r
}

// Seed resets the generator state from seed.
func (r *MT19937) Seed(seed uint32) {
	r.state[0] = seed
	for i := 1; i < n; i++ {
		prev := r.state[i-1]
		r.state[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	r.index = n
	r.seeded = true
}

// SeedSlice initializes the state from an array of keys.
func (r *MT19937) SeedSlice(key []uint32) {
	r.Seed(19650218)
	i, j := 1, 0
	k := n
	if len(key) > k {
		k = len(key)
	}
	for ; k > 0; k-- {
		prev := r.state[i-1]
		r.state[i] = (r.state[i] ^ ((prev ^ (prev >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if i >= n {
			r.state[0] = r.state[n-1]
			i = 1
		}
		if j >= len(key) {
			j = 0
		}
	}
	for k = n - 1; k > 0; k-- {
		prev := r.state[i-1]
		r.state[i] = (r.state[i] ^ ((prev ^ (prev >> 30)) * 1566083941)) - uint32(i)
		i++
		if i >= n {
			r.state[0] = r.state[n-1]
			i = 1
		}
	}
	r.state[0] = 0x80000000
	r.index = n
}

func (r *MT19937) twist() {
	var mag01 = [2]uint32{0, matrixA}
	kk := 0
	for ; kk < n-m; kk++ {
		y := (r.state[kk] & upperMask) | (r.state[kk+1] & lowerMask)
		r.state[kk] = r.state[kk+m] ^ (y >> 1) ^ mag01[y&1]
	}
	for ; kk < n-1; kk++ {
		y := (r.state[kk] & upperMask) | (r.state[kk+1] & lowerMask)
		r.state[kk] = r.state[kk+(m-n)] ^ (y >> 1) ^ mag01[y&1]
	}
	y := (r.state[n-1] & upperMask) | (r.state[0] & lowerMask)
	r.state[n-1] = r.state[m-1] ^ (y >> 1) ^ mag01[y&1]
	r.index = 0
}

// Uint32 returns the next tempered 32-bit value.
func (r *MT19937) Uint32() uint32 {
	if !r.seeded {
		r.Seed(DefaultSeed)
	}
	if r.index >= n {
		r.twist()
	}
	y := r.state[r.index]
	r.index++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

// Float64 returns a uniform value in the closed interval [0,1].
func (r *MT19937) Float64() float64 {
	return float64(r.Uint32()) * (1.0 / 4294967295.0)
}

// Intn returns a uniform index in [0,size) derived from Float64.
// The closed upper bound of Float64 is folded onto size-1.
func (r *MT19937) Intn(size int) int {
	if size <= 0 {
		return 0
	}
	i := int(r.Float64() * float64(size))
	if i >= size {
		i = size - 1
	}
	return i
}
