package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manifest struct {
	Version int       `json:"version"`
	Fields  []string  `json:"fields"`
	Origin  []float64 `json:"origin"`
}

func TestByName(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		got, ok := ByName(c.Name())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecs_Interchangeable(t *testing.T) {
	in := manifest{Version: 1, Fields: []string{"steric", "electrostatic"}, Origin: []float64{-10.5, 0, 2.25}}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			var out manifest
			require.NoError(t, dec.Unmarshal(MustMarshal(enc, in), &out), "%s -> %s", enc.Name(), dec.Name())
			assert.Equal(t, in, out)
		}
	}
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(nil, make(chan int)) })
}
