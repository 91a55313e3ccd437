package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/gridpls/attr"
)

// encodeMasks serializes one bitmap per flag bit that has any variable set:
//
//	[entries uint16] then per entry [bit uint16][length uint32][roaring bytes]
func encodeMasks(attrs *attr.Store, f int) ([]byte, error) {
	out := make([]byte, 2)
	var entries uint16
	for _, bit := range attr.VarFlagBits {
		b := attrs.VarsWith(f, bit)
		if b.IsEmpty() {
			continue
		}
		b.RunOptimize()
		data, err := b.ToBytes()
		if err != nil {
			return nil, err
		}
		var hdr [6]byte
		binary.LittleEndian.PutUint16(hdr[0:2], uint16(bit))
		binary.LittleEndian.PutUint32(hdr[2:6], uint32(len(data))) //nolint:gosec // bounded by XVars
		out = append(out, hdr[:]...)
		out = append(out, data...)
		entries++
	}
	binary.LittleEndian.PutUint16(out[0:2], entries)
	return out, nil
}

func decodeMasks(data []byte) (map[attr.VarFlags]*roaring.Bitmap, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: mask blob of %d bytes", ErrCorrupt, len(data))
	}
	entries := int(binary.LittleEndian.Uint16(data[0:2]))
	data = data[2:]

	masks := make(map[attr.VarFlags]*roaring.Bitmap, entries)
	for range entries {
		if len(data) < 6 {
			return nil, fmt.Errorf("%w: truncated mask entry", ErrCorrupt)
		}
		bit := attr.VarFlags(binary.LittleEndian.Uint16(data[0:2]))
		n := int(binary.LittleEndian.Uint32(data[2:6]))
		data = data[6:]
		if n > len(data) {
			return nil, fmt.Errorf("%w: mask entry of %d bytes, %d left", ErrCorrupt, n, len(data))
		}
		b := roaring.New()
		if err := b.UnmarshalBinary(data[:n]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		masks[bit] = b
		data = data[n:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing mask bytes", ErrCorrupt, len(data))
	}
	return masks, nil
}
