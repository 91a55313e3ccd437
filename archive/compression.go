package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression of field and y blobs.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZstd
	CompressionS2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a compression name back to its value.
func ParseCompression(name string) (Compression, error) {
	for c := CompressionNone; c <= CompressionS2; c++ {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown compression %q", ErrCorrupt, name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(b []byte) error {
	v, err := ParseCompression(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Blocks that shrink by less than this ratio are stored raw.
const storeRawRatio = 0.9

const blockHeaderSize = 8

var errShortBlock = errors.New("block shorter than header")

var (
	lz4CompressorPool = sync.Pool{
		New: func() any { return &lz4.Compressor{} },
	}
	zstdEncoderPool = sync.Pool{
		New: func() any {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
			return enc
		},
	}
	zstdDecoderPool = sync.Pool{
		New: func() any {
			dec, _ := zstd.NewReader(nil)
			return dec
		},
	}
)

// compressBlock compresses src and prepends the block header:
//
//	[raw size uint32][compressed size uint32]
//
// A compressed size of 0 means the payload is stored raw.
func compressBlock(c Compression, src []byte) ([]byte, error) {
	var payload []byte

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(src)))
		lc := lz4CompressorPool.Get().(*lz4.Compressor)
		n, err := lc.CompressBlock(src, buf)
		lz4CompressorPool.Put(lc)
		if err != nil {
			return nil, err
		}
		// n == 0 means lz4 found the input incompressible.
		payload = buf[:n]
	case CompressionZstd:
		enc := zstdEncoderPool.Get().(*zstd.Encoder)
		payload = enc.EncodeAll(src, nil)
		zstdEncoderPool.Put(enc)
	case CompressionS2:
		payload = s2.Encode(nil, src)
	default:
		return nil, fmt.Errorf("unsupported compression %d", c)
	}

	raw := len(payload) == 0 || float64(len(payload)) > float64(len(src))*storeRawRatio
	if raw {
		payload = src
	}

	out := make([]byte, blockHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(src))) //nolint:gosec // blocks are bounded by field size
	if !raw {
		binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload))) //nolint:gosec // see above
	}
	copy(out[blockHeaderSize:], payload)
	return out, nil
}

// decompressBlock reverses compressBlock.
func decompressBlock(c Compression, block []byte) ([]byte, error) {
	if len(block) < blockHeaderSize {
		return nil, errShortBlock
	}
	rawSize := int(binary.LittleEndian.Uint32(block[0:4]))
	compSize := int(binary.LittleEndian.Uint32(block[4:8]))
	payload := block[blockHeaderSize:]

	if compSize == 0 {
		if len(payload) != rawSize {
			return nil, fmt.Errorf("raw block holds %d bytes, header says %d", len(payload), rawSize)
		}
		return payload, nil
	}
	if len(payload) != compSize {
		return nil, fmt.Errorf("compressed block holds %d bytes, header says %d", len(payload), compSize)
	}

	var (
		out []byte
		err error
	)
	switch c {
	case CompressionLZ4:
		out = make([]byte, rawSize)
		var n int
		n, err = lz4.UncompressBlock(payload, out)
		out = out[:n]
	case CompressionZstd:
		dec := zstdDecoderPool.Get().(*zstd.Decoder)
		out, err = dec.DecodeAll(payload, make([]byte, 0, rawSize))
		zstdDecoderPool.Put(dec)
	case CompressionS2:
		out, err = s2.Decode(make([]byte, rawSize), payload)
	default:
		return nil, fmt.Errorf("unsupported compression %d", c)
	}
	if err != nil {
		return nil, err
	}
	if len(out) != rawSize {
		return nil, fmt.Errorf("block decoded to %d bytes, header says %d", len(out), rawSize)
	}
	return out, nil
}
