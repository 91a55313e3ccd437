package archive

import (
	"fmt"
	"time"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/grid"
)

// FormatVersion is the manifest layout written by Save.
const FormatVersion = 1

const (
	manifestName = "manifest.json"
	yBlobName    = "y.blk"
)

func fieldBlobName(f int) string { return fmt.Sprintf("fields/%04d.blk", f) }
func maskBlobName(f int) string  { return fmt.Sprintf("masks/%04d.roar", f) }

// BlobRef locates one stored blob and pins its contents.
type BlobRef struct {
	Name string `json:"name"`
	// Size is the stored (possibly compressed) size in bytes.
	Size int64 `json:"size"`
	// RawSize is the decoded size in bytes.
	RawSize  int64  `json:"rawSize"`
	Checksum uint64 `json:"checksum"`
}

// FieldEntry is the archived state of one field.
type FieldEntry struct {
	Attr  attr.Field `json:"attr"`
	Data  BlobRef    `json:"data"`
	Masks BlobRef    `json:"masks"`
}

// Manifest describes a complete archive.
type Manifest struct {
	Version     int           `json:"version"`
	CreatedAt   time.Time     `json:"createdAt"`
	Grid        grid.Grid     `json:"grid"`
	Compression Compression   `json:"compression"`
	Objects     []attr.Object `json:"objects"`
	Fields      []FieldEntry  `json:"fields"`
	YVars       []attr.YVar   `json:"yvars"`
	Y           BlobRef       `json:"y"`
}

// Blobs returns every blob the manifest references, y first.
func (m *Manifest) Blobs() []BlobRef {
	refs := make([]BlobRef, 0, 1+2*len(m.Fields))
	refs = append(refs, m.Y)
	for _, fe := range m.Fields {
		refs = append(refs, fe.Data, fe.Masks)
	}
	return refs
}

// StoredBytes sums the stored size of every referenced blob.
func (m *Manifest) StoredBytes() int64 {
	var n int64
	for _, r := range m.Blobs() {
		n += r.Size
	}
	return n
}

func (m *Manifest) validate() error {
	if m.Version != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	if err := m.Grid.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	page := int64(m.Grid.XVars()) * 4
	for f, fe := range m.Fields {
		if fe.Data.RawSize != page*int64(len(m.Objects)) {
			return fmt.Errorf("%w: field %d holds %d bytes, want %d", ErrCorrupt, f, fe.Data.RawSize, page*int64(len(m.Objects)))
		}
	}
	if m.Y.RawSize != int64(len(m.Objects))*int64(len(m.YVars))*4 {
		return fmt.Errorf("%w: y table holds %d bytes", ErrCorrupt, m.Y.RawSize)
	}
	return nil
}
