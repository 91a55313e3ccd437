package archive

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/blobstore"
	"github.com/hupe1980/gridpls/internal/resource"
	"github.com/hupe1980/gridpls/storage"
)

var (
	// ErrNoArchive is returned when the store holds no manifest.
	ErrNoArchive = errors.New("archive: no manifest")
	// ErrChecksumMismatch is returned when a blob does not match its manifest entry.
	ErrChecksumMismatch = errors.New("archive: checksum mismatch")
	// ErrUnsupportedVersion is returned for manifests of an unknown format version.
	ErrUnsupportedVersion = errors.New("archive: unsupported format version")
	// ErrCorrupt is returned for structurally invalid manifests or blobs.
	ErrCorrupt = errors.New("archive: corrupt")
	// ErrDatasetMismatch is returned when attributes and storage disagree on shape.
	ErrDatasetMismatch = errors.New("archive: attributes and storage disagree")
)

// Dataset is a loaded archive.
type Dataset struct {
	Manifest *Manifest
	Attrs    *attr.Store
	Values   *storage.Store
}

// Save writes attrs and values to bs. Field blobs are compressed and
// uploaded in parallel; the manifest is written once every blob is stored.
func Save(ctx context.Context, bs blobstore.BlobStore, attrs *attr.Store, values *storage.Store, optFns ...Option) (*Manifest, error) {
	o := applyOptions(optFns)
	if attrs.NumObjects() != values.NumObjects() || attrs.NumFields() != values.NumFields() ||
		attrs.NumYVars() != values.NumYVars() || attrs.XVars() != values.XVars() {
		return nil, ErrDatasetMismatch
	}
	start := time.Now()

	m := &Manifest{
		Version:     FormatVersion,
		CreatedAt:   start.UTC(),
		Grid:        values.Grid(),
		Compression: o.compression,
		Objects:     make([]attr.Object, attrs.NumObjects()),
		Fields:      make([]FieldEntry, attrs.NumFields()),
		YVars:       make([]attr.YVar, attrs.NumYVars()),
	}
	for i := range m.Objects {
		m.Objects[i] = attrs.Object(i)
	}
	for y := range m.YVars {
		m.YVars[y] = attrs.YVar(y)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.resources.Workers())

	err := func() error {
		for f := range m.Fields {
			if err := gctx.Err(); err != nil {
				return err
			}
			m.Fields[f].Attr = attrs.Field(f)

			// Pages are copied out serially: paged storage maps one field at a time.
			raw, err := fieldBytes(values, f)
			if err != nil {
				return err
			}
			masks, err := encodeMasks(attrs, f)
			if err != nil {
				return fmt.Errorf("field %d masks: %w", f, err)
			}

			g.Go(func() error {
				data, err := o.put(gctx, bs, fieldBlobName(f), raw, true)
				if err != nil {
					return err
				}
				mref, err := o.put(gctx, bs, maskBlobName(f), masks, false)
				if err != nil {
					return err
				}
				m.Fields[f].Data, m.Fields[f].Masks = data, mref
				return nil
			})
		}
		return nil
	}()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return nil, err
	}

	m.Y, err = o.put(ctx, bs, yBlobName, yBytes(values), true)
	if err != nil {
		return nil, err
	}

	data, err := o.codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := bs.Put(ctx, manifestName, data); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	o.logger.Info("archive saved",
		slog.Int("fields", len(m.Fields)),
		slog.Int("objects", len(m.Objects)),
		slog.String("compression", m.Compression.String()),
		slog.Int64("stored_bytes", m.StoredBytes()),
		slog.Duration("duration", time.Since(start)),
	)
	return m, nil
}

// put stores one blob through the IO budget and returns its reference.
func (o *options) put(ctx context.Context, bs blobstore.BlobStore, name string, raw []byte, compress bool) (BlobRef, error) {
	block := raw
	if compress {
		var err error
		if block, err = compressBlock(o.compression, raw); err != nil {
			return BlobRef{}, fmt.Errorf("compress %s: %w", name, err)
		}
	}

	w, err := bs.Create(ctx, name)
	if err != nil {
		return BlobRef{}, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := resource.NewRateLimitedWriter(ctx, w, o.resources).Write(block); err != nil {
		_ = w.Close()
		_ = bs.Delete(context.WithoutCancel(ctx), name)
		return BlobRef{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return BlobRef{}, fmt.Errorf("commit %s: %w", name, err)
	}

	return BlobRef{
		Name:     name,
		Size:     int64(len(block)),
		RawSize:  int64(len(raw)),
		Checksum: xxhash.Sum64(block),
	}, nil
}

func fieldBytes(values *storage.Store, f int) ([]byte, error) {
	v, err := values.Acquire(f)
	if err != nil {
		return nil, err
	}
	defer v.Release()

	xVars := values.XVars()
	out := make([]byte, values.NumObjects()*xVars*4)
	for obj := range values.NumObjects() {
		putFloats(out[obj*xVars*4:], v.Page(obj))
	}
	return out, nil
}

func yBytes(values *storage.Store) []byte {
	objects, yVars := values.NumObjects(), values.NumYVars()
	out := make([]byte, objects*yVars*4)
	for obj := range objects {
		for y := range yVars {
			v := float32(values.GetY(obj, y, 0))
			binary.LittleEndian.PutUint32(out[(obj*yVars+y)*4:], math.Float32bits(v))
		}
	}
	return out
}

func putFloats(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

func getFloats(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}

// Inspect reads and validates the manifest without fetching any data blob.
func Inspect(ctx context.Context, bs blobstore.BlobStore, optFns ...Option) (*Manifest, error) {
	o := applyOptions(optFns)
	return o.manifest(ctx, bs)
}

func (o *options) manifest(ctx context.Context, bs blobstore.BlobStore) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, bs, manifestName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNoArchive, err)
		}
		return nil, err
	}
	m := new(Manifest)
	if err := o.codec.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrCorrupt, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// fetch reads a referenced blob and checks its size and checksum.
func (o *options) fetch(ctx context.Context, bs blobstore.BlobStore, ref BlobRef) ([]byte, error) {
	data, err := blobstore.ReadAll(ctx, bs, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref.Name, err)
	}
	if err := o.resources.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	if int64(len(data)) != ref.Size {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", ErrChecksumMismatch, ref.Name, len(data), ref.Size)
	}
	if sum := xxhash.Sum64(data); sum != ref.Checksum {
		return nil, fmt.Errorf("%w: %s has %016x, want %016x", ErrChecksumMismatch, ref.Name, sum, ref.Checksum)
	}
	return data, nil
}

func (o *options) fetchBlock(ctx context.Context, bs blobstore.BlobStore, c Compression, ref BlobRef) ([]byte, error) {
	block, err := o.fetch(ctx, bs, ref)
	if err != nil {
		return nil, err
	}
	raw, err := decompressBlock(c, block)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, ref.Name, err)
	}
	if int64(len(raw)) != ref.RawSize {
		return nil, fmt.Errorf("%w: %s decoded to %d bytes, want %d", ErrCorrupt, ref.Name, len(raw), ref.RawSize)
	}
	return raw, nil
}

// Load rebuilds the attribute store and the value storage from bs. The
// storage is configured by WithStorageOptions; the caller owns it.
func Load(ctx context.Context, bs blobstore.BlobStore, optFns ...Option) (*Dataset, error) {
	o := applyOptions(optFns)
	start := time.Now()

	m, err := o.manifest(ctx, bs)
	if err != nil {
		return nil, err
	}

	attrs, err := restoreAttrs(m)
	if err != nil {
		return nil, err
	}

	sopts := append([]storage.Option{
		storage.WithResources(o.resources),
		storage.WithLogger(o.logger),
	}, o.storage...)
	values, err := storage.New(attrs, m.Grid, sopts...)
	if err != nil {
		return nil, err
	}
	if err := o.loadValues(ctx, bs, m, attrs, values); err != nil {
		return nil, errors.Join(err, values.Close())
	}
	attrs.Recount()

	o.logger.Info("archive loaded",
		slog.Int("fields", len(m.Fields)),
		slog.Int("objects", len(m.Objects)),
		slog.String("mode", values.Mode().String()),
		slog.Duration("duration", time.Since(start)),
	)
	return &Dataset{Manifest: m, Attrs: attrs, Values: values}, nil
}

func restoreAttrs(m *Manifest) (*attr.Store, error) {
	attrs := attr.New(m.Grid.XVars())
	for _, rec := range m.Objects {
		i := attrs.AddObject(rec.ID, rec.Structure)
		if err := attrs.SetObjectWeight(i, rec.Weight); err != nil {
			return nil, fmt.Errorf("%w: object %d: %w", ErrCorrupt, i, err)
		}
		if err := attrs.SetObjectStatus(i, rec.Status); err != nil {
			return nil, err
		}
	}
	for _, rec := range m.YVars {
		if err := attrs.RestoreYVar(attrs.AddYVar(rec.Name), rec); err != nil {
			return nil, err
		}
	}
	attrs.AddFields(len(m.Fields))
	for f, fe := range m.Fields {
		if err := attrs.RestoreField(f, fe.Attr); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

func (o *options) loadValues(ctx context.Context, bs blobstore.BlobStore, m *Manifest, attrs *attr.Store, values *storage.Store) error {
	if err := values.AddFields(len(m.Fields)); err != nil {
		return err
	}

	masks := make([]map[attr.VarFlags]*roaring.Bitmap, len(m.Fields))
	xVars := m.Grid.XVars()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.resources.Workers())
	for f, fe := range m.Fields {
		g.Go(func() error {
			raw, err := o.fetchBlock(gctx, bs, m.Compression, fe.Data)
			if err != nil {
				return err
			}
			page := make([]float32, xVars)
			for obj := range len(m.Objects) {
				getFloats(page, raw[obj*xVars*4:])
				if err := values.WritePage(gctx, f, obj, page); err != nil {
					return fmt.Errorf("field %d object %d: %w", f, obj, err)
				}
			}

			mdata, err := o.fetch(gctx, bs, fe.Masks)
			if err != nil {
				return err
			}
			masks[f], err = decodeMasks(mdata)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for f := range masks {
		if err := attrs.ReplaceVarFlags(f, masks[f]); err != nil {
			return fmt.Errorf("%w: field %d: %w", ErrCorrupt, f, err)
		}
	}

	raw, err := o.fetchBlock(ctx, bs, m.Compression, m.Y)
	if err != nil {
		return err
	}
	yVars := len(m.YVars)
	for obj := range len(m.Objects) {
		for y := range yVars {
			v := math.Float32frombits(binary.LittleEndian.Uint32(raw[(obj*yVars+y)*4:]))
			if err := values.SetY(obj, y, v); err != nil {
				return err
			}
		}
	}
	return values.Flush()
}

// Verify fetches every referenced blob and checks sizes, checksums and
// block framing without building a dataset. All problems are reported.
func Verify(ctx context.Context, bs blobstore.BlobStore, optFns ...Option) error {
	o := applyOptions(optFns)
	m, err := o.manifest(ctx, bs)
	if err != nil {
		return err
	}

	var errs []error
	check := func(ref BlobRef, block bool) {
		var err error
		if block {
			_, err = o.fetchBlock(ctx, bs, m.Compression, ref)
		} else {
			var data []byte
			if data, err = o.fetch(ctx, bs, ref); err == nil {
				_, err = decodeMasks(data)
			}
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	check(m.Y, true)
	for _, fe := range m.Fields {
		check(fe.Data, true)
		check(fe.Masks, false)
	}
	return errors.Join(errs...)
}

// Delete removes the manifest first and then every archive blob, so an
// interrupted Delete never leaves a manifest pointing at missing blobs.
func Delete(ctx context.Context, bs blobstore.BlobStore) error {
	if err := bs.Delete(ctx, manifestName); err != nil {
		return err
	}
	var errs []error
	for _, prefix := range []string{"fields/", "masks/"} {
		names, err := bs.List(ctx, prefix)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, name := range names {
			if err := bs.Delete(ctx, name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := bs.Delete(ctx, yBlobName); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
