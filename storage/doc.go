// Package storage holds x values as a [field][object][variable] array of
// float32 and y values as an [object][y-variable] array.
//
// Two modes are chosen once per Store:
//
//   - ModeResident keeps one contiguous block per field in memory, reserved
//     against the resource controller's memory budget.
//   - ModePaged keeps one backing file per field of object-count pages, each
//     page rounded up to the OS page size. Exactly one field is mapped at a
//     time; touching another field unmaps the current one and maps the new
//     one. Sequential per-field processing is the dominant access pattern, so
//     datasets larger than physical memory stay workable.
//
// # Field Views
//
// Acquire returns a FieldView that pins the field's pages until Release. In
// paged mode the view holds the mapping lock, so only one field can be viewed
// at a time and a goroutine holding a view must not call Store.GetX or
// Store.SetX (use the view instead). Views may be shared by goroutines that
// work on the same field.
//
//	v, err := st.Acquire(field)
//	if err != nil { ... }
//	defer v.Release()
//	x := v.X(object, variable, storage.FlagWeight|storage.FlagCutoff)
//
// # Reads
//
// A read applies, in order: the active-only filter (inactive field/variable
// reads as 0), the Missing short-circuit (the raw sentinel is returned
// unweighted and unclipped), the field weight, and the field cutoffs.
//
// # Unbuffered Writes
//
// SetXUnbuffered and WritePage write straight to the backing file with a seek
// and a write under a single mutex. They are the only entry points meant for
// concurrent, interleaved callers, typically importers running before any
// field has been mapped.
//
// Backing files use the host's native byte order and carry no header.
package storage
