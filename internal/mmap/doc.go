// Package mmap provides memory-mapped file access for field backing files.
//
// # Usage
//
//	f, _ := os.OpenFile("field-0000.dat", os.O_RDWR, 0)
//	m, err := mmap.Map(f, size, mmap.ReadWrite)
//	if err != nil { ... }
//	defer m.Close()
//
//	values := m.Float32s()   // zero-copy view of all pages
//	part, _ := m.Region(off, n) // sub-range view used for ranged blob reads
//	m.Advise(mmap.AccessSequential)
//	m.Flush()                // msync before handing the file to another process
//
// # Platform Support
//
//   - Unix: mmap(2) with MAP_SHARED, msync(2), madvise(2)
//   - Windows: CreateFileMapping/MapViewOfFile (advice is a no-op)
//
// # Thread Safety
//
// Mapping and Region are safe for concurrent access. Close is idempotent and
// protected by an atomic flag, but callers must ensure no goroutine touches
// Bytes or Float32s after Close returns.
package mmap
