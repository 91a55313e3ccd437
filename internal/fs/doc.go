// Package fs provides the file system abstraction used for field backing
// files, with a fault-injecting implementation for tests.
//
//   - [File]: an open file with read/write/seek/sync and a descriptor for mmap
//   - [FileSystem]: open, truncate, temp directories and removal
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: injects open, truncate, write, sync and close failures
//
// Production code uses fs.Default:
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
//
// Tests inject failures by file name:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("field-0001", fs.Fault{FailAfterBytes: 0})
//
// The package does not take context.Context parameters; local file calls are
// not interruptible at the syscall level.
package fs
