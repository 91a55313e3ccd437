package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the error returned by faults that do not name their own.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior for files whose name contains a pattern.
type Fault struct {
	FailOnOpen     bool
	FailOnTruncate bool
	// FailAfterBytes fails writes once this many bytes were written to the
	// file. -1 disables the limit.
	FailAfterBytes int64
	FailOnSync     bool
	FailOnClose    bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS is a FileSystem wrapper that injects errors by file name pattern.
type FaultyFS struct {
	FS    FileSystem
	mu    sync.Mutex
	rules map[string]Fault
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:    fs,
		rules: make(map[string]Fault),
	}
}

// AddRule registers a fault for every file whose name contains pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// ClearRules removes every rule.
func (f *FaultyFS) ClearRules() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.rules)
}

func (f *FaultyFS) match(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			return rule, true
		}
	}
	return Fault{FailAfterBytes: -1}, false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault, _ := f.match(name)
	if fault.FailOnOpen {
		return nil, fault.err()
	}
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fault: fault}, nil
}

func (f *FaultyFS) Truncate(name string, size int64) error {
	if fault, _ := f.match(name); fault.FailOnTruncate {
		return fault.err()
	}
	return f.FS.Truncate(name, size)
}

func (f *FaultyFS) Remove(name string) error                     { return f.FS.Remove(name) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error)        { return f.FS.Stat(name) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error { return f.FS.MkdirAll(path, perm) }
func (f *FaultyFS) MkdirTemp(dir, pattern string) (string, error) {
	return f.FS.MkdirTemp(dir, pattern)
}
func (f *FaultyFS) RemoveAll(path string) error { return f.FS.RemoveAll(path) }

type faultyFile struct {
	File
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.err()
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.err()
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.err()
	}
	return ff.File.Close()
}
