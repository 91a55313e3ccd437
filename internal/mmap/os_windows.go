//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osMap(fd uintptr, size int, mode Mode) ([]byte, func([]byte) error, func([]byte) error, error) {
	protect := uint32(windows.PAGE_READONLY)
	access := uint32(windows.FILE_MAP_READ)
	if mode == ReadWrite {
		protect = windows.PAGE_READWRITE
		access = windows.FILE_MAP_WRITE
	}

	h, err := windows.CreateFileMapping(windows.Handle(fd), nil, protect, 0, 0, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	// The view holds its own reference to the mapping object.
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, access, 0, 0, uintptr(size))
	if err != nil {
		return nil, nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	unmap := func([]byte) error { return windows.UnmapViewOfFile(addr) }
	flush := func([]byte) error { return windows.FlushViewOfFile(addr, uintptr(size)) }
	return data, unmap, flush, nil
}

func osAdvise(data []byte, pattern AccessPattern) error {
	// No madvise equivalent; the OS page cache handles sequential scans well.
	_ = data
	_ = pattern
	return nil
}
