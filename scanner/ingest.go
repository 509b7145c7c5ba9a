package scanner

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// mmapThreshold is the file-size cutoff between a buffered read and a
// read-only mmap in ScanFile (spec.md §4.F / §9). Below it, reading the
// whole file into one reserved buffer is faster than paying mmap's TLB
// churn on small/medium files.
const mmapThreshold = 500_000_000

// readFile loads path for scanning, choosing the buffered-read or mmap
// strategy by size. The returned cleanup func must be called once the
// caller is done with the returned bytes (it is a no-op for the buffered
// path, and unix.Munmap for the mapped path).
func readFile(path string) (data []byte, cleanup func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &ScanFileError{Path: path, Err: fmt.Errorf("%w: %v", ErrOpen, err)}
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, &ScanFileError{Path: path, Err: fmt.Errorf("%w: %v", ErrOpen, err)}
	}

	size := fi.Size()
	if size == 0 {
		return nil, func() {}, nil
	}

	if size < mmapThreshold {
		buf := make([]byte, size)
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, nil, &ScanFileError{Path: path, Err: fmt.Errorf("%w: %v", ErrOpen, err)}
		}
		return buf, func() {}, nil
	}

	mapped, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, &ScanFileError{Path: path, Err: fmt.Errorf("%w: %v", ErrMap, err)}
	}
	return mapped, func() { _ = unix.Munmap(mapped) }, nil
}
