package nfsmount

import (
	"fmt"
	"io"

	billy "github.com/go-git/go-billy/v5"
)

// commitFunc is invoked when a writable file is closed, carrying the
// final buffered content into the workspace.
type commitFunc func(path string, content []byte) error

// bytesFile implements billy.File over an immutable byte slice, used
// for regular reads and the virtual _checkpoints.json.
type bytesFile struct {
	name string
	data []byte
	pos  int64
}

func (f *bytesFile) Name() string { return f.name }

func (f *bytesFile) Read(p []byte) (int, error) {
	if f.pos >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += int64(n)
	if f.pos >= int64(len(f.data)) {
		return n, io.EOF
	}
	return n, nil
}

func (f *bytesFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *bytesFile) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.pos + offset
	case io.SeekEnd:
		newPos = int64(len(f.data)) + offset
	}
	if newPos < 0 {
		newPos = 0
	}
	f.pos = newPos
	return f.pos, nil
}

func (f *bytesFile) Write([]byte) (int, error) { return 0, errReadOnly }
func (f *bytesFile) Truncate(int64) error      { return errReadOnly }
func (f *bytesFile) Lock() error               { return nil }
func (f *bytesFile) Unlock() error             { return nil }
func (f *bytesFile) Close() error              { return nil }

// writeFile implements billy.File with buffered writes and
// commit-on-Close. NFS WRITE RPCs arrive as individual writes; the
// full buffer is stored in one workspace call at close time.
type writeFile struct {
	path    string
	buf     []byte
	pos     int64
	written bool // true only once Write has been called, not on Truncate
	onClose commitFunc
}

func (f *writeFile) Name() string { return f.path }

func (f *writeFile) Read(p []byte) (int, error) {
	if f.pos >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[f.pos:])
	f.pos += int64(n)
	if f.pos >= int64(len(f.buf)) {
		return n, io.EOF
	}
	return n, nil
}

func (f *writeFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *writeFile) Write(p []byte) (int, error) {
	end := f.pos + int64(len(p))
	if end > int64(len(f.buf)) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	n := copy(f.buf[f.pos:], p)
	f.pos += int64(n)
	f.written = true
	return n, nil
}

func (f *writeFile) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.pos + offset
	case io.SeekEnd:
		newPos = int64(len(f.buf)) + offset
	}
	if newPos < 0 {
		newPos = 0
	}
	f.pos = newPos
	return f.pos, nil
}

func (f *writeFile) Truncate(size int64) error {
	if size < int64(len(f.buf)) {
		f.buf = f.buf[:size]
	} else if size > int64(len(f.buf)) {
		grown := make([]byte, size)
		copy(grown, f.buf)
		f.buf = grown
	}
	// Truncate alone does not mark the file written. NFS SETATTR(size=0)
	// causes a Truncate+Close cycle before WRITE; committing on
	// truncate-only would wipe the stored content.
	return nil
}

// Close is the commit point. Only commit if Write was actually called.
func (f *writeFile) Close() error {
	if !f.written || f.onClose == nil {
		return nil
	}
	if err := f.onClose(f.path, f.buf); err != nil {
		return fmt.Errorf("commit %s: %w", f.path, err)
	}
	return nil
}

func (f *writeFile) Lock() error   { return nil }
func (f *writeFile) Unlock() error { return nil }

// Verify file types satisfy billy.File.
var (
	_ billy.File = (*bytesFile)(nil)
	_ billy.File = (*writeFile)(nil)
)
