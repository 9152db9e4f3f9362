package vm

// files.go implements the guest-visible file-handle table. Integer handles
// map to host streams; 0/1/2 are reserved aliases for stdin/stdout/stderr
// and must never be closed, per spec.md §5 and the flag/mode mapping from
// original_source/MIPS-VM/file_io.{h,cpp} (SPEC_FULL.md §12).

import "os"

// Guest-visible open-mode flags accepted by the open_file syscall.
const (
	OpenRead   = 0
	OpenWrite  = 1
	OpenAppend = 9
)

// FileTable owns every guest-opened host file handle.
type FileTable struct {
	files map[int32]*os.File
	next  int32
}

// NewFileTable creates a table with the three standard streams reserved at
// 0/1/2.
func NewFileTable() *FileTable {
	return &FileTable{
		files: map[int32]*os.File{
			0: os.Stdin,
			1: os.Stdout,
			2: os.Stderr,
		},
		next: 3,
	}
}

// Open opens name with the given guest flag (OpenRead/OpenWrite/OpenAppend)
// and returns a new descriptor, or -1 on failure.
func (ft *FileTable) Open(name string, flag int32, _ int32) int32 {
	var (
		f   *os.File
		err error
	)

	switch flag {
	case OpenRead:
		f, err = os.Open(name)
	case OpenWrite:
		f, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	case OpenAppend:
		f, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	default:
		return -1
	}

	if err != nil {
		return -1
	}

	fd := ft.next
	ft.next++
	ft.files[fd] = f

	return fd
}

// Get returns the host file for a descriptor, or nil if it is not open.
func (ft *FileTable) Get(fd int32) *os.File {
	return ft.files[fd]
}

// Close closes a descriptor. Closing 0/1/2 is a no-op, matching the
// original's refusal to close standard streams.
func (ft *FileTable) Close(fd int32) bool {
	if fd >= 0 && fd <= 2 {
		return true
	}

	f, ok := ft.files[fd]
	if !ok {
		return false
	}

	delete(ft.files, fd)

	return f.Close() == nil
}

// CloseAll closes every guest-owned handle, leaving 0/1/2 alone. Called on
// teardown.
func (ft *FileTable) CloseAll() {
	for fd, f := range ft.files {
		if fd > 2 {
			_ = f.Close()
			delete(ft.files, fd)
		}
	}
}
