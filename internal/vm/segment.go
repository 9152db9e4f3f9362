package vm

// segment.go defines segments of the guest address space and their backing
// storage.

import (
	"errors"
	"fmt"
)

// SegFlags describes the protection attributes of a Segment.
type SegFlags uint8

// Protection flags. A segment may combine any of these.
const (
	Executable SegFlags = 1 << iota
	Mutable
	Kernel
)

func (f SegFlags) String() string {
	s := ""
	if f&Executable != 0 {
		s += "X"
	}

	if f&Mutable != 0 {
		s += "W"
	}

	if f&Kernel != 0 {
		s += "K"
	}

	if s == "" {
		s = "-"
	}

	return s
}

// store is the byte-addressable backing of a Segment.
type store interface {
	// Len returns the number of bytes currently backed.
	Len() uint32

	// read copies size bytes starting at off into dst.
	read(off uint32, dst []byte)

	// write copies src into the segment starting at off.
	write(off uint32, src []byte)
}

// denseStore backs segments whose entire extent is known up front and is
// fully resident, e.g. the segments loaded directly from a program's object
// blobs.
type denseStore struct {
	bytes []byte
}

func (d *denseStore) Len() uint32 { return uint32(len(d.bytes)) }

func (d *denseStore) read(off uint32, dst []byte) {
	copy(dst, d.bytes[off:])
}

func (d *denseStore) write(off uint32, src []byte) {
	copy(d.bytes[off:], src)
}

// pagedStore backs segments that span a very large logical range but are
// sparsely touched, e.g. the heap and stack. Pages are allocated lazily on
// first write and read as zero before that.
type pagedStore struct {
	pageSize uint32
	length   uint32 // logical length; grows via grow(), never shrinks.
	pages    map[uint32][]byte
}

const defaultPageSize = 4096

func newPagedStore() *pagedStore {
	return &pagedStore{pageSize: defaultPageSize, pages: make(map[uint32][]byte)}
}

func (p *pagedStore) Len() uint32 { return p.length }

// grow extends the logical length of the store by n bytes, never shrinking
// it. It does not allocate page storage; pages are materialized lazily.
func (p *pagedStore) grow(n uint32) {
	p.length += n
}

func (p *pagedStore) read(off uint32, dst []byte) {
	for i := range dst {
		addr := off + uint32(i)
		page := addr / p.pageSize
		idx := addr % p.pageSize

		if b, ok := p.pages[page]; ok {
			dst[i] = b[idx]
		} else {
			dst[i] = 0
		}
	}
}

func (p *pagedStore) write(off uint32, src []byte) {
	for i, b := range src {
		addr := off + uint32(i)
		page := addr / p.pageSize
		idx := addr % p.pageSize

		buf, ok := p.pages[page]
		if !ok {
			buf = make([]byte, p.pageSize)
			p.pages[page] = buf
		}

		buf[idx] = b
	}
}

// Segment is a contiguous, fixed-base region of the guest address space.
type Segment struct {
	Name  string
	Base  Word
	Flags SegFlags
	store store
}

// Len returns the segment's current length in bytes.
func (s *Segment) Len() uint32 { return s.store.Len() }

// InRange reports whether addr falls within the segment's current extent.
func (s *Segment) InRange(addr Word) bool {
	end := s.Base + Word(s.Len())

	return addr >= s.Base && addr < end
}

// Contains reports whether the half-open byte range [addr, addr+size) lies
// entirely within the segment, without address-space wraparound.
func (s *Segment) Contains(addr Word, size uint32) bool {
	end := s.Base + Word(s.Len())

	if addr < s.Base || addr >= end {
		return false
	}

	// Detect address-space wraparound in addr+size before comparing.
	if uint64(addr)+uint64(size) < uint64(addr) {
		return false
	}

	return uint64(addr)+uint64(size) <= uint64(end)
}

func (s *Segment) readAt(addr Word, dst []byte) {
	s.store.read(uint32(addr-s.Base), dst)
}

func (s *Segment) writeAt(addr Word, src []byte) {
	s.store.write(uint32(addr-s.Base), src)
}

func newDenseSegment(name string, base Word, flags SegFlags, body []byte) *Segment {
	buf := make([]byte, len(body))
	copy(buf, body)

	return &Segment{Name: name, Base: base, Flags: flags, store: &denseStore{bytes: buf}}
}

func newPagedSegment(name string, base Word, flags SegFlags) *Segment {
	return &Segment{Name: name, Base: base, Flags: flags, store: newPagedStore()}
}

var (
	// ErrSegment is the sentinel wrapped by all segment-lookup errors.
	ErrSegment = errors.New("segment")

	// ErrProtection is returned when an access violates a segment's
	// protection flags (e.g. a store to a non-MUTABLE segment).
	ErrProtection = fmt.Errorf("%w: protection violation", ErrSegment)

	// ErrBounds is returned when an access is not fully contained within a
	// single segment.
	ErrBounds = fmt.Errorf("%w: out of bounds", ErrSegment)
)
