package vm

// heap.go implements the sbrk-style bump allocator backing the heap
// segment.

import "fmt"

// Sbrk extends the heap segment by n bytes and returns the address of the
// old break (the start of the newly allocated region). The heap never
// shrinks. A negative n or a request that would exceed the heap's capacity
// is a fatal error, not a guest-catchable trap, per spec.md §4.3.
func (m *Machine) Sbrk(n int32) (Word, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: sbrk: negative size: %d", ErrFatal, n)
	}

	used := m.Segments.Heap.Len()
	if uint64(used)+uint64(n) > uint64(HeapCap) {
		return 0, fmt.Errorf("%w: sbrk: heap exhausted: used=%d want=%d cap=%d",
			ErrFatal, used, n, HeapCap)
	}

	old := m.Segments.Heap.Base + Word(used)
	m.Segments.Heap.store.(*pagedStore).grow(uint32(n))

	return old, nil
}
