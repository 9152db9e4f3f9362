package vm

// mem.go implements the memory resolver and the load/store primitives used
// by the instruction dispatcher and the syscall layer.

import (
	"encoding/binary"
)

// safeAccess reports whether the half-open byte range [addr, addr+size) is
// fully contained within seg, including the "addr+size does not wrap past
// seg end" check. Used by every load/store and every syscall taking a guest
// pointer.
func safeAccess(seg *Segment, addr Word, size uint32) bool {
	if seg == nil {
		return false
	}

	return seg.Contains(addr, size)
}

// LoadByte reads one byte at addr. ok is false if addr does not resolve or
// the access is out of bounds.
func (m *Machine) LoadByte(addr Word) (byte, bool) {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, 1) {
		return 0, false
	}

	var buf [1]byte
	seg.readAt(addr, buf[:])

	return buf[0], true
}

// LoadHalf reads a 16-bit little-endian half-word at addr.
func (m *Machine) LoadHalf(addr Word) (uint16, bool) {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, 2) {
		return 0, false
	}

	var buf [2]byte
	seg.readAt(addr, buf[:])

	return binary.LittleEndian.Uint16(buf[:]), true
}

// LoadWord reads a 32-bit little-endian word at addr.
func (m *Machine) LoadWord(addr Word) (Word, bool) {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, 4) {
		return 0, false
	}

	var buf [4]byte
	seg.readAt(addr, buf[:])

	return Word(binary.LittleEndian.Uint32(buf[:])), true
}

// StoreByte writes one byte at addr. The containing segment must be
// Mutable.
func (m *Machine) StoreByte(addr Word, v byte) bool {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, 1) || seg.Flags&Mutable == 0 {
		return false
	}

	seg.writeAt(addr, []byte{v})

	return true
}

// StoreHalf writes a 16-bit little-endian half-word at addr.
func (m *Machine) StoreHalf(addr Word, v uint16) bool {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, 2) || seg.Flags&Mutable == 0 {
		return false
	}

	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	seg.writeAt(addr, buf[:])

	return true
}

// StoreWord writes a 32-bit little-endian word at addr.
func (m *Machine) StoreWord(addr Word, v Word) bool {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, 4) || seg.Flags&Mutable == 0 {
		return false
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	seg.writeAt(addr, buf[:])

	return true
}

// readCString reads a NUL-terminated string starting at addr. ok is false if
// the pointer is bad or no NUL is found before the segment's end.
func (m *Machine) readCString(addr Word) (string, bool) {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if seg == nil || !seg.InRange(addr) {
		return "", false
	}

	buf := make([]byte, 0, 32)
	cur := addr

	for seg.InRange(cur) {
		b, ok := m.LoadByte(cur)
		if !ok {
			return "", false
		}

		if b == 0 {
			return string(buf), true
		}

		buf = append(buf, b)
		cur++
	}

	return "", false
}

// writeBytes writes the given bytes starting at addr, requiring the entire
// range to be safe-accessible in a Mutable segment.
func (m *Machine) writeBytes(addr Word, data []byte) bool {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, uint32(len(data))) || seg.Flags&Mutable == 0 {
		return false
	}

	seg.writeAt(addr, data)

	return true
}

// readBytes reads n bytes starting at addr, requiring the entire range to be
// safe-accessible.
func (m *Machine) readBytes(addr Word, n uint32) ([]byte, bool) {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, n) {
		return nil, false
	}

	buf := make([]byte, n)
	seg.readAt(addr, buf)

	return buf, true
}
