package vm

// syscall.go implements the numbered environment services ("syscalls")
// dispatched by regs[v0], per spec.md §4.7.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Syscall numbers.
const (
	sysPrintInt      = 1
	sysPrintFloat    = 2
	sysPrintDouble   = 3
	sysPrintString   = 4
	sysReadInt       = 5
	sysReadFloat     = 6
	sysReadDouble    = 7
	sysReadString    = 8
	sysSbrk          = 9
	sysExit          = 10
	sysPrintChar     = 11
	sysReadChar      = 12
	sysOpenFile      = 13
	sysReadFile      = 14
	sysWriteFile     = 15
	sysCloseFile     = 16
	sysExit2         = 17
	sysTime          = 30
	sysSleep         = 32
	sysPrintHex      = 34
	sysPrintBinary   = 35
	sysPrintUnsigned = 36
	sysSetSeed       = 40
	sysRandInt       = 41
	sysRandIntRange  = 42
	sysRandFloat     = 43
	sysRandDouble    = 44
	sysRegisterTrap  = 49
)

// stdin returns the buffered reader over the host stream, creating it on
// first use.
func (m *Machine) stdin() *bufio.Reader {
	if m.stdinBuf == nil {
		m.stdinBuf = bufio.NewReader(m.Host)
	}

	return m.stdinBuf
}

func (m *Machine) print(s string) {
	_, _ = fmt.Fprint(m.Host, s)
}

// execSyscall dispatches regs[v0]. Custom-registered codes re-enter the
// guest at their registered address with a saved frame; unregistered,
// unknown codes raise a Syscall exception.
func (m *Machine) execSyscall(ir Instruction) (bool, error) {
	v0 := uint32(m.reg(uint8(V0)))
	a0 := m.reg(uint8(A0))
	a1 := m.reg(uint8(A1))
	a2 := m.reg(uint8(A2))

	switch v0 {
	case sysPrintInt:
		m.print(strconv.FormatInt(int64(int32(a0)), 10))
	case sysPrintFloat:
		m.print(strconv.FormatFloat(float64(m.FP.Single(12)), 'g', -1, 32))
	case sysPrintDouble:
		m.print(strconv.FormatFloat(m.FP.Double(6), 'g', -1, 64))
	case sysPrintString:
		s, ok := m.readCString(a0)
		if !ok {
			return false, newMemException(ExcLoadAddress, a0, "print_string")
		}

		m.print(s)
	case sysReadInt:
		tok, err := m.readToken()
		if err != nil {
			return false, err
		}

		n, _ := strconv.ParseInt(tok, 10, 32)
		m.setReg(uint8(V0), Word(uint32(int32(n))))
	case sysReadFloat:
		tok, err := m.readToken()
		if err != nil {
			return false, err
		}

		f, _ := strconv.ParseFloat(tok, 32)
		m.FP.SetSingle(0, float32(f))
	case sysReadDouble:
		tok, err := m.readToken()
		if err != nil {
			return false, err
		}

		// Full double-precision parsing, per spec.md §9 (the original
		// reads a single into the double slot; this does not mirror
		// that bug).
		f, _ := strconv.ParseFloat(tok, 64)
		m.FP.SetDouble(0, f)
	case sysReadString:
		if err := m.sysReadString(a0, a1); err != nil {
			return false, err
		}
	case sysSbrk:
		addr, err := m.Sbrk(int32(a0))
		if err != nil {
			return false, err
		}

		m.setReg(uint8(V0), addr)
	case sysExit:
		return false, &Exit{Reason: "exit"}
	case sysPrintChar:
		m.print(string(rune(byte(a0))))
	case sysReadChar:
		_ = m.Host.EnableCooked()

		b, err := m.stdin().ReadByte()
		if err != nil {
			return false, fatalf("read_char: %s", err)
		}

		m.setReg(uint8(V0), Word(b))
	case sysOpenFile:
		name, ok := m.readCString(a0)
		if !ok {
			return false, newMemException(ExcLoadAddress, a0, "open_file")
		}

		fd := m.Files.Open(name, int32(a1), int32(a2))
		m.setReg(uint8(V0), Word(uint32(fd)))
	case sysReadFile:
		n, err := m.sysReadFile(int32(a0), a1, a2)
		if err != nil {
			return false, err
		}

		m.setReg(uint8(V0), Word(uint32(n)))
	case sysWriteFile:
		n, err := m.sysWriteFile(int32(a0), a1, a2)
		if err != nil {
			return false, err
		}

		m.setReg(uint8(V0), Word(uint32(n)))
	case sysCloseFile:
		m.Files.Close(int32(a0))
	case sysExit2:
		return false, &Exit{Status: int32(a0), HasCode: true, Reason: "exit2"}
	case sysTime:
		ms := time.Now().UnixMilli()
		m.setReg(uint8(A0), Word(uint32(ms)))
		m.setReg(uint8(A1), Word(uint32(ms>>32)))
	case sysSleep:
		time.Sleep(time.Duration(a0) * time.Millisecond)
	case sysPrintHex:
		m.print(fmt.Sprintf("%08x", uint32(a0)))
	case sysPrintBinary:
		m.print(fmt.Sprintf("%032b", uint32(a0)))
	case sysPrintUnsigned:
		m.print(strconv.FormatUint(uint64(uint32(a0)), 10))
	case sysSetSeed:
		m.RNG.SetSeed(uint32(a0), int64(int32(a1)))
	case sysRandInt:
		m.setReg(uint8(V0), Word(uint32(m.RNG.Int(uint32(a0)))))
	case sysRandIntRange:
		m.setReg(uint8(V0), Word(uint32(m.RNG.IntRange(uint32(a0), int32(a1)))))
	case sysRandFloat:
		m.FP.SetSingle(0, m.RNG.Float32(uint32(a0)))
	case sysRandDouble:
		m.FP.SetDouble(0, m.RNG.Float64(uint32(a0)))
	case sysRegisterTrap:
		m.CustomSyscalls[uint32(a0)] = a1
	default:
		if addr, ok := m.CustomSyscalls[v0]; ok {
			m.Frames.Push(m.CP0.Status, m.CP0.Cause, m.PC+4)
			m.PC = addr

			return false, nil
		}

		return false, newException(ExcSyscall, fmt.Sprintf("unregistered syscall: %d", v0))
	}

	return true, nil
}

// readToken reads one whitespace/newline-delimited token from the host,
// switching the terminal to line-buffered mode first.
func (m *Machine) readToken() (string, error) {
	_ = m.Host.EnableCooked()

	var b strings.Builder

	r := m.stdin()

	// Skip leading whitespace.
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", fatalf("read: %s", err)
		}

		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			_ = r.UnreadByte()
			break
		}
	}

	for {
		c, err := r.ReadByte()
		if err != nil {
			break
		}

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}

		b.WriteByte(c)
	}

	return b.String(), nil
}

// sysReadString implements syscall 8: read one line into the guest buffer
// at addr, truncated to max-1 bytes with a trailing newline appended if
// space remains, NUL-terminated.
func (m *Machine) sysReadString(addr, max Word) error {
	seg := m.Segments.Resolve(addr, m.KernelMode)
	if !safeAccess(seg, addr, uint32(max)) || seg.Flags&Mutable == 0 {
		return newMemException(ExcStoreAddress, addr, "read_string")
	}

	if max == 0 {
		return nil
	}

	_ = m.Host.EnableCooked()

	line, err := m.stdin().ReadString('\n')
	if err != nil && line == "" {
		line = ""
	}

	line = strings.TrimRight(line, "\r\n")

	limit := int(max) - 1
	if len(line) > limit {
		line = line[:limit]
	}

	buf := make([]byte, 0, max)
	buf = append(buf, line...)

	if len(buf) < int(max)-1 {
		buf = append(buf, '\n')
	}

	buf = append(buf, 0)

	return boolToMemErr(m.writeBytes(addr, buf), addr, ExcStoreAddress, "read_string")
}

func boolToMemErr(ok bool, addr Word, kind ExceptionKind, name string) error {
	if ok {
		return nil
	}

	return newMemException(kind, addr, name)
}

// sysReadFile mirrors the original's read_file: a short read returns 0 on a
// clean EOF and -1 on any other error, discarding the exact partial count in
// both cases (file_io.cpp's read_file: `read_bytes != max_chars` collapses
// to feof(f) ? 0 : -1). Whatever partial bytes were read are still written
// into guest memory, matching the original writing directly into the
// guest's buffer via fread.
func (m *Machine) sysReadFile(fd int32, buf, n Word) (int, error) {
	f := m.Files.Get(fd)
	if f == nil {
		return -1, nil
	}

	dst := make([]byte, n)

	seg := m.Segments.Resolve(buf, m.KernelMode)
	if !safeAccess(seg, buf, uint32(n)) || seg.Flags&Mutable == 0 {
		return 0, newMemException(ExcStoreAddress, buf, "read_file")
	}

	cnt, err := io.ReadFull(f, dst)
	if cnt > 0 {
		m.writeBytes(buf, dst[:cnt])
	}

	switch {
	case err == nil:
		return cnt, nil
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return 0, nil
	default:
		return -1, nil
	}
}

func (m *Machine) sysWriteFile(fd int32, buf, n Word) (int, error) {
	f := m.Files.Get(fd)
	if f == nil {
		return -1, nil
	}

	data, ok := m.readBytes(buf, uint32(n))
	if !ok {
		return 0, newMemException(ExcLoadAddress, buf, "write_file")
	}

	cnt, err := f.Write(data)
	if err != nil {
		return cnt, nil
	}

	return cnt, nil
}
