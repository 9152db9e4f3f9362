package vm

// machine.go assembles the interpreter from its smaller parts; the
// instruction cycle and its termination conditions are in exec.go.

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Flawww/MIPS-VM/internal/log"
)

// HostIO is the machine's contract with the host terminal: line-buffered
// reads for the read_* syscalls, a non-blocking single-byte poll for the
// keyboard device, and raw/cooked mode toggling. Implemented by
// internal/tty.Console; accepted here as an interface so this package has
// no platform dependency.
type HostIO interface {
	io.Reader
	io.Writer

	// PollByte performs a non-blocking read of at most one byte. ok is
	// false if nothing was available.
	PollByte() (b byte, ok bool)

	// EnableRaw and EnableCooked toggle the host terminal mode.
	EnableRaw() error
	EnableCooked() error
}

// Machine is the MIPS-family interpreter: register file, segment table,
// trap state, and the small set of synthetic environment services.
type Machine struct {
	Regs RegisterFile
	PC   Word
	HI   Word
	LO   Word
	FP   FPBank
	CP0  CP0

	KernelMode bool
	HasHandler bool // true if .ktext resolves the exception vector.

	Segments *SegmentTable
	Frames   FrameStack

	// CustomSyscalls maps a user-registered syscall code to the guest
	// address of its handler, per spec.md §4.7 #49.
	CustomSyscalls map[uint32]Word

	Files *FileTable
	RNG   *RNGRegistry
	Host  HostIO

	stdinBuf *bufio.Reader // lazily created buffered view over Host for read_* syscalls.

	kbdRaw bool // true while keyboard interrupts are enabled; each poll puts the host back in raw mode.

	Tick uint64

	log *log.Logger
}

// New creates an interpreter with an empty segment table; the caller loads
// a program with Load before running it.
func New(host HostIO, logger *log.Logger) *Machine {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	m := &Machine{
		Segments:       NewSegmentTable(),
		CustomSyscalls: make(map[uint32]Word),
		Files:          NewFileTable(),
		RNG:            NewRNGRegistry(),
		Host:           host,
		log:            logger,
	}

	return m
}

func (m *Machine) String() string {
	return fmt.Sprintf(
		"PC: %s  HI: %s  LO: %s  KERNEL: %t\nCP0: vaddr=%s status=%s cause=%s epc=%s\n%s",
		m.PC, m.HI, m.LO, m.KernelMode,
		m.CP0.VAddr, m.CP0.Status, m.CP0.Cause, m.CP0.EPC,
		m.Regs,
	)
}

// reg reads a general-purpose register, always returning zero for R0.
func (m *Machine) reg(i uint8) Word {
	if i == 0 {
		return 0
	}

	return m.Regs[i]
}

// setReg writes a general-purpose register. Writes to R0 take effect only
// until the end of the instruction: the run loop resets R0 to zero after
// every step, per spec.md §3's "observably always zero" invariant.
func (m *Machine) setReg(i uint8, v Word) {
	m.Regs[i] = v
}
