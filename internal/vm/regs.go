package vm

// regs.go defines the register file: the 32 general-purpose registers, the
// special-purpose pc/hi/lo, the floating-point bank, and the coprocessor-0
// registers.

import (
	"fmt"
	"math"
	"strings"

	"github.com/Flawww/MIPS-VM/internal/log"
)

// GPR is the index of a general-purpose register.
type GPR uint8

// Conventional general-purpose register names.
const (
	R0 GPR = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	R16
	R17
	R18
	R19
	R20
	R21
	R22
	R23
	R24
	R25
	R26
	R27
	R28
	R29
	R30
	R31

	NumGPR

	ZERO = R0
	AT   = R1
	V0   = R2
	V1   = R3
	A0   = R4
	A1   = R5
	A2   = R6
	A3   = R7
	SP   = R29
	FP   = R30
	RA   = R31
)

// RegisterFile is the set of 32 general-purpose registers. R0 is
// observably always zero: it is reset after every instruction completes by
// the run loop, erasing any write made to it.
type RegisterFile [NumGPR]Word

func (rf RegisterFile) String() string {
	var b strings.Builder

	for i := 0; i < len(rf); i += 2 {
		fmt.Fprintf(&b, "R%-2d: %s  R%-2d: %s\n", i, rf[i], i+1, rf[i+1])
	}

	return b.String()
}

func (rf RegisterFile) LogValue() log.Value {
	attrs := make([]log.Attr, len(rf))
	for i := range rf {
		attrs[i] = log.String(fmt.Sprintf("R%d", i), rf[i].String())
	}

	return log.GroupValue(attrs...)
}

// FPBank is the floating-point register bank: 32 single-precision slots
// aliased in pairs as 16 double-precision slots through the same storage,
// matching the original's `float f[32]; double *d = (double*)f;` layout —
// reimplemented here with explicit bit-reinterpretation since Go has no
// union aliasing.
type FPBank [32]uint32

// Single returns the single-precision value held at slot n.
func (fp FPBank) Single(n uint8) float32 {
	return math.Float32frombits(fp[n])
}

// SetSingle stores a single-precision value at slot n.
func (fp *FPBank) SetSingle(n uint8, v float32) {
	fp[n] = math.Float32bits(v)
}

// Double returns the double-precision value aliased at pair (2n, 2n+1).
func (fp FPBank) Double(n uint8) float64 {
	lo := uint64(fp[2*n])
	hi := uint64(fp[2*n+1])

	return math.Float64frombits(hi<<32 | lo)
}

// SetDouble stores a double-precision value at pair (2n, 2n+1).
func (fp *FPBank) SetDouble(n uint8, v float64) {
	bits := math.Float64bits(v)
	fp[2*n] = uint32(bits)
	fp[2*n+1] = uint32(bits >> 32)
}

// RawSingle returns the raw bit pattern at slot n, for GP<->FP register
// moves (MFC1/MTC1).
func (fp FPBank) RawSingle(n uint8) Word { return Word(fp[n]) }

// SetRawSingle stores a raw bit pattern at slot n.
func (fp *FPBank) SetRawSingle(n uint8, v Word) { fp[n] = uint32(v) }

// CP0Index identifies one of the four addressable coprocessor-0 registers.
type CP0Index uint8

// Addressable coprocessor-0 register indices.
const (
	CP0VAddr  CP0Index = 8
	CP0Status CP0Index = 12
	CP0Cause  CP0Index = 13
	CP0EPC    CP0Index = 14
)

// Valid reports whether idx names an addressable coprocessor-0 register.
func (idx CP0Index) Valid() bool {
	switch idx {
	case CP0VAddr, CP0Status, CP0Cause, CP0EPC:
		return true
	default:
		return false
	}
}

// CP0 holds the coprocessor-0 registers consulted by the trap controller.
type CP0 struct {
	VAddr  Word
	Status Word
	Cause  Word
	EPC    Word
}

// Get reads a coprocessor-0 register by index. idx must be Valid.
func (c *CP0) Get(idx CP0Index) Word {
	switch idx {
	case CP0VAddr:
		return c.VAddr
	case CP0Status:
		return c.Status
	case CP0Cause:
		return c.Cause
	case CP0EPC:
		return c.EPC
	default:
		panic(fmt.Sprintf("regs: invalid coprocessor-0 index: %d", idx))
	}
}

// Set writes a coprocessor-0 register by index. idx must be Valid.
func (c *CP0) Set(idx CP0Index, v Word) {
	switch idx {
	case CP0VAddr:
		c.VAddr = v
	case CP0Status:
		c.Status = v
	case CP0Cause:
		c.Cause = v
	case CP0EPC:
		c.EPC = v
	default:
		panic(fmt.Sprintf("regs: invalid coprocessor-0 index: %d", idx))
	}
}

// Status bits within CP0.Status consulted by the trap controller.
const (
	StatusExceptionLevel Word = 1 << 1 // EXL: set on exception entry; ERET leaves Status unchanged.
)

// Cause bits within CP0.Cause.
const (
	CauseInterruptPending Word = 1 << 8
)
