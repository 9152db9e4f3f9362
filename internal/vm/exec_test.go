package vm

import (
	"errors"
	"testing"
)

// Scenario 1: ADDIU and SW/LW round-trip through a sbrk-obtained heap
// pointer.
func TestADDIUStoreLoadRoundTrip(t *testing.T) {
	m, _ := newTestMachine(t)

	heapAddr, err := m.Sbrk(4)
	if err != nil {
		t.Fatalf("sbrk: %s", err)
	}

	words := []uint32{
		0x24020005,                                  // ADDIU $v0, $0, 5
		encodeI(0x0f, 0, 3, uint16(heapAddr>>16)),    // LUI $v1, heapAddr[31:16]
		encodeI(0x0d, 3, 3, uint16(heapAddr&0xffff)), // ORI $v1, $v1, heapAddr[15:0]
		encodeI(0x2b, 3, 2, 0),                       // SW $v0, 0($v1)
		encodeI(0x23, 3, 8, 0),                       // LW $t0, 0($v1)
	}
	loadText(m, 0x00400000, words)

	for i := 0; i < len(words); i++ {
		if _, err := m.Step(); err != nil {
			t.Fatalf("step %d: %s", i, err)
		}
	}

	if got := m.reg(8); got != 5 {
		t.Errorf("LW result: got %d, want 5", got)
	}
}

// encodeI builds an I-format word.
func encodeI(op, rs, rt uint8, imm uint16) uint32 {
	return uint32(op)<<26 | uint32(rs)<<21 | uint32(rt)<<16 | uint32(imm)
}

// encodeR builds an R-format word.
func encodeR(rs, rt, rd, shift, funct uint8) uint32 {
	return uint32(rs)<<21 | uint32(rt)<<16 | uint32(rd)<<11 | uint32(shift)<<6 | uint32(funct)
}

// Scenario 2: signed overflow on ADDI.
func TestADDIOverflow(t *testing.T) {
	m, _ := newTestMachine(t)

	words := []uint32{
		encodeI(0x0f, 0, 8, 0x7fff),     // LUI $t0, 0x7FFF
		encodeI(0x0d, 8, 8, 0xffff),     // ORI $t0, $t0, 0xFFFF
		encodeI(0x08, 8, 8, 1),          // ADDI $t0, $t0, 1
	}
	loadText(m, 0x00400000, words)

	if _, err := m.Step(); err != nil {
		t.Fatalf("LUI: %s", err)
	}

	if _, err := m.Step(); err != nil {
		t.Fatalf("ORI: %s", err)
	}

	if got := m.reg(8); got != 0x7fffffff {
		t.Fatalf("pre-overflow value: got %#x, want 0x7fffffff", got)
	}

	_, err := m.Step()
	if err == nil {
		t.Fatal("expected ArithmeticOverflow, got nil")
	}

	var exc *Exception
	if !isException(err, &exc) || exc.Kind != ExcArithmeticOverflow {
		t.Fatalf("expected ArithmeticOverflow, got %v", err)
	}
}

// Scenario 3: divide by zero.
func TestDivideByZero(t *testing.T) {
	m, _ := newTestMachine(t)

	words := []uint32{
		encodeI(0x09, 0, 9, 0),             // ADDIU $t1, $0, 0
		encodeR(8, 9, 0, 0, fnDIV),         // DIV $t0, $t1  (rs=$t0, rt=$t1)
	}
	loadText(m, 0x00400000, words)

	if _, err := m.Step(); err != nil {
		t.Fatalf("ADDIU: %s", err)
	}

	_, err := m.Step()

	var exc *Exception
	if !isException(err, &exc) || exc.Kind != ExcDivideByZero {
		t.Fatalf("expected DivideByZero, got %v", err)
	}
}

// Scenario 4: JAL/JR round-trips to the instruction after JAL.
func TestJALJRReturn(t *testing.T) {
	m, _ := newTestMachine(t)

	const base = Word(0x00400000)

	words := []uint32{
		jEncode(0x03, 0x00400010), // JAL 0x00400010, addr 0x00400000
		encodeR(0, 0, 0, 0, 0),    // unreached without delay-slot emulation, addr 0x00400004
		0,                         // filler, addr 0x00400008
		0,                         // filler, addr 0x0040000c
		encodeR(31, 0, 0, 0, fnJR), // JR $ra, addr 0x00400010
	}
	loadText(m, base, words)

	if _, err := m.Step(); err != nil { // JAL
		t.Fatalf("JAL: %s", err)
	}

	if m.reg(uint8(RA)) != base+4 {
		t.Fatalf("$ra: got %s, want %s", m.reg(uint8(RA)), base+4)
	}

	if m.PC != base+0x10 {
		t.Fatalf("pc after JAL: got %s, want %s", m.PC, base+0x10)
	}

	if _, err := m.Step(); err != nil { // JR $ra
		t.Fatalf("JR: %s", err)
	}

	if m.PC != base+4 {
		t.Fatalf("pc after JR: got %s, want %s", m.PC, base+4)
	}
}

func jEncode(op uint8, target Word) uint32 {
	return uint32(op)<<26 | (uint32(target>>2) & 0x03ffffff)
}

// isException unwraps err into an *Exception.
func isException(err error, target **Exception) bool {
	return errors.As(err, target)
}

// R0 is observably always zero even if an instruction targets it.
func TestR0AlwaysZero(t *testing.T) {
	m, _ := newTestMachine(t)

	loadText(m, 0x00400000, []uint32{
		encodeI(0x09, 0, 0, 42), // ADDIU $0, $0, 42
	})

	if _, err := m.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if m.reg(0) != 0 {
		t.Fatalf("regs[0]: got %d, want 0", m.reg(0))
	}
}

// StoreByte/LoadByte round-trip of 0xff; the byte read back is -1 when
// taken as int8.
func TestStoreByteLoadRoundTrip(t *testing.T) {
	m, _ := newTestMachine(t)

	heapAddr, err := m.Sbrk(4)
	if err != nil {
		t.Fatalf("sbrk: %s", err)
	}

	if !m.StoreByte(heapAddr, 0xff) {
		t.Fatal("SB failed")
	}

	b, ok := m.LoadByte(heapAddr)
	if !ok || b != 0xff {
		t.Fatalf("LBU: got %d, ok=%v", b, ok)
	}

	v, ok := m.LoadByte(heapAddr)
	if !ok {
		t.Fatal("LB failed")
	}

	if int8(v) != -1 {
		t.Fatalf("LB sign extension: got %d, want -1", int8(v))
	}
}

// LUI + ORI combination yields the expected 32-bit value.
func TestLUIOriCombination(t *testing.T) {
	m, _ := newTestMachine(t)

	loadText(m, 0x00400000, []uint32{
		encodeI(0x0f, 0, 8, 0x1234), // LUI $t0, 0x1234
		encodeI(0x0d, 8, 8, 0x5678), // ORI $t0, $t0, 0x5678
	})

	if _, err := m.Step(); err != nil {
		t.Fatalf("LUI: %s", err)
	}

	if _, err := m.Step(); err != nil {
		t.Fatalf("ORI: %s", err)
	}

	if got := m.reg(8); got != 0x12345678 {
		t.Fatalf("got %#x, want 0x12345678", got)
	}
}

// Branch displacement: BEQ with imm=0xFFFF (== -1) moves pc backward by 4
// bytes relative to pc+4, i.e. pc = pc.
func TestBranchDisplacementArithmetic(t *testing.T) {
	m, _ := newTestMachine(t)

	const base = Word(0x00400000)

	loadText(m, base, []uint32{
		encodeI(0x04, 0, 0, 0xffff), // BEQ $0, $0, -1
	})

	if _, err := m.Step(); err != nil {
		t.Fatalf("BEQ: %s", err)
	}

	if m.PC != base {
		t.Fatalf("pc after branch: got %s, want %s (pc = pc)", m.PC, base)
	}
}

// Dropping off the bottom of .text is a normal termination.
func TestDropOffBottom(t *testing.T) {
	m, _ := newTestMachine(t)

	loadText(m, 0x00400000, []uint32{
		encodeR(0, 0, 0, 0, 0), // SLL $0,$0,0 (NOP)
	})

	done, err := m.Step()
	if err != nil {
		t.Fatalf("step: %s", err)
	}

	if !done {
		t.Fatal("expected drop-off termination")
	}
}

// pc = 0xFFFFFFFF resolves to no segment and traps as an invalid fetch.
func TestInvalidFetchTraps(t *testing.T) {
	m, _ := newTestMachine(t)
	m.PC = 0xffffffff

	_, err := m.Step()
	if err == nil {
		t.Fatal("expected fatal error for invalid pc")
	}
}

// A load that straddles the end of a segment fails even by one byte.
func TestStraddlingAccessFails(t *testing.T) {
	m, _ := newTestMachine(t)

	seg := newDenseSegment(".data", 0x10010000, Mutable, make([]byte, 4))
	m.Segments.addFixed(seg, &m.Segments.Data)

	if _, ok := m.LoadWord(0x10010001); ok {
		t.Fatal("expected straddling load to fail")
	}

	if _, ok := m.LoadByte(0x10010003); !ok {
		t.Fatal("expected in-bounds byte load to succeed")
	}
}
