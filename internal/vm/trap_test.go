package vm

import "testing"

// installHandler adds a .ktext segment at the exception vector so delivered
// exceptions find a guest handler.
func installHandler(m *Machine, words []uint32) {
	body := make([]byte, len(words)*4)
	for i, w := range words {
		b := body[i*4 : i*4+4]
		b[0], b[1], b[2], b[3] = byte(w), byte(w>>8), byte(w>>16), byte(w>>24)
	}

	seg := newDenseSegment(".ktext", ExceptionVector, Executable|Kernel, body)
	m.Segments.addFixed(seg, &m.Segments.KText)
	m.HasHandler = true
}

// Scenario 5: keyboard interrupt path. Enabling the MMIO control word and
// injecting a byte causes pc to land on the exception vector within 5
// ticks, with cause bit 8 set and epc pointing at the spinning
// instruction; a guest ERET resumes execution.
func TestKeyboardInterruptPath(t *testing.T) {
	m, host := newTestMachine(t)

	installHandler(m, []uint32{
		uint32(opCP0)<<26 | uint32(fnERET), // ERET
	})

	loadText(m, 0x00400000, []uint32{
		encodeI(0x04, 0, 0, 0xffff), // BEQ $0, $0, -1 (spins on itself)
	})

	if !m.StoreWord(MMIOBase+kbdControlOff, KeyboardEnable) {
		t.Fatal("failed to enable keyboard")
	}

	host.keys = []byte{'A'}

	var delivered bool

	for i := 0; i < 6; i++ {
		done, err := m.Step()
		if err != nil {
			t.Fatalf("step %d: %s", i, err)
		}

		if done {
			t.Fatalf("unexpected termination at step %d", i)
		}

		if m.PC == ExceptionVector {
			delivered = true
			break
		}
	}

	if !delivered {
		t.Fatal("exception vector not reached within 5 ticks")
	}

	if m.CP0.Cause&CauseInterruptPending == 0 {
		t.Errorf("cause: interrupt-pending bit not set: %s", m.CP0.Cause)
	}

	if m.CP0.EPC != 0x00400000 {
		t.Errorf("epc: got %s, want %s", m.CP0.EPC, Word(0x00400000))
	}

	if !m.KernelMode {
		t.Error("expected kernel mode after delivery")
	}

	if _, err := m.Step(); err != nil { // ERET
		t.Fatalf("eret: %s", err)
	}

	if m.KernelMode {
		t.Error("expected user mode after ERET")
	}

	if m.PC != m.CP0.EPC {
		// EPC hasn't changed since ERET read it before PC moved on.
		t.Errorf("pc after ERET: got %s, want epc %s", m.PC, m.CP0.EPC)
	}
}

// Scenario 6: a custom syscall registered via syscall #49 re-enters the
// guest at its registered address with a saved frame.
func TestCustomSyscallRegistration(t *testing.T) {
	m, _ := newTestMachine(t)

	loadText(m, 0x00400000, []uint32{
		encodeI(0x09, 0, 2, 49),            // ADDIU $v0, $0, 49  (register_syscall)
		encodeI(0x09, 0, 4, 100),           // ADDIU $a0, $0, 100 (code)
		encodeI(0x0f, 0, 5, 0x0040),        // LUI $a1, 0x0040    (handler addr hi)
		encodeI(0x0d, 5, 5, 0x0020),        // ORI $a1, $a1, 0x0020
		encodeR(0, 0, 0, 0, fnSYS),         // SYSCALL (register)
		encodeI(0x09, 0, 2, 100),           // ADDIU $v0, $0, 100 (custom code)
		encodeR(0, 0, 0, 0, fnSYS),         // SYSCALL (invoke custom)
	})

	for i := 0; i < 7; i++ {
		if _, err := m.Step(); err != nil {
			t.Fatalf("step %d: %s", i, err)
		}
	}

	if got, want := m.CustomSyscalls[100], Word(0x00400020); got != want {
		t.Fatalf("registered handler: got %s, want %s", got, want)
	}

	if m.PC != 0x00400020 {
		t.Fatalf("pc after custom syscall: got %s, want %s", m.PC, Word(0x00400020))
	}

	status, cause, epc, ok := m.Frames.Pop()
	if !ok {
		t.Fatal("expected a saved frame")
	}

	_ = status
	_ = cause

	if epc != 0x0040001c { // address of the instruction after the SYSCALL.
		t.Errorf("saved epc: got %s, want %s", epc, Word(0x0040001c))
	}
}
