package vm

// kbd.go implements the keyboard interrupt source: a two-word MMIO device
// at MMIOBase polled once per instruction step.

// MMIO word offsets, per spec.md §4.8.
const (
	kbdControlOff Word = 0
	kbdDataOff    Word = 4

	// KeyboardEnable is bit 1 of the control word.
	KeyboardEnable Word = 1 << 1
)

// pollKeyboard is called once after every instruction step. If the guest has
// enabled keyboard interrupts and the interpreter is in user mode and the
// tick count is a multiple of 5, it performs a non-blocking read from the
// host. A character read is written into the data word and an Interrupt
// exception is returned for the caller to deliver.
func (m *Machine) pollKeyboard() *Exception {
	control, _ := m.LoadWord(MMIOBase + kbdControlOff)
	enabled := control&KeyboardEnable != 0

	if enabled {
		_ = m.Host.EnableRaw()
		m.kbdRaw = true
	} else if !enabled && m.kbdRaw {
		_ = m.Host.EnableCooked()
		m.kbdRaw = false
	}

	if !enabled || m.KernelMode || m.Tick%5 != 0 {
		return nil
	}

	b, ok := m.Host.PollByte()
	if !ok {
		return nil
	}

	m.StoreWord(MMIOBase+kbdDataOff, Word(b))

	return newException(ExcInterrupt, "keyboard")
}
