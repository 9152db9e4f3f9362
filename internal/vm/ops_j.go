package vm

// ops_j.go implements the J-format jumps and the coprocessor-0/1 move
// instructions.

func jTarget(pc Word, ir Instruction) Word {
	return Word(ir.PseudoAddr()<<2) | ((pc + 4) & 0xf0000000)
}

func (m *Machine) execJ(ir Instruction) (bool, error) {
	m.PC = jTarget(m.PC, ir)
	return false, nil
}

func (m *Machine) execJAL(ir Instruction) (bool, error) {
	target := jTarget(m.PC, ir)
	m.setReg(uint8(RA), m.PC+4)
	m.PC = target

	return false, nil
}

func (m *Machine) execCP0Move(ir Instruction) (bool, error) {
	idx := CP0Index(ir.RD())
	if !idx.Valid() {
		return false, fatalf("invalid coprocessor-0 register index: %d", ir.RD())
	}

	switch ir.RS() {
	case 0: // move from c0 to gp
		m.setReg(ir.RT(), m.CP0.Get(idx))
	case 4: // move from gp to c0
		m.CP0.Set(idx, m.reg(ir.RT()))
	default:
		return false, fatalf("invalid MC0 operation: rs=%d", ir.RS())
	}

	return true, nil
}

func (m *Machine) execERET(ir Instruction) (bool, error) {
	m.PC = m.CP0.EPC
	m.KernelMode = false

	return false, nil
}

func (m *Machine) execCP1Move(ir Instruction) (bool, error) {
	switch ir.RS() {
	case 0: // move from f to gp
		m.setReg(ir.RT(), m.FP.RawSingle(ir.RD()))
	case 4: // move from gp to f
		m.FP.SetRawSingle(ir.RD(), m.reg(ir.RT()))
	default:
		return false, fatalf("invalid MC1 operation: rs=%d", ir.RS())
	}

	return true, nil
}
