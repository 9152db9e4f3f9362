package vm

// ops_i.go implements the I-format instructions: branches, immediate
// arithmetic, and loads/stores.

func (m *Machine) execBEQ(ir Instruction) (bool, error) {
	if m.reg(ir.RS()) == m.reg(ir.RT()) {
		m.branch(ir)
	} else {
		m.PC += 4
	}

	return false, nil
}

func (m *Machine) execBNE(ir Instruction) (bool, error) {
	if m.reg(ir.RS()) != m.reg(ir.RT()) {
		m.branch(ir)
	} else {
		m.PC += 4
	}

	return false, nil
}

func (m *Machine) execBLEZ(ir Instruction) (bool, error) {
	if int32(m.reg(ir.RS())) <= 0 {
		m.branch(ir)
	} else {
		m.PC += 4
	}

	return false, nil
}

func (m *Machine) execBGTZ(ir Instruction) (bool, error) {
	if int32(m.reg(ir.RS())) > 0 {
		m.branch(ir)
	} else {
		m.PC += 4
	}

	return false, nil
}

// branch computes pc = pc + 4 + simm16*4, per spec.md §4.4. pc at this
// point is still the address of the branch instruction itself (the run
// loop has not yet advanced it).
func (m *Machine) branch(ir Instruction) {
	m.PC = m.PC + 4 + Word(ir.SImm()*4)
}

func (m *Machine) execADDI(ir Instruction) (bool, error) {
	sum, overflow := addOverflow(m.reg(ir.RS()), Word(uint32(ir.SImm())))
	if overflow {
		return false, newException(ExcArithmeticOverflow, "ADDI")
	}

	m.setReg(ir.RT(), sum)

	return true, nil
}

func (m *Machine) execADDIU(ir Instruction) (bool, error) {
	m.setReg(ir.RT(), m.reg(ir.RS())+Word(ir.Imm()))
	return true, nil
}

func (m *Machine) execSLTI(ir Instruction) (bool, error) {
	v := Word(0)
	if int32(m.reg(ir.RS())) < ir.SImm() {
		v = 1
	}

	m.setReg(ir.RT(), v)

	return true, nil
}

func (m *Machine) execSLTIU(ir Instruction) (bool, error) {
	v := Word(0)
	if m.reg(ir.RS()) < Word(ir.Imm()) {
		v = 1
	}

	m.setReg(ir.RT(), v)

	return true, nil
}

func (m *Machine) execANDI(ir Instruction) (bool, error) {
	m.setReg(ir.RT(), m.reg(ir.RS())&Word(ir.Imm()))
	return true, nil
}

func (m *Machine) execORI(ir Instruction) (bool, error) {
	m.setReg(ir.RT(), m.reg(ir.RS())|Word(ir.Imm()))
	return true, nil
}

func (m *Machine) execLUI(ir Instruction) (bool, error) {
	m.setReg(ir.RT(), Word(ir.Imm())<<16)
	return true, nil
}

func (m *Machine) effAddr(ir Instruction) Word {
	return m.reg(ir.RS()) + Word(uint32(ir.SImm()))
}

func (m *Machine) execLB(ir Instruction) (bool, error) {
	addr := m.effAddr(ir)

	b, ok := m.LoadByte(addr)
	if !ok {
		return false, newMemException(ExcLoadAddress, addr, "LB")
	}

	m.setReg(ir.RT(), Word(uint32(int32(int8(b)))))

	return true, nil
}

func (m *Machine) execLBU(ir Instruction) (bool, error) {
	addr := m.effAddr(ir)

	b, ok := m.LoadByte(addr)
	if !ok {
		return false, newMemException(ExcLoadAddress, addr, "LBU")
	}

	m.setReg(ir.RT(), Word(b))

	return true, nil
}

func (m *Machine) execLH(ir Instruction) (bool, error) {
	addr := m.effAddr(ir)

	h, ok := m.LoadHalf(addr)
	if !ok {
		return false, newMemException(ExcLoadAddress, addr, "LH")
	}

	m.setReg(ir.RT(), Word(uint32(int32(int16(h)))))

	return true, nil
}

func (m *Machine) execLHU(ir Instruction) (bool, error) {
	addr := m.effAddr(ir)

	h, ok := m.LoadHalf(addr)
	if !ok {
		return false, newMemException(ExcLoadAddress, addr, "LHU")
	}

	m.setReg(ir.RT(), Word(h))

	return true, nil
}

func (m *Machine) execLW(ir Instruction) (bool, error) {
	addr := m.effAddr(ir)

	w, ok := m.LoadWord(addr)
	if !ok {
		return false, newMemException(ExcLoadAddress, addr, "LW")
	}

	m.setReg(ir.RT(), w)

	return true, nil
}

func (m *Machine) execSB(ir Instruction) (bool, error) {
	addr := m.effAddr(ir)

	if ok := m.StoreByte(addr, byte(m.reg(ir.RT()))); !ok {
		return false, newMemException(ExcStoreAddress, addr, "SB")
	}

	return true, nil
}

func (m *Machine) execSH(ir Instruction) (bool, error) {
	addr := m.effAddr(ir)

	if ok := m.StoreHalf(addr, uint16(m.reg(ir.RT()))); !ok {
		return false, newMemException(ExcStoreAddress, addr, "SH")
	}

	return true, nil
}

func (m *Machine) execSW(ir Instruction) (bool, error) {
	addr := m.effAddr(ir)

	if ok := m.StoreWord(addr, m.reg(ir.RT())); !ok {
		return false, newMemException(ExcStoreAddress, addr, "SW")
	}

	return true, nil
}
