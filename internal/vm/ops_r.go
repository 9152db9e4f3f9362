package vm

// ops_r.go implements the R-format arithmetic, shift, jump-register and
// trap-family instructions.

func (m *Machine) execSLL(ir Instruction) (bool, error) {
	m.setReg(ir.RD(), m.reg(ir.RT())<<ir.Shift())
	return true, nil
}

func (m *Machine) execSRL(ir Instruction) (bool, error) {
	m.setReg(ir.RD(), m.reg(ir.RT())>>ir.Shift())
	return true, nil
}

func (m *Machine) execSRA(ir Instruction) (bool, error) {
	v := int32(m.reg(ir.RT())) >> ir.Shift()
	m.setReg(ir.RD(), Word(v))

	return true, nil
}

func (m *Machine) execJR(ir Instruction) (bool, error) {
	m.PC = m.reg(ir.RS())
	return false, nil
}

func (m *Machine) execJALR(ir Instruction) (bool, error) {
	target := m.reg(ir.RS())
	m.setReg(uint8(RA), m.PC+4)
	m.PC = target

	return false, nil
}

func (m *Machine) execMULT(ir Instruction) (bool, error) {
	a := int64(int32(m.reg(ir.RS())))
	b := int64(int32(m.reg(ir.RT())))
	p := uint64(a * b)

	m.HI = Word(p >> 32)
	m.LO = Word(p)

	return true, nil
}

func (m *Machine) execMULTU(ir Instruction) (bool, error) {
	a := uint64(m.reg(ir.RS()))
	b := uint64(m.reg(ir.RT()))
	p := a * b

	m.HI = Word(p >> 32)
	m.LO = Word(p)

	return true, nil
}

func (m *Machine) execDIV(ir Instruction) (bool, error) {
	a := int32(m.reg(ir.RS()))
	b := int32(m.reg(ir.RT()))

	if b == 0 {
		return false, newException(ExcDivideByZero, "DIV")
	}

	m.HI = Word(uint32(a % b))
	m.LO = Word(uint32(a / b))

	return true, nil
}

func (m *Machine) execDIVU(ir Instruction) (bool, error) {
	a := m.reg(ir.RS())
	b := m.reg(ir.RT())

	if b == 0 {
		return false, newException(ExcDivideByZero, "DIVU")
	}

	m.HI = a % b
	m.LO = a / b

	return true, nil
}

// addOverflow adds two 32-bit values as signed integers, reporting whether
// the true signed result falls outside [INT32_MIN, INT32_MAX].
func addOverflow(a, b Word) (sum Word, overflow bool) {
	r := int64(int32(a)) + int64(int32(b))
	return Word(uint32(r)), r < -(1<<31) || r > (1<<31)-1
}

func subOverflow(a, b Word) (diff Word, overflow bool) {
	r := int64(int32(a)) - int64(int32(b))
	return Word(uint32(r)), r < -(1<<31) || r > (1<<31)-1
}

func (m *Machine) execADD(ir Instruction) (bool, error) {
	sum, overflow := addOverflow(m.reg(ir.RS()), m.reg(ir.RT()))
	if overflow {
		return false, newException(ExcArithmeticOverflow, "ADD")
	}

	m.setReg(ir.RD(), sum)

	return true, nil
}

func (m *Machine) execADDU(ir Instruction) (bool, error) {
	m.setReg(ir.RD(), m.reg(ir.RS())+m.reg(ir.RT()))
	return true, nil
}

func (m *Machine) execSUB(ir Instruction) (bool, error) {
	diff, overflow := subOverflow(m.reg(ir.RS()), m.reg(ir.RT()))
	if overflow {
		return false, newException(ExcArithmeticOverflow, "SUB")
	}

	m.setReg(ir.RD(), diff)

	return true, nil
}

func (m *Machine) execSUBU(ir Instruction) (bool, error) {
	m.setReg(ir.RD(), m.reg(ir.RS())-m.reg(ir.RT()))
	return true, nil
}

func (m *Machine) execSLT(ir Instruction) (bool, error) {
	v := Word(0)
	if int32(m.reg(ir.RS())) < int32(m.reg(ir.RT())) {
		v = 1
	}

	m.setReg(ir.RD(), v)

	return true, nil
}

func (m *Machine) execSLTU(ir Instruction) (bool, error) {
	v := Word(0)
	if m.reg(ir.RS()) < m.reg(ir.RT()) {
		v = 1
	}

	m.setReg(ir.RD(), v)

	return true, nil
}

func (m *Machine) execTrapReg(ir Instruction) (bool, error) {
	a := int32(m.reg(ir.RS()))
	b := int32(m.reg(ir.RT()))
	ua := m.reg(ir.RS())
	ub := m.reg(ir.RT())

	var cond bool

	switch ir.Funct() {
	case fnTGE:
		cond = a >= b
	case fnTGEU:
		cond = ua >= ub
	case fnTLT:
		cond = a < b
	case fnTLTU:
		cond = ua < ub
	case fnTEQ:
		cond = a == b
	case fnTNE:
		cond = a != b
	}

	if cond {
		return false, newException(ExcTrap, "T-family")
	}

	return true, nil
}

func (m *Machine) execMUL(ir Instruction) (bool, error) {
	a := int64(int32(m.reg(ir.RS())))
	b := int64(int32(m.reg(ir.RT())))
	m.setReg(ir.RD(), Word(uint32(a*b)))

	return true, nil
}
