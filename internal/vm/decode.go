package vm

// decode.go is the top-level decoder/dispatcher, driven by the 6-bit
// opcode and, for R-format and REGIMM instructions, a secondary table.

// Opcodes, per spec.md §4.4.
const (
	opR      uint8 = 0x00
	opRegimm uint8 = 0x01
	opBEQ    uint8 = 0x04
	opBNE    uint8 = 0x05
	opBLEZ   uint8 = 0x06
	opBGTZ   uint8 = 0x07
	opADDI   uint8 = 0x08
	opADDIU  uint8 = 0x09
	opSLTI   uint8 = 0x0a
	opSLTIU  uint8 = 0x0b
	opANDI   uint8 = 0x0c
	opORI    uint8 = 0x0d
	opLUI    uint8 = 0x0f
	opCP0    uint8 = 0x10
	opCP1    uint8 = 0x11
	opMUL    uint8 = 0x1c
	opLB     uint8 = 0x20
	opLH     uint8 = 0x21
	opLW     uint8 = 0x23
	opLBU    uint8 = 0x24
	opLHU    uint8 = 0x25
	opSB     uint8 = 0x28
	opSH     uint8 = 0x29
	opSW     uint8 = 0x2b
	opJ      uint8 = 0x02
	opJAL    uint8 = 0x03
)

// Secondary funct codes for R-format instructions (opcode 0).
const (
	fnSLL   uint8 = 0x00
	fnSRL   uint8 = 0x02
	fnSRA   uint8 = 0x03
	fnJR    uint8 = 0x08
	fnJALR  uint8 = 0x09
	fnSYS   uint8 = 0x0c
	fnBREAK uint8 = 0x0d
	fnMFHI  uint8 = 0x10
	fnMTHI  uint8 = 0x11
	fnMFLO  uint8 = 0x12
	fnMTLO  uint8 = 0x13
	fnMULT  uint8 = 0x18
	fnMULTU uint8 = 0x19
	fnDIV   uint8 = 0x1a
	fnDIVU  uint8 = 0x1b
	fnADD   uint8 = 0x20
	fnADDU  uint8 = 0x21
	fnSUB   uint8 = 0x22
	fnSUBU  uint8 = 0x23
	fnAND   uint8 = 0x24
	fnOR    uint8 = 0x25
	fnXOR   uint8 = 0x26
	fnNOR   uint8 = 0x27
	fnSLT   uint8 = 0x2a
	fnSLTU  uint8 = 0x2b
	fnTGE   uint8 = 0x30
	fnTGEU  uint8 = 0x31
	fnTLT   uint8 = 0x32
	fnTLTU  uint8 = 0x33
	fnTEQ   uint8 = 0x34
	fnTNE   uint8 = 0x36
	fnERET  uint8 = 0x18
)

// REGIMM (opcode 1) sub-codes, selected by the rt field.
const (
	rtTGEI  uint8 = 8
	rtTGEIU uint8 = 9
	rtTLTI  uint8 = 10
	rtTLTIU uint8 = 11
	rtTEQI  uint8 = 12
	rtTNEI  uint8 = 14
)

// dispatch executes one instruction and reports whether pc should advance by
// 4. Branches, jumps and ERET write pc themselves and return false. err is
// either an *Exception, an *Exit, or a fatal error wrapping ErrFatal.
func (m *Machine) dispatch(ir Instruction) (advance bool, err error) {
	switch ir.Opcode() {
	case opR:
		return m.dispatchR(ir)
	case opRegimm:
		return m.dispatchRegimm(ir)
	case opBEQ:
		return m.execBEQ(ir)
	case opBNE:
		return m.execBNE(ir)
	case opBLEZ:
		return m.execBLEZ(ir)
	case opBGTZ:
		return m.execBGTZ(ir)
	case opADDI:
		return m.execADDI(ir)
	case opADDIU:
		return m.execADDIU(ir)
	case opSLTI:
		return m.execSLTI(ir)
	case opSLTIU:
		return m.execSLTIU(ir)
	case opANDI:
		return m.execANDI(ir)
	case opORI:
		return m.execORI(ir)
	case opLUI:
		return m.execLUI(ir)
	case opCP0:
		return m.dispatchCP0(ir)
	case opCP1:
		return m.execCP1Move(ir)
	case opMUL:
		return m.execMUL(ir)
	case opLB:
		return m.execLB(ir)
	case opLH:
		return m.execLH(ir)
	case opLW:
		return m.execLW(ir)
	case opLBU:
		return m.execLBU(ir)
	case opLHU:
		return m.execLHU(ir)
	case opSB:
		return m.execSB(ir)
	case opSH:
		return m.execSH(ir)
	case opSW:
		return m.execSW(ir)
	case opJ:
		return m.execJ(ir)
	case opJAL:
		return m.execJAL(ir)
	default:
		return false, newException(ExcReservedInstruction,
			"unknown opcode")
	}
}

func (m *Machine) dispatchR(ir Instruction) (bool, error) {
	switch ir.Funct() {
	case fnSLL:
		return m.execSLL(ir)
	case fnSRL:
		return m.execSRL(ir)
	case fnSRA:
		return m.execSRA(ir)
	case fnJR:
		return m.execJR(ir)
	case fnJALR:
		return m.execJALR(ir)
	case fnSYS:
		return m.execSyscall(ir)
	case fnBREAK:
		return false, newException(ExcBreakpoint, "BREAK")
	case fnMFHI:
		m.setReg(ir.RD(), m.HI)
		return true, nil
	case fnMTHI:
		m.HI = m.reg(ir.RS())
		return true, nil
	case fnMFLO:
		m.setReg(ir.RD(), m.LO)
		return true, nil
	case fnMTLO:
		m.LO = m.reg(ir.RS())
		return true, nil
	case fnMULT:
		return m.execMULT(ir)
	case fnMULTU:
		return m.execMULTU(ir)
	case fnDIV:
		return m.execDIV(ir)
	case fnDIVU:
		return m.execDIVU(ir)
	case fnADD:
		return m.execADD(ir)
	case fnADDU:
		return m.execADDU(ir)
	case fnSUB:
		return m.execSUB(ir)
	case fnSUBU:
		return m.execSUBU(ir)
	case fnAND:
		m.setReg(ir.RD(), m.reg(ir.RS())&m.reg(ir.RT()))
		return true, nil
	case fnOR:
		m.setReg(ir.RD(), m.reg(ir.RS())|m.reg(ir.RT()))
		return true, nil
	case fnXOR:
		m.setReg(ir.RD(), m.reg(ir.RS())^m.reg(ir.RT()))
		return true, nil
	case fnNOR:
		m.setReg(ir.RD(), ^(m.reg(ir.RS()) | m.reg(ir.RT())))
		return true, nil
	case fnSLT:
		return m.execSLT(ir)
	case fnSLTU:
		return m.execSLTU(ir)
	case fnTGE, fnTGEU, fnTLT, fnTLTU, fnTEQ, fnTNE:
		return m.execTrapReg(ir)
	default:
		return false, newException(ExcReservedInstruction, "unknown funct")
	}
}

func (m *Machine) dispatchRegimm(ir Instruction) (bool, error) {
	a := int32(m.reg(ir.RS()))
	ua := m.reg(ir.RS())
	simm := ir.SImm()
	uimm := Word(ir.Imm())

	var cond bool

	switch ir.RT() {
	case rtTGEI:
		cond = a >= simm
	case rtTGEIU:
		cond = ua >= uimm
	case rtTLTI:
		cond = a < simm
	case rtTLTIU:
		cond = ua < uimm
	case rtTEQI:
		cond = a == simm
	case rtTNEI:
		cond = a != simm
	default:
		return false, newException(ExcReservedInstruction, "unknown trapi rt")
	}

	if cond {
		return false, newException(ExcTrap, "TRAPI")
	}

	return true, nil
}

func (m *Machine) dispatchCP0(ir Instruction) (bool, error) {
	if ir.Funct() == fnERET {
		return m.execERET(ir)
	}

	return m.execCP0Move(ir)
}
