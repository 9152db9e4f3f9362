package vm

// exec.go implements the fetch/decode/execute cycle and its termination
// conditions.

import (
	"context"
	"errors"
	"fmt"
)

// Run executes the instruction cycle until the program exits or a fatal
// error terminates the interpreter.
func (m *Machine) Run(ctx context.Context) error {
	m.log.Info("start", "pc", m.PC.String())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		done, err := m.Step()
		if err != nil {
			m.log.Error("halted", "err", err)
			return err
		}

		if done {
			m.log.Info("halted", "pc", m.PC.String(), "ticks", m.Tick)
			return nil
		}
	}
}

// Step runs a single instruction to completion, including exception
// delivery and the keyboard poll. done is true if the program has
// terminated normally (an Exit was raised or execution dropped off the end
// of its text segment). A non-nil error is always fatal.
func (m *Machine) Step() (done bool, err error) {
	seg := m.Segments.Resolve(m.PC, m.KernelMode)

	if seg == nil {
		return false, fatalf("invalid pc: %s", m.PC)
	} else if seg.Flags&Executable == 0 {
		return false, fatalf("pc does not address an executable segment: %s", m.PC)
	} else if m.PC&3 != 0 {
		return false, fatalf("misaligned fetch: %s", m.PC)
	} else if m.KernelMode && seg == m.Segments.Text {
		return false, fatalf("kernel mode executing user .text: %s", m.PC)
	}

	word, ok := m.LoadWord(m.PC)
	if !ok {
		return false, fatalf("fetch failed: %s", m.PC)
	}

	ir := Instruction(word)

	m.log.Debug("fetched", "pc", m.PC.String(), "ir", ir.String())

	advance, stepErr := m.dispatch(ir)

	if advance {
		m.PC += 4
	}

	m.Regs[0] = 0 // R0 is observably always zero.

	if stepErr != nil {
		var exit *Exit
		if errors.As(stepErr, &exit) {
			m.log.Info("exit", "status", exit.Status, "reason", exit.Reason)
			return true, nil
		}

		var exc *Exception
		if errors.As(stepErr, &exc) {
			if m.deliver(exc) {
				m.Tick++
				return false, nil
			}

			return false, fmt.Errorf("%w: unhandled %w", ErrFatal, exc)
		}

		return false, stepErr
	}

	if kbdExc := m.pollKeyboard(); kbdExc != nil {
		if !m.deliver(kbdExc) {
			return false, fmt.Errorf("%w: unhandled %w", ErrFatal, kbdExc)
		}
	}

	m.Tick++

	if m.droppedOff() {
		return true, nil
	}

	return false, nil
}

// droppedOff reports whether pc has fallen off the bottom of .text (or
// .ktext, if present), the "drop off bottom" normal-exit condition.
func (m *Machine) droppedOff() bool {
	t := m.Segments.Text
	if t != nil && m.PC == t.Base+Word(t.Len()) {
		return true
	}

	if kt := m.Segments.KText; kt != nil && m.PC == kt.Base+Word(kt.Len()) {
		return true
	}

	return false
}
