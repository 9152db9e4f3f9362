package vm

// loader.go reads the four segment blobs that make up a program binary
// and populates a Machine's segment table, per spec.md §4.1 and §9.2.

import (
	"encoding/binary"
	"fmt"
	"os"
)

// segSuffix names one of the four loadable segment files and where it
// attaches in the segment table.
type segSuffix struct {
	suffix     string
	which      **Segment
	flags      SegFlags
	executable bool
	required   bool
}

// Load reads P.text/P.data/P.ktext/P.kdata relative to base, populates the
// machine's segment table, and positions pc/sp. Malformed non-critical
// segments are dropped with a logged diagnostic and otherwise ignored; a
// missing or malformed .text is fatal, matching spec.md §4.1's "refuses to
// run" rule.
func (m *Machine) Load(base string) error {
	suffixes := []segSuffix{
		{".text", &m.Segments.Text, Executable, true, true},
		{".data", &m.Segments.Data, Mutable, false, false},
		{".ktext", &m.Segments.KText, Executable | Kernel, true, false},
		{".kdata", &m.Segments.KData, Mutable | Kernel, false, false},
	}

	for _, s := range suffixes {
		seg, err := m.loadSegment(base, s)
		if err != nil {
			if s.required {
				return fmt.Errorf("load %s%s: %w", base, s.suffix, err)
			}

			m.log.Warn("segment dropped", "suffix", s.suffix, "err", err)

			continue
		}

		if seg == nil {
			if s.required {
				return fmt.Errorf("load %s%s: %w", base, s.suffix, os.ErrNotExist)
			}

			continue
		}

		m.Segments.addFixed(seg, s.which)
	}

	if m.Segments.Text == nil {
		return fmt.Errorf("load %s.text: %w", base, os.ErrNotExist)
	}

	m.PC = m.Segments.Text.Base
	m.Regs[SP] = StackTop - 3 // 0x7FFFEFFC, per spec.md §3.

	if vec := m.Segments.Resolve(ExceptionVector, true); vec != nil && vec == m.Segments.KText {
		m.HasHandler = true
	}

	m.log.Info("loaded", "base", base,
		"text", segString(m.Segments.Text), "data", segString(m.Segments.Data),
		"ktext", segString(m.Segments.KText), "kdata", segString(m.Segments.KData),
		"handler", m.HasHandler)

	return nil
}

func segString(s *Segment) string {
	if s == nil {
		return "-"
	}

	return fmt.Sprintf("%s+%d", s.Base, s.Len())
}

// loadSegment reads one suffix file. A missing file is reported as (nil,
// nil) -- not an error, since only .text is required. A present-but-
// malformed file is reported as an error so the caller can apply the
// suffix's required/diagnostic policy.
func (m *Machine) loadSegment(base string, s segSuffix) (*Segment, error) {
	path := base + s.suffix

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	if len(data) <= 4 {
		return nil, fmt.Errorf("%s: blob too short (%d bytes)", path, len(data))
	}

	addr := Word(binary.LittleEndian.Uint32(data[:4]))
	body := data[4:]

	if s.executable && len(body)%4 != 0 {
		return nil, fmt.Errorf("%s: executable segment length %d not a multiple of 4", path, len(body))
	}

	return newDenseSegment(s.suffix, addr, s.flags, body), nil
}
