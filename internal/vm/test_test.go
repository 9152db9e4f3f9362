package vm

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Flawww/MIPS-VM/internal/log"
)

// fakeHost is an in-memory HostIO for tests: pre-seeded input bytes,
// recorded output, and an injectable keyboard queue.
type fakeHost struct {
	in  *bytes.Buffer
	out *bytes.Buffer

	keys []byte
	raw  bool
}

func newFakeHost(input string) *fakeHost {
	return &fakeHost{in: bytes.NewBufferString(input), out: new(bytes.Buffer)}
}

func (h *fakeHost) Read(p []byte) (int, error)  { return h.in.Read(p) }
func (h *fakeHost) Write(p []byte) (int, error) { return h.out.Write(p) }

func (h *fakeHost) PollByte() (byte, bool) {
	if !h.raw || len(h.keys) == 0 {
		return 0, false
	}

	b := h.keys[0]
	h.keys = h.keys[1:]

	return b, true
}

func (h *fakeHost) EnableRaw() error    { h.raw = true; return nil }
func (h *fakeHost) EnableCooked() error { h.raw = false; return nil }

func newTestMachine(t *testing.T) (*Machine, *fakeHost) {
	t.Helper()

	host := newFakeHost("")
	logger := log.NewFormattedLogger(&testWriter{t})

	return New(host, logger), host
}

// testWriter adapts testing.T as an io.Writer for the test logger, in the
// teacher's harness style.
type testWriter struct{ t *testing.T }

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))

	return len(p), nil
}

// loadText installs a .text segment containing the given words at base,
// bypassing the file loader.
func loadText(m *Machine, base Word, words []uint32) {
	body := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(body[i*4:], w)
	}

	seg := newDenseSegment(".text", base, Executable, body)
	m.Segments.addFixed(seg, &m.Segments.Text)
	m.PC = base
}
