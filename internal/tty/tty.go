// Package tty adapts a Unix terminal to the interpreter's HostIO contract:
// line-buffered reads for the blocking read_* syscalls and a non-blocking
// single-byte poll for the keyboard device, toggled between cooked and raw
// termios modes as the interpreter needs one or the other.
package tty

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNoTTY is returned when standard input is not a terminal.
var ErrNoTTY = errors.New("tty: not a terminal")

// Console implements vm.HostIO over the process's standard streams.
type Console struct {
	in  *os.File
	out *os.File
	fd  int

	cooked *term.State // termios captured at construction; EnableCooked restores it.
	raw    bool         // true while in raw (non-blocking) mode.

	reader *bufio.Reader
}

// New creates a Console over sin/sout. sin must be a terminal, or ErrNoTTY
// is returned. The console starts in cooked (line-buffered, blocking) mode.
func New(sin, sout *os.File) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTTY, err)
	}

	return &Console{
		in:     sin,
		out:    sout,
		fd:     fd,
		cooked: saved,
		reader: bufio.NewReader(sin),
	}, nil
}

// Read implements io.Reader, consuming from the buffered input stream.
func (c *Console) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

// Write implements io.Writer, passing bytes straight to the output stream.
func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// PollByte performs a non-blocking read of at most one byte. It only
// returns data while the console is in raw mode; in cooked mode it always
// reports nothing available, since a blocking reader may be holding the
// stream.
func (c *Console) PollByte() (byte, bool) {
	if !c.raw {
		return 0, false
	}

	b, err := c.reader.ReadByte()
	if err != nil {
		return 0, false
	}

	return b, true
}

// EnableRaw switches the terminal to raw mode with a non-blocking read
// timeout (VMIN=0, VTIME=0), for the keyboard device's poll loop.
func (c *Console) EnableRaw() error {
	if c.raw {
		return nil
	}

	if _, err := term.MakeRaw(c.fd); err != nil {
		return err
	}

	if err := c.setTermiosTimeout(0, 0); err != nil {
		return err
	}

	c.raw = true

	return nil
}

// EnableCooked restores line-buffered, blocking mode, for the read_*
// syscalls.
func (c *Console) EnableCooked() error {
	if !c.raw {
		return nil
	}

	if err := term.Restore(c.fd, c.cooked); err != nil {
		return err
	}

	if err := c.setTermiosTimeout(1, 0); err != nil {
		return err
	}

	c.raw = false

	return nil
}

func (c *Console) setTermiosTimeout(vmin, vtime byte) error {
	t, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	t.Cc[unix.VMIN] = vmin
	t.Cc[unix.VTIME] = vtime

	return unix.IoctlSetTermios(c.fd, setTermiosIoctl, t)
}

// Close restores the terminal to its original state.
func (c *Console) Close() error {
	return term.Restore(c.fd, c.cooked)
}

var _ io.ReadWriter = (*Console)(nil)
