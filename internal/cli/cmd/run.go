package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Flawww/MIPS-VM/internal/cli"
	"github.com/Flawww/MIPS-VM/internal/log"
	"github.com/Flawww/MIPS-VM/internal/tty"
	"github.com/Flawww/MIPS-VM/internal/vm"
)

// Run returns the "run" sub-command: loads and executes a program.
func Run() cli.Command {
	return &runner{log: log.DefaultLogger()}
}

type runner struct {
	logLevel slog.Level
	log      *log.Logger
}

func (runner) Description() string {
	return "load and run a program"
}

func (runner) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `run program

Loads program.text (and program.data/.ktext/.kdata, if present) and runs it
to completion.`)

	return err
}

func (r *runner) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Func("loglevel", "set log `level`", func(s string) error {
		return r.logLevel.UnmarshalText([]byte(s))
	})

	return fs
}

// Run implements cli.Command. Exit code 0 on normal termination, 1 on
// initialization failure, per spec.md §6.
func (r *runner) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	log.LogLevel.Set(r.logLevel)

	base := ""
	if len(args) > 0 {
		base = args[0]
	} else {
		fmt.Fprint(stdout, "program: ")

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			logger.Error("no program given", "err", err)
			return 1
		}

		base = strings.TrimSpace(line)
	}

	host, err := tty.New(os.Stdin, os.Stdout)
	if err != nil {
		if !errors.Is(err, tty.ErrNoTTY) {
			logger.Error("console init failed", "err", err)
			return 1
		}

		logger.Warn("stdin is not a terminal; keyboard interrupts disabled")

		host = nil
	}

	var io_ vm.HostIO
	if host != nil {
		defer host.Close()
		io_ = host
	} else {
		io_ = plainIO{in: os.Stdin, out: os.Stdout}
	}

	machine := vm.New(io_, logger)

	if err := machine.Load(base); err != nil {
		logger.Error("load failed", "err", err)
		return 1
	}

	if err := machine.Run(ctx); err != nil {
		var exitErr *vm.Exit
		if errors.As(err, &exitErr) {
			return 0
		}

		logger.Error("run failed", "err", err)

		return 2
	}

	return 0
}

// plainIO is a degraded HostIO used when stdin is not a terminal: no raw
// mode, no keyboard polling, blocking reads only.
type plainIO struct {
	in  *os.File
	out *os.File
}

func (p plainIO) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p plainIO) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p plainIO) PollByte() (byte, bool)      { return 0, false }
func (p plainIO) EnableRaw() error            { return nil }
func (p plainIO) EnableCooked() error         { return nil }
