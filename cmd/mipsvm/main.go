// cmd/mipsvm is the command-line interface to the interpreter.
package main

import (
	"context"
	"os"

	"github.com/Flawww/MIPS-VM/internal/cli"
	"github.com/Flawww/MIPS-VM/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Run(),
}

func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
