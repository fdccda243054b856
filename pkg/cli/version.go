package cli

import (
	"flag"
	"fmt"
	goruntime "runtime"
)

func newVersionCommand(streams ioPair) *Command {
	cmd := &Command{
		Name:        "version",
		Description: "Print the version",
		Flags:       flag.NewFlagSet("version", flag.ContinueOnError),
	}
	cmd.Flags.SetOutput(streams.err)

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		fmt.Fprintf(streams.out, "slnreload %s (%s %s/%s)\n", Version, goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
		return nil
	}

	return cmd
}
