package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Version is set at build time with -ldflags "-X .../pkg/cli.Version=..."
var Version = "dev"

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet

	out io.Writer
}

// NewRootCommand creates the root command writing results to stdout
func NewRootCommand() *Command {
	return newRootCommand(os.Stdout, os.Stderr)
}

// newRootCommand wires every subcommand; results go to out, logs to errOut
func newRootCommand(out, errOut io.Writer) *Command {
	root := &Command{
		Name:        "slnreload",
		Description: "slnreload - reload unloaded projects together with everything they reference",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("slnreload", flag.ContinueOnError),
		out:         out,
	}

	streams := ioPair{out: out, err: errOut}
	root.Subcommands["closure"] = newClosureCommand(streams)
	root.Subcommands["reload"] = newReloadCommand(streams)
	root.Subcommands["reload-all"] = newReloadAllCommand(streams)
	root.Subcommands["unload-all"] = newUnloadAllCommand(streams)
	root.Subcommands["list"] = newListCommand(streams)
	root.Subcommands["watch"] = newWatchCommand(streams)
	root.Subcommands["serve"] = newServeCommand(streams)
	root.Subcommands["version"] = newVersionCommand(streams)

	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the command with args, which exclude the program name
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	switch strings.ToLower(args[0]) {
	case "-h", "--help", "help":
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(out, "Usage: %s <command> [flags] [projects...]\n\n", c.Name)
	fmt.Fprintf(out, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	fmt.Fprintf(out, "\nRun '%s <command> -h' for the flags of a command.\n", c.Name)
	return nil
}

// ioPair routes command results and logs
type ioPair struct {
	out io.Writer
	err io.Writer
}
