package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/slnreload/pkg/reload"
)

func newListCommand(streams ioPair) *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List the projects of the solution and whether they are loaded",
		Flags:       flag.NewFlagSet("list", flag.ContinueOnError),
	}
	cmd.Flags.SetOutput(streams.err)

	common := addCommonFlags(cmd.Flags)
	state := cmd.Flags.String("state", "all", "Which projects to list (loaded, unloaded, all)")
	asJSON := cmd.Flags.Bool("json", false, "Print the projects as JSON")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		switch *state {
		case "loaded", "unloaded", "all":
		default:
			return fmt.Errorf("invalid state: %s (must be loaded, unloaded, or all)", *state)
		}

		cfg, err := common.load()
		if err != nil {
			return err
		}
		rt, err := newRuntime(cfg, streams.err, true)
		if err != nil {
			return err
		}

		ctx, stop := commandContext()
		defer stop()
		host := rt.service.Host()

		var rows []listRow
		if *state != "unloaded" {
			loaded, err := host.ListLoadedProjects(ctx)
			if err != nil {
				return err
			}
			rows = appendRows(rows, loaded, true)
		}
		if *state != "loaded" {
			unloaded, err := host.ListUnloadedProjects(ctx)
			if err != nil {
				return err
			}
			rows = appendRows(rows, unloaded, false)
		}

		if *asJSON {
			if rows == nil {
				rows = make([]listRow, 0)
			}
			return writeJSON(streams.out, rows)
		}
		for _, row := range rows {
			mark := "unloaded"
			if row.Loaded {
				mark = "loaded"
			}
			fmt.Fprintf(streams.out, "%-9s %s\n", mark, row.Path)
		}
		return nil
	}

	return cmd
}

type listRow struct {
	Path   string `json:"path"`
	Loaded bool   `json:"loaded"`
}

func appendRows(rows []listRow, entries []reload.ProjectEntry, loaded bool) []listRow {
	for _, e := range entries {
		rows = append(rows, listRow{Path: string(e.Path), Loaded: loaded})
	}
	return rows
}
