package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/platinummonkey/slnreload/pkg/reload"
)

func newReloadCommand(streams ioPair) *Command {
	return newOperationCommand(streams, "reload",
		"Reload unloaded projects together with every project they reference",
		true,
		func(ctx context.Context, svc *reload.Service, roots []string) (*reload.Report, error) {
			return svc.ReloadWithReferences(ctx, roots...)
		})
}

func newReloadAllCommand(streams ioPair) *Command {
	return newOperationCommand(streams, "reload-all",
		"Reload every unloaded project of the solution",
		false,
		func(ctx context.Context, svc *reload.Service, _ []string) (*reload.Report, error) {
			return svc.ReloadAll(ctx)
		})
}

func newUnloadAllCommand(streams ioPair) *Command {
	return newOperationCommand(streams, "unload-all",
		"Unload every loaded project of the solution",
		false,
		func(ctx context.Context, svc *reload.Service, _ []string) (*reload.Report, error) {
			return svc.UnloadAll(ctx)
		})
}

type operation func(ctx context.Context, svc *reload.Service, roots []string) (*reload.Report, error)

// newOperationCommand builds a command that runs one reload.Service
// operation against the solution filter
func newOperationCommand(streams ioPair, name, description string, takesRoots bool, op operation) *Command {
	cmd := &Command{
		Name:        name,
		Description: description,
		Flags:       flag.NewFlagSet(name, flag.ContinueOnError),
	}
	cmd.Flags.SetOutput(streams.err)

	common := addCommonFlags(cmd.Flags)
	dryRun := cmd.Flags.Bool("dry-run", false, "Report what would change without saving the filter")
	asJSON := cmd.Flags.Bool("json", false, "Print the report as JSON")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		roots := cmd.Flags.Args()
		if takesRoots && len(roots) == 0 {
			return fmt.Errorf("at least one root project is required")
		}
		if !takesRoots && len(roots) > 0 {
			return fmt.Errorf("%s takes no projects", name)
		}

		cfg, err := common.load()
		if err != nil {
			return err
		}
		rt, err := newRuntime(cfg, streams.err, true)
		if err != nil {
			return err
		}

		svc := rt.service
		if *dryRun {
			svc = svc.WithDryRun()
		}

		ctx, stop := commandContext()
		defer stop()

		report, err := op(ctx, svc, roots)
		if report != nil {
			if werr := writeReport(streams.out, report, *asJSON); werr != nil {
				return werr
			}
		}
		if err != nil {
			return describeOperationError(err)
		}
		return nil
	}

	return cmd
}

// describeOperationError points at the printed report when the host failed
// part way, since the projects listed there were already changed.
func describeOperationError(err error) error {
	if reload.IsHostError(err) {
		return fmt.Errorf("%w (the report lists the projects changed before the failure)", err)
	}
	return describeResolutionError(err)
}
