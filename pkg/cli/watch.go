package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/slnreload/pkg/reload"
	"github.com/platinummonkey/slnreload/pkg/watch"
)

func newWatchCommand(streams ioPair) *Command {
	cmd := &Command{
		Name:        "watch",
		Description: "Keep the closure of root projects loaded while project files change",
		Flags:       flag.NewFlagSet("watch", flag.ContinueOnError),
	}
	cmd.Flags.SetOutput(streams.err)

	common := addCommonFlags(cmd.Flags)
	delay := cmd.Flags.Duration("delay", 0, "Wait this long for edits to settle (default from config)")
	dryRun := cmd.Flags.Bool("dry-run", false, "Report what would change without saving the filter")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		roots := cmd.Flags.Args()
		if len(roots) == 0 {
			return fmt.Errorf("at least one root project is required")
		}

		cfg, err := common.load()
		if err != nil {
			return err
		}
		if *delay > 0 {
			cfg.Watch.Delay = *delay
		}
		rt, err := newRuntime(cfg, streams.err, true)
		if err != nil {
			return err
		}

		svc := rt.service
		if *dryRun {
			svc = svc.WithDryRun()
		}

		w, err := watch.New(svc, watch.Options{
			Roots:   roots,
			Delay:   cfg.Watch.Delay,
			Timeout: cfg.Resolver.Timeout,
			OnRefresh: func(report *reload.Report, err error) {
				if err == nil && len(report.Reloaded) > 0 {
					writeReport(streams.out, report, false)
				}
			},
		}, rt.log)
		if err != nil {
			return err
		}

		ctx, stop := commandContext()
		defer stop()

		rt.log.WithField("roots", roots).Info("Watching project files")
		return w.Run(ctx)
	}

	return cmd
}
