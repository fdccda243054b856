package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/platinummonkey/slnreload/pkg/dependencies"
	"github.com/platinummonkey/slnreload/pkg/msbuild"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

func newClosureCommand(streams ioPair) *Command {
	cmd := &Command{
		Name:        "closure",
		Description: "Print the projects reachable from one or more root projects",
		Flags:       flag.NewFlagSet("closure", flag.ContinueOnError),
	}
	cmd.Flags.SetOutput(streams.err)

	common := addCommonFlags(cmd.Flags)
	asJSON := cmd.Flags.Bool("json", false, "Print the closures as JSON")
	graph := cmd.Flags.Bool("graph", false, "Print the reference graph of a single root as Cytoscape JSON")
	depth := cmd.Flags.Int("depth", -1, "Limit -graph to this many reference hops (-1 is unlimited)")
	dependenciesOf := cmd.Flags.String("dependencies", "", "Print the references of this closure member instead of the closure")
	dependentsOf := cmd.Flags.String("dependents", "", "Print the closure members that reference this project")
	transitive := cmd.Flags.Bool("transitive", false, "With -dependencies, follow references transitively")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		roots := cmd.Flags.Args()
		if len(roots) == 0 {
			return fmt.Errorf("at least one root project is required")
		}
		if *graph && len(roots) != 1 {
			return fmt.Errorf("-graph takes exactly one root project")
		}
		query := *dependenciesOf != "" || *dependentsOf != ""
		if *dependenciesOf != "" && *dependentsOf != "" {
			return fmt.Errorf("-dependencies and -dependents are mutually exclusive")
		}
		if query && (*graph || len(roots) != 1) {
			return fmt.Errorf("-dependencies and -dependents take exactly one root project and no -graph")
		}

		cfg, err := common.load()
		if err != nil {
			return err
		}
		rt, err := newRuntime(cfg, streams.err, false)
		if err != nil {
			return err
		}

		ctx, stop := commandContext()
		defer stop()

		if query {
			closure, err := rt.resolver.Resolve(ctx, roots[0])
			if err != nil {
				return describeResolutionError(err)
			}
			deps, err := queryClosure(closure, *dependenciesOf, *dependentsOf, *transitive)
			if err != nil {
				return err
			}
			if *asJSON {
				return writeJSON(streams.out, deps)
			}
			for _, d := range deps {
				fmt.Fprintln(streams.out, d.Project)
			}
			return nil
		}

		if *graph {
			closure, err := rt.resolver.Resolve(ctx, roots[0])
			if err != nil {
				return describeResolutionError(err)
			}
			return writeJSON(streams.out, dependencies.BuildCytoscapeGraph(closure, *depth))
		}

		closures, err := rt.resolver.ResolveAll(ctx, roots)
		if err != nil {
			return describeResolutionError(err)
		}

		if *asJSON {
			views := make([]closureJSON, 0, len(closures))
			for _, c := range closures {
				views = append(views, newClosureJSON(c))
			}
			return writeJSON(streams.out, views)
		}

		for _, p := range dependencies.Union(rt.resolver.Comparer(), closures...) {
			fmt.Fprintln(streams.out, p)
		}
		for _, c := range closures {
			if cycle := c.Cycles(); len(cycle) > 0 {
				rt.log.WithField("cycle", strings.Join(cycle, " -> ")).Warn("Reference cycle detected")
			}
		}
		return nil
	}

	return cmd
}

// queryClosure lists the references of dependenciesOf, or the dependents of
// dependentsOf, within the closure
func queryClosure(c *dependencies.Closure, dependenciesOf, dependentsOf string, transitive bool) ([]dependencies.Dependency, error) {
	if dependenciesOf != "" {
		p, err := projectpath.Abs(dependenciesOf)
		if err != nil {
			return nil, err
		}
		return c.Dependencies(string(p), transitive)
	}
	p, err := projectpath.Abs(dependentsOf)
	if err != nil {
		return nil, err
	}
	return c.Dependents(string(p))
}

type closureJSON struct {
	Root     string              `json:"root"`
	Projects []string            `json:"projects"`
	Order    []string            `json:"order"`
	Cycles   []string            `json:"cycles,omitempty"`
	Edges    []dependencies.Edge `json:"edges"`
}

func newClosureJSON(c *dependencies.Closure) closureJSON {
	view := closureJSON{Root: string(c.Root()), Cycles: c.Cycles(), Edges: c.Edges()}
	for _, p := range c.Paths() {
		view.Projects = append(view.Projects, string(p))
	}
	for _, p := range c.Order() {
		view.Order = append(view.Order, string(p))
	}
	return view
}

// describeResolutionError names the offending project file in the message
func describeResolutionError(err error) error {
	switch {
	case dependencies.IsResolutionTimeout(err):
		return fmt.Errorf("%w (raise -max-projects or -timeout to allow larger graphs)", err)
	case msbuild.IsProjectRead(err), msbuild.IsUnresolvedReference(err):
		if project := msbuild.OffendingProject(err); project != "" {
			return fmt.Errorf("%s: %w", project, err)
		}
	}
	return err
}
