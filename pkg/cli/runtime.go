package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/slnreload/pkg/config"
	"github.com/platinummonkey/slnreload/pkg/dependencies"
	"github.com/platinummonkey/slnreload/pkg/msbuild"
	"github.com/platinummonkey/slnreload/pkg/observability"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/platinummonkey/slnreload/pkg/reload"
	"github.com/platinummonkey/slnreload/pkg/solution"
)

// commandContext is cancelled when the process receives an interrupt or a
// termination signal, so long resolutions and host operations stop early.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var errNoSolution = errors.New("a solution or solution filter is required (use -solution, -filter or the config file)")

// commonFlags are accepted by every command that touches projects
type commonFlags struct {
	config      string
	solution    string
	filter      string
	properties  string
	logLevel    string
	logFormat   string
	maxProjects int
	timeout     time.Duration
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	f := &commonFlags{}
	fs.StringVar(&f.config, "config", "", "Config file (default "+config.DefaultFile+" when present)")
	fs.StringVar(&f.solution, "solution", "", "Solution file (.sln or .slnx)")
	fs.StringVar(&f.filter, "filter", "", "Solution filter (.slnf) recording loaded projects")
	fs.StringVar(&f.properties, "p", "", "Global MSBuild properties, e.g. Configuration=Release;Platform=x64")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	fs.IntVar(&f.maxProjects, "max-projects", -1, "Fail a resolution visiting more projects (0 is unbounded)")
	fs.DurationVar(&f.timeout, "timeout", -1, "Fail a resolution running longer (0 is unbounded)")
	return f
}

// load reads the configuration and applies flag overrides
func (f *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}

	if f.solution != "" {
		cfg.Solution = f.solution
	}
	if f.filter != "" {
		cfg.Filter = f.filter
	}
	if f.logLevel != "" {
		cfg.Observability.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Observability.LogFormat = f.logFormat
	}
	if f.maxProjects >= 0 {
		cfg.Resolver.MaxProjects = f.maxProjects
	}
	if f.timeout >= 0 {
		cfg.Resolver.Timeout = f.timeout
	}
	if f.properties != "" {
		if cfg.Resolver.Properties == nil {
			cfg.Resolver.Properties = make(map[string]string)
		}
		for k, v := range config.ParseProperties(f.properties) {
			cfg.Resolver.Properties[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// runtime is the object graph shared by the commands
type runtime struct {
	cfg      *config.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	resolver *dependencies.Resolver
	filter   *solution.Filter
	service  *reload.Service
}

// newRuntime assembles the resolver and, when withHost is set, the
// solution filter host and reload service
func newRuntime(cfg *config.Config, logOut io.Writer, withHost bool) (*runtime, error) {
	rt := &runtime{
		cfg:      cfg,
		log:      observability.NewLogger(cfg.LogLevel(), cfg.LogFormat(), logOut),
		registry: prometheus.NewRegistry(),
	}
	rt.metrics = observability.NewMetrics(rt.registry)
	cmp := cfg.Comparer()

	var sol *solution.Solution
	if withHost {
		filter, err := openFilter(cfg, cmp)
		if err != nil {
			return nil, err
		}
		rt.filter = filter
		sol = filter.Solution()
	} else if cfg.Solution != "" {
		parsed, err := solution.ParseSolution(cfg.Solution)
		if err != nil {
			return nil, err
		}
		sol = parsed
	}

	props := make(map[string]string)
	if sol != nil {
		for k, v := range sol.Properties() {
			props[k] = v
		}
	}
	for k, v := range cfg.Resolver.Properties {
		props[k] = v
	}

	reader := msbuild.NewReader(msbuild.Options{
		Properties: props,
		CacheSize:  cfg.Resolver.CacheSize,
		Comparer:   cmp,
	})
	rt.resolver = dependencies.NewResolver(dependencies.ReaderSource(reader), dependencies.Options{
		MaxProjects: cfg.Resolver.MaxProjects,
		Timeout:     cfg.Resolver.Timeout,
		Comparer:    cmp,
	}, rt.log, rt.metrics)

	if rt.filter != nil {
		rt.service = reload.NewService(rt.filter, rt.resolver, reload.Options{}, rt.log, rt.metrics)
	}

	return rt, nil
}

// openFilter opens the configured filter, or starts one next to the
// solution with every project unloaded when none exists yet
func openFilter(cfg *config.Config, cmp projectpath.Comparer) (*solution.Filter, error) {
	path := cfg.Filter
	if path == "" {
		if cfg.Solution == "" {
			return nil, errNoSolution
		}
		path = strings.TrimSuffix(cfg.Solution, filepath.Ext(cfg.Solution)) + ".slnf"
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		return solution.OpenFilter(path, cmp)
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to open filter %s: %w", path, err)
	case cfg.Solution == "":
		return nil, fmt.Errorf("filter %s does not exist and no solution is configured", path)
	default:
		return solution.NewFilter(cfg.Solution, path, cmp)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReport prints a report as JSON or as one line per project
func writeReport(w io.Writer, report *reload.Report, asJSON bool) error {
	if asJSON {
		return writeJSON(w, report)
	}

	verb := "reloaded"
	projects := report.Reloaded
	if report.Operation == reload.OperationUnloadAll {
		verb = "unloaded"
		projects = report.Unloaded
	}
	if report.DryRun {
		verb = "would have " + verb
	}

	for _, p := range projects {
		fmt.Fprintln(w, p)
	}
	fmt.Fprintf(w, "%d projects %s", len(projects), verb)
	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, ", %d already loaded or outside the solution", len(report.Skipped))
	}
	fmt.Fprintln(w)
	return nil
}
