package reload

import (
	"context"
	"fmt"
	"sync"

	"github.com/platinummonkey/slnreload/pkg/dependencies"
	"github.com/platinummonkey/slnreload/pkg/observability"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/sirupsen/logrus"
)

// Resolver computes the closures a reload is based on
type Resolver interface {
	ResolveAll(ctx context.Context, roots []string) ([]*dependencies.Closure, error)
	Comparer() projectpath.Comparer
}

// Options configures a Service
type Options struct {
	// DryRun computes reports without asking the host to change anything
	DryRun bool
}

// Service drives the host from resolved closures. Operations on one
// Service, and on copies made by WithDryRun, run one at a time.
type Service struct {
	mu       *sync.Mutex
	host     Host
	resolver Resolver
	opts     Options
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// NewService creates a new reload service
func NewService(host Host, resolver Resolver, opts Options, log *logrus.Logger, metrics *observability.Metrics) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		mu:       &sync.Mutex{},
		host:     host,
		resolver: resolver,
		opts:     opts,
		log:      log,
		metrics:  metrics,
	}
}

// Host returns the host the service drives
func (s *Service) Host() Host {
	return s.host
}

// WithDryRun returns a copy of the service that only reports
func (s *Service) WithDryRun() *Service {
	c := *s
	c.opts.DryRun = true
	return &c
}

// ReloadWithReferences reloads every unloaded project in the closure of
// roots, dependencies first. Closure members that are already loaded or
// unknown to the host are skipped. If resolution fails nothing is reloaded.
//
// A host failure stops the operation; the returned report then lists the
// projects reloaded before it.
func (s *Service) ReloadWithReferences(ctx context.Context, roots ...string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := newReport(OperationReloadWithReferences, s.opts.DryRun)
	report.Roots = roots
	log := observability.FromContext(ctx, s.log).WithField("operation_id", report.ID)

	closures, err := s.resolver.ResolveAll(ctx, roots)
	if err != nil {
		log.WithError(err).Warn("Closure resolution failed, nothing reloaded")
		return nil, err
	}

	cmp := s.resolver.Comparer()
	members := dependencies.Union(cmp, closures...)
	report.Closure = toStrings(members)

	unloaded, err := s.host.ListUnloadedProjects(ctx)
	if err != nil {
		return nil, &HostError{Op: "list", Err: err}
	}
	handles := make(map[projectpath.Key]Handle, len(unloaded))
	for _, entry := range unloaded {
		handles[cmp.Key(entry.Path)] = entry.Handle
	}

	for _, member := range members {
		handle, ok := handles[cmp.Key(member)]
		if !ok {
			report.Skipped = append(report.Skipped, string(member))
			continue
		}
		if err := s.reload(ctx, log, member, handle); err != nil {
			report.finish()
			return report, err
		}
		report.Reloaded = append(report.Reloaded, string(member))
	}
	s.metrics.ObserveSkipped(len(report.Skipped))

	if err := s.commit(ctx, len(report.Reloaded)); err != nil {
		report.finish()
		return report, err
	}

	report.finish()
	log.WithFields(logrus.Fields{
		"roots":    len(roots),
		"closure":  len(report.Closure),
		"reloaded": len(report.Reloaded),
		"skipped":  len(report.Skipped),
		"dry_run":  report.DryRun,
	}).Info("Reloaded projects with references")

	return report, nil
}

// ReloadAll reloads every unloaded project the host knows
func (s *Service) ReloadAll(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := newReport(OperationReloadAll, s.opts.DryRun)
	log := observability.FromContext(ctx, s.log).WithField("operation_id", report.ID)

	unloaded, err := s.host.ListUnloadedProjects(ctx)
	if err != nil {
		return nil, &HostError{Op: "list", Err: err}
	}

	for _, entry := range unloaded {
		if err := s.reload(ctx, log, entry.Path, entry.Handle); err != nil {
			report.finish()
			return report, err
		}
		report.Reloaded = append(report.Reloaded, string(entry.Path))
	}

	if err := s.commit(ctx, len(report.Reloaded)); err != nil {
		report.finish()
		return report, err
	}

	report.finish()
	log.WithField("reloaded", len(report.Reloaded)).Info("Reloaded all projects")
	return report, nil
}

// UnloadAll unloads every loaded project the host knows
func (s *Service) UnloadAll(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := newReport(OperationUnloadAll, s.opts.DryRun)
	report.Unloaded = make([]string, 0)
	log := observability.FromContext(ctx, s.log).WithField("operation_id", report.ID)

	loaded, err := s.host.ListLoadedProjects(ctx)
	if err != nil {
		return nil, &HostError{Op: "list", Err: err}
	}

	for _, entry := range loaded {
		if err := ctx.Err(); err != nil {
			report.finish()
			return report, err
		}
		if !s.opts.DryRun {
			if err := s.host.UnloadProject(ctx, entry.Handle); err != nil {
				report.finish()
				return report, &HostError{Op: "unload", Project: string(entry.Path), Err: err}
			}
		}
		log.WithField("project", string(entry.Path)).Debug("Unloaded project")
		report.Unloaded = append(report.Unloaded, string(entry.Path))
	}

	if err := s.commit(ctx, len(report.Unloaded)); err != nil {
		report.finish()
		return report, err
	}

	report.finish()
	log.WithField("unloaded", len(report.Unloaded)).Info("Unloaded all projects")
	return report, nil
}

func (s *Service) reload(ctx context.Context, log *logrus.Entry, project projectpath.Path, handle Handle) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload cancelled: %w", err)
	}
	if s.opts.DryRun {
		log.WithField("project", string(project)).Debug("Would reload project")
		return nil
	}

	err := s.host.ReloadProject(ctx, handle)
	s.metrics.ObserveReload(err)
	if err != nil {
		log.WithError(err).WithField("project", string(project)).Error("Failed to reload project")
		return &HostError{Op: "reload", Project: string(project), Err: err}
	}

	log.WithField("project", string(project)).Debug("Reloaded project")
	return nil
}

// commit persists host changes when the host buffers them
func (s *Service) commit(ctx context.Context, changed int) error {
	if s.opts.DryRun || changed == 0 {
		return nil
	}
	committer, ok := s.host.(Committer)
	if !ok {
		return nil
	}
	if err := committer.Commit(ctx); err != nil {
		return &HostError{Op: "commit", Err: err}
	}
	return nil
}

func toStrings(paths []projectpath.Path) []string {
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		result = append(result, string(p))
	}
	return result
}
