package dependencies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/slnreload/pkg/msbuild"
	"github.com/platinummonkey/slnreload/pkg/observability"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var errDeadline = errors.New("resolution deadline exceeded")

// Session reads references for the duration of one resolution
type Session interface {
	ReadReferences(ctx context.Context, project projectpath.Path) ([]projectpath.Path, error)
	Close() error
}

// Source opens a fresh Session for each resolution
type Source func() Session

// ReaderSource opens msbuild load contexts from reader
func ReaderSource(reader *msbuild.Reader) Source {
	return func() Session {
		return reader.NewLoadContext()
	}
}

// Options bounds a resolution
type Options struct {
	// MaxProjects fails the resolution once more projects would be visited; 0 is unbounded
	MaxProjects int

	// Timeout fails the resolution after this much wall time; 0 is unbounded
	Timeout time.Duration

	Comparer projectpath.Comparer
}

// Resolver computes reference closures. It holds no per-resolution state and
// is safe for concurrent use.
type Resolver struct {
	source  Source
	opts    Options
	log     *logrus.Logger
	metrics *observability.Metrics
}

// NewResolver creates a new closure resolver
func NewResolver(source Source, opts Options, log *logrus.Logger, metrics *observability.Metrics) *Resolver {
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{
		source:  source,
		opts:    opts,
		log:     log,
		metrics: metrics,
	}
}

// Comparer returns the path identity used for deduplication
func (r *Resolver) Comparer() projectpath.Comparer {
	return r.opts.Comparer
}

// Resolve returns root plus every project reachable from it through
// reference edges. Any unreadable project or unresolvable reference aborts
// the whole resolution; no partial closure is returned.
func (r *Resolver) Resolve(ctx context.Context, root string) (*Closure, error) {
	rootPath, err := projectpath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root project %q: %w", root, err)
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, r.opts.Timeout, errDeadline)
		defer cancel()
	}

	session := r.source()
	t := &traversal{
		root:    rootPath,
		cmp:     r.opts.Comparer,
		limit:   r.opts.MaxProjects,
		session: session,
		visited: make(map[projectpath.Key]projectpath.Path),
		graph:   NewDependencyGraph(r.opts.Comparer),
		order:   make([]projectpath.Path, 0),
		start:   time.Now(),
		log:     r.log.WithField("root", string(rootPath)),
	}
	defer func() {
		if err := session.Close(); err != nil {
			t.log.WithError(err).Warn("Failed to release load context")
		}
	}()

	err = t.visit(ctx, rootPath)
	elapsed := time.Since(t.start)
	parsed := 0
	if lc, ok := session.(*msbuild.LoadContext); ok {
		parsed = lc.Loads()
	}

	if err != nil {
		r.metrics.ObserveResolution(resolutionStatus(err), elapsed, len(t.visited), parsed)
		t.log.WithError(err).WithField("visited", len(t.visited)).Warn("Closure resolution failed")
		return nil, err
	}

	closure := t.closure(elapsed)
	r.metrics.ObserveResolution("success", elapsed, closure.Len(), parsed)
	t.log.WithFields(logrus.Fields{
		"projects": closure.Len(),
		"elapsed":  elapsed.String(),
	}).Debug("Closure resolved")

	return closure, nil
}

// ResolveAll resolves several roots concurrently, each with its own session,
// and returns their closures in the order of roots. The first failure
// cancels the remaining resolutions.
func (r *Resolver) ResolveAll(ctx context.Context, roots []string) ([]*Closure, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("at least one root project is required")
	}

	closures := make([]*Closure, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			closure, err := r.Resolve(gctx, root)
			if err != nil {
				return err
			}
			closures[i] = closure
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return closures, nil
}

func resolutionStatus(err error) string {
	switch {
	case IsResolutionTimeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}

// traversal is the state of one Resolve call
type traversal struct {
	root    projectpath.Path
	cmp     projectpath.Comparer
	limit   int
	session Session
	visited map[projectpath.Key]projectpath.Path
	graph   *DependencyGraph
	order   []projectpath.Path
	start   time.Time
	log     *logrus.Entry
}

func (t *traversal) visit(ctx context.Context, project projectpath.Path) error {
	key := t.cmp.Key(project)
	if _, ok := t.visited[key]; ok {
		// Already on the current path (cycle) or finished (diamond)
		return nil
	}
	if err := t.check(ctx); err != nil {
		return err
	}
	t.visited[key] = project

	refs, err := t.session.ReadReferences(ctx, project)
	if err != nil {
		return t.wrap(ctx, project, err)
	}
	t.graph.AddNode(project, refs)
	t.log.WithFields(logrus.Fields{
		"project":    string(project),
		"references": len(refs),
	}).Debug("Visited project")

	for _, ref := range refs {
		if err := t.visit(ctx, ref); err != nil {
			return err
		}
	}

	t.order = append(t.order, project)
	return nil
}

// check enforces cancellation and bounds before a new project is read
func (t *traversal) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return t.contextError(ctx)
	}
	if t.limit > 0 && len(t.visited) >= t.limit {
		return &ResolutionTimeout{
			Root:    t.root,
			Visited: len(t.visited),
			Limit:   t.limit,
			Elapsed: time.Since(t.start),
		}
	}
	return nil
}

func (t *traversal) contextError(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), errDeadline) {
		return &ResolutionTimeout{
			Root:    t.root,
			Visited: len(t.visited),
			Elapsed: time.Since(t.start),
		}
	}
	return fmt.Errorf("resolution of %s cancelled: %w", t.root, ctx.Err())
}

// wrap guarantees every session failure names the offending project
func (t *traversal) wrap(ctx context.Context, project projectpath.Path, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return t.contextError(ctx)
	}
	if msbuild.IsProjectRead(err) || msbuild.IsUnresolvedReference(err) {
		return err
	}
	return &msbuild.ProjectReadError{Path: project, Err: err}
}

func (t *traversal) closure(elapsed time.Duration) *Closure {
	c := &Closure{
		root:    t.root,
		cmp:     t.cmp,
		members: t.visited,
		order:   t.order,
		graph:   t.graph,
		elapsed: elapsed,
	}
	c.ensureRoot()
	return c
}
