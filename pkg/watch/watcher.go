package watch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/slnreload/pkg/async"
	"github.com/platinummonkey/slnreload/pkg/msbuild"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/platinummonkey/slnreload/pkg/reload"
	"github.com/sirupsen/logrus"
)

// DefaultDelay is how long the watcher waits for edits to settle
const DefaultDelay = 500 * time.Millisecond

// Refresher brings the closure of roots into the loaded state
type Refresher interface {
	ReloadWithReferences(ctx context.Context, roots ...string) (*reload.Report, error)
}

// Options configures a Watcher
type Options struct {
	Roots []string

	// Delay debounces bursts of file events into one refresh
	Delay time.Duration

	// Timeout bounds each refresh; zero leaves it unbounded
	Timeout time.Duration

	// OnRefresh is called after every refresh attempt
	OnRefresh func(*reload.Report, error)
}

// Watcher keeps the closure of a set of roots loaded while its project
// files change
type Watcher struct {
	refresher Refresher
	opts      Options
	log       *logrus.Logger

	mu      sync.Mutex
	watched map[string]bool
}

// New creates a watcher for roots
func New(refresher Refresher, opts Options, log *logrus.Logger) (*Watcher, error) {
	if len(opts.Roots) == 0 {
		return nil, fmt.Errorf("at least one root project is required")
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if log == nil {
		log = logrus.New()
	}
	return &Watcher{
		refresher: refresher,
		opts:      opts,
		log:       log,
		watched:   make(map[string]bool),
	}, nil
}

// Watched returns the directories currently watched, sorted
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make([]string, 0, len(w.watched))
	for dir := range w.watched {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Run refreshes once, then again after every settled change to a project
// file in the closure's directories, until ctx is done. Refresh failures
// are logged and the previous watch set is kept.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	initial := make([]string, 0, len(w.opts.Roots))
	for _, root := range w.opts.Roots {
		p, err := projectpath.Abs(root)
		if err != nil {
			return fmt.Errorf("invalid root project %q: %w", root, err)
		}
		initial = append(initial, string(p))
	}
	w.retarget(fsw, initial)
	w.refresh(ctx, fsw)

	timer := time.NewTimer(w.opts.Delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	w.log.WithField("directories", len(w.Watched())).Info("Started watching project files")
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !msbuild.IsProjectFile(event.Name) {
				continue
			}
			w.log.WithFields(logrus.Fields{
				"file": event.Name,
				"op":   event.Op.String(),
			}).Debug("Project file changed")
			timer.Reset(w.opts.Delay)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Watcher error")

		case <-timer.C:
			w.refresh(ctx, fsw)
		}
	}
}

func (w *Watcher) refresh(ctx context.Context, fsw *fsnotify.Watcher) {
	var (
		report *reload.Report
		err    error
	)
	done := async.SafeGo(ctx, w.log, w.opts.Timeout, "watch refresh", func(ctx context.Context) error {
		report, err = w.refresher.ReloadWithReferences(ctx, w.opts.Roots...)
		return nil
	})
	<-done

	if err == nil && report == nil {
		err = errors.New("refresh produced no report")
	}
	if w.opts.OnRefresh != nil {
		w.opts.OnRefresh(report, err)
	}
	if err != nil {
		w.log.WithError(err).Warn("Refresh failed, keeping previous watch set")
		return
	}

	w.retarget(fsw, report.Closure)
	w.log.WithFields(logrus.Fields{
		"operation_id": report.ID,
		"reloaded":     len(report.Reloaded),
	}).Info("Refreshed closure")
}

// retarget watches exactly the directories holding projects
func (w *Watcher) retarget(fsw *fsnotify.Watcher, projects []string) {
	want := make(map[string]bool, len(projects))
	for _, p := range projects {
		want[projectpath.Path(p).Dir().OS()] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range w.watched {
		if want[dir] {
			continue
		}
		if err := fsw.Remove(dir); err != nil {
			w.log.WithError(err).WithField("directory", dir).Debug("Failed to stop watching directory")
		}
		delete(w.watched, dir)
	}
	for dir := range want {
		if w.watched[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.log.WithError(err).WithField("directory", dir).Warn("Failed to watch directory")
			continue
		}
		w.watched[dir] = true
	}
}
