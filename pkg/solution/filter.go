package solution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/platinummonkey/slnreload/pkg/reload"
)

// filterFile is the .slnf document layout
type filterFile struct {
	Solution filterSolution `json:"solution"`
}

type filterSolution struct {
	Path     string   `json:"path"`
	Projects []string `json:"projects"`
}

// Filter is a solution filter: the projects it lists are loaded, every
// other project of the solution is unloaded. Filter implements reload.Host;
// changes are kept in memory until Save or Commit.
type Filter struct {
	mu       sync.RWMutex
	path     projectpath.Path
	solution *Solution
	cmp      projectpath.Comparer
	loaded   map[projectpath.Key]projectpath.Path
	dirty    bool
}

// OpenFilter reads a .slnf file and the solution it points to
func OpenFilter(path string, cmp projectpath.Comparer) (*Filter, error) {
	p, err := projectpath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid filter path %q: %w", path, err)
	}

	data, err := os.ReadFile(p.OS())
	if err != nil {
		return nil, fmt.Errorf("failed to read filter %s: %w", p, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var doc filterFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: filter %s: %v", ErrInvalidSolution, p, err)
	}
	if doc.Solution.Path == "" {
		return nil, fmt.Errorf("%w: filter %s names no solution", ErrInvalidSolution, p)
	}

	slnPath, err := projectpath.Resolve(p, doc.Solution.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: filter %s: %v", ErrInvalidSolution, p, err)
	}
	sol, err := ParseSolution(string(slnPath))
	if err != nil {
		return nil, err
	}

	f := newFilter(p, sol, cmp)
	for _, rel := range doc.Solution.Projects {
		project, err := projectpath.Resolve(sol.Path, rel)
		if err != nil {
			return nil, fmt.Errorf("%w: filter %s entry %q: %v", ErrInvalidSolution, p, rel, err)
		}
		if known, ok := sol.Find(cmp, project); ok {
			project = known.Path
		}
		f.loaded[cmp.Key(project)] = project
	}
	return f, nil
}

// NewFilter starts an empty filter for the solution at slnPath, to be saved
// at path. Every project starts unloaded.
func NewFilter(slnPath, path string, cmp projectpath.Comparer) (*Filter, error) {
	p, err := projectpath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid filter path %q: %w", path, err)
	}
	sol, err := ParseSolution(slnPath)
	if err != nil {
		return nil, err
	}

	f := newFilter(p, sol, cmp)
	f.dirty = true
	return f, nil
}

func newFilter(path projectpath.Path, sol *Solution, cmp projectpath.Comparer) *Filter {
	return &Filter{
		path:     path,
		solution: sol,
		cmp:      cmp,
		loaded:   make(map[projectpath.Key]projectpath.Path),
	}
}

// Path returns where the filter is saved
func (f *Filter) Path() projectpath.Path {
	return f.path
}

// Solution returns the filtered solution
func (f *Filter) Solution() *Solution {
	return f.solution
}

// Dirty reports whether the filter has unsaved changes
func (f *Filter) Dirty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dirty
}

// IsLoaded reports whether path is listed by the filter
func (f *Filter) IsLoaded(path projectpath.Path) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.loaded[f.cmp.Key(path)]
	return ok
}

func (f *Filter) list(loaded bool) []reload.ProjectEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries := make([]reload.ProjectEntry, 0)
	for _, p := range f.solution.Projects {
		if _, ok := f.loaded[f.cmp.Key(p.Path)]; ok == loaded {
			entries = append(entries, reload.ProjectEntry{Path: p.Path, Handle: reload.Handle(p.RelPath)})
		}
	}
	return entries
}

func (f *Filter) ListUnloadedProjects(ctx context.Context) ([]reload.ProjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.list(false), nil
}

func (f *Filter) ListLoadedProjects(ctx context.Context) ([]reload.ProjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.list(true), nil
}

func (f *Filter) ReloadProject(ctx context.Context, handle reload.Handle) error {
	return f.set(ctx, handle, true)
}

func (f *Filter) UnloadProject(ctx context.Context, handle reload.Handle) error {
	return f.set(ctx, handle, false)
}

func (f *Filter) set(ctx context.Context, handle reload.Handle, loaded bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.solution.Projects {
		if reload.Handle(p.RelPath) != handle {
			continue
		}
		key := f.cmp.Key(p.Path)
		if _, ok := f.loaded[key]; ok != loaded {
			if loaded {
				f.loaded[key] = p.Path
			} else {
				delete(f.loaded, key)
			}
			f.dirty = true
		}
		return nil
	}
	return fmt.Errorf("%w: %s", reload.ErrUnknownHandle, handle)
}

// Commit saves the filter
func (f *Filter) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.Save()
}

// Save writes the filter the way Visual Studio does: projects sorted,
// paths relative with backslashes.
func (f *Filter) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slnRel, err := f.cmp.Rel(f.path.Dir(), f.solution.Path)
	if err != nil {
		return fmt.Errorf("failed to locate solution from filter: %w", err)
	}

	projects := make([]string, 0, len(f.loaded))
	for _, p := range f.loaded {
		rel, err := f.cmp.Rel(f.solution.Path.Dir(), p)
		if err != nil {
			return fmt.Errorf("failed to locate %s from solution: %w", p, err)
		}
		projects = append(projects, toBackslash(rel))
	}
	sort.Strings(projects)

	data, err := json.MarshalIndent(filterFile{
		Solution: filterSolution{Path: toBackslash(slnRel), Projects: projects},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}

	if err := writeFileAtomic(f.path.OS(), append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write filter %s: %w", f.path, err)
	}
	f.dirty = false
	return nil
}

func toBackslash(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".slnf-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
