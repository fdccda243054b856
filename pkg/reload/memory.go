package reload

import (
	"context"
	"fmt"
	"sync"

	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

type memoryProject struct {
	path   projectpath.Path
	handle Handle
	loaded bool
}

// MemoryHost is a Host that keeps project state in memory. It is safe for
// concurrent use.
type MemoryHost struct {
	mu       sync.RWMutex
	cmp      projectpath.Comparer
	projects []*memoryProject
	byHandle map[Handle]*memoryProject
	history  []Handle
}

// NewMemoryHost creates an empty in-memory host
func NewMemoryHost(cmp projectpath.Comparer) *MemoryHost {
	return &MemoryHost{
		cmp:      cmp,
		projects: make([]*memoryProject, 0),
		byHandle: make(map[Handle]*memoryProject),
		history:  make([]Handle, 0),
	}
}

// Add registers a project and returns its handle. Adding a known path
// updates its state.
func (h *MemoryHost) Add(path projectpath.Path, loaded bool) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := h.cmp.Key(path)
	for _, p := range h.projects {
		if h.cmp.Key(p.path) == key {
			p.loaded = loaded
			return p.handle
		}
	}

	p := &memoryProject{
		path:   path,
		handle: Handle(fmt.Sprintf("project-%d", len(h.projects)+1)),
		loaded: loaded,
	}
	h.projects = append(h.projects, p)
	h.byHandle[p.handle] = p
	return p.handle
}

// IsLoaded reports whether path is known and loaded
func (h *MemoryHost) IsLoaded(path projectpath.Path) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	key := h.cmp.Key(path)
	for _, p := range h.projects {
		if h.cmp.Key(p.path) == key {
			return p.loaded
		}
	}
	return false
}

// Reloads returns the handles passed to ReloadProject, in call order
func (h *MemoryHost) Reloads() []Handle {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Handle, len(h.history))
	copy(out, h.history)
	return out
}

func (h *MemoryHost) list(loaded bool) []ProjectEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := make([]ProjectEntry, 0)
	for _, p := range h.projects {
		if p.loaded == loaded {
			entries = append(entries, ProjectEntry{Path: p.path, Handle: p.handle})
		}
	}
	return entries
}

func (h *MemoryHost) ListUnloadedProjects(ctx context.Context) ([]ProjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.list(false), nil
}

func (h *MemoryHost) ListLoadedProjects(ctx context.Context) ([]ProjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.list(true), nil
}

func (h *MemoryHost) ReloadProject(ctx context.Context, handle Handle) error {
	return h.set(ctx, handle, true)
}

func (h *MemoryHost) UnloadProject(ctx context.Context, handle Handle) error {
	return h.set(ctx, handle, false)
}

func (h *MemoryHost) set(ctx context.Context, handle Handle, loaded bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.byHandle[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	p.loaded = loaded
	if loaded {
		h.history = append(h.history, handle)
	}
	return nil
}
