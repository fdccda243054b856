package reload

import (
	"context"

	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

// Handle is the host's opaque identifier for a project
type Handle string

// ProjectEntry pairs a project file with its host handle
type ProjectEntry struct {
	Path   projectpath.Path `json:"path"`
	Handle Handle           `json:"handle"`
}

// Host is the environment that owns the loaded/unloaded state of projects.
// Listings are complete, ordered snapshots; call again to start over.
type Host interface {
	ListUnloadedProjects(ctx context.Context) ([]ProjectEntry, error)
	ListLoadedProjects(ctx context.Context) ([]ProjectEntry, error)
	ReloadProject(ctx context.Context, handle Handle) error
	UnloadProject(ctx context.Context, handle Handle) error
}

// Committer is implemented by hosts that buffer changes until told to
// persist them
type Committer interface {
	Commit(ctx context.Context) error
}
