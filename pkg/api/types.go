package api

import (
	"github.com/platinummonkey/slnreload/pkg/dependencies"
	"github.com/platinummonkey/slnreload/pkg/httputil"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/platinummonkey/slnreload/pkg/reload"
)

// ClosureView is one resolved closure
type ClosureView struct {
	Root      string              `json:"root"`
	Projects  []string            `json:"projects"`
	Order     []string            `json:"order"`
	Cycles    []string            `json:"cycles,omitempty"`
	Edges     []dependencies.Edge `json:"edges"`
	ElapsedMS int64               `json:"elapsed_ms"`
}

// ClosureResponse answers GET /api/v1/closure
type ClosureResponse struct {
	Closures []ClosureView `json:"closures"`
	// Union is every member of every closure, dependencies first
	Union []string `json:"union"`
}

// DependenciesResponse answers the dependency query routes
type DependenciesResponse struct {
	Root         string                    `json:"root"`
	Project      string                    `json:"project"`
	Dependencies []dependencies.Dependency `json:"dependencies"`
	Count        int                       `json:"count"`
}

// ReloadRequest is the body of POST /api/v1/reload
type ReloadRequest struct {
	Roots  []string `json:"roots"`
	DryRun bool     `json:"dry_run"`
}

// ProjectView is one project known to the host
type ProjectView struct {
	Path   string `json:"path"`
	Handle string `json:"handle"`
}

// ProjectsResponse answers the project listing routes
type ProjectsResponse struct {
	Projects []ProjectView `json:"projects"`
	Count    int           `json:"count"`
}

// OperationErrorResponse is returned when a host operation fails part way;
// Report lists what was changed before the failure.
type OperationErrorResponse struct {
	httputil.ErrorResponse
	Report *reload.Report `json:"report,omitempty"`
}

func newClosureView(c *dependencies.Closure) ClosureView {
	return ClosureView{
		Root:      string(c.Root()),
		Projects:  pathStrings(c.Paths()),
		Order:     pathStrings(c.Order()),
		Cycles:    c.Cycles(),
		Edges:     c.Edges(),
		ElapsedMS: c.Elapsed().Milliseconds(),
	}
}

func newProjectsResponse(entries []reload.ProjectEntry) ProjectsResponse {
	resp := ProjectsResponse{Projects: make([]ProjectView, 0, len(entries))}
	for _, e := range entries {
		resp.Projects = append(resp.Projects, ProjectView{Path: string(e.Path), Handle: string(e.Handle)})
	}
	resp.Count = len(resp.Projects)
	return resp
}

func pathStrings(paths []projectpath.Path) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, string(p))
	}
	return out
}
