package api

import (
	"net/http"

	"github.com/platinummonkey/slnreload/pkg/dependencies"
	"github.com/platinummonkey/slnreload/pkg/httputil"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/platinummonkey/slnreload/pkg/reload"
)

// getClosure handles GET /api/v1/closure?root=...
func (s *Server) getClosure(w http.ResponseWriter, r *http.Request) {
	roots := httputil.ParseQueryList(r, "root")
	if !httputil.ValidateAll(w, httputil.RequireNonEmpty(roots, "root")) {
		return
	}

	roots, err := s.absRoots(roots)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	closures, err := s.resolver.ResolveAll(r.Context(), roots)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := ClosureResponse{Closures: make([]ClosureView, 0, len(closures))}
	cmp := projectpath.DefaultComparer()
	if len(closures) > 0 {
		cmp = closures[0].Comparer()
	}
	for _, c := range closures {
		resp.Closures = append(resp.Closures, newClosureView(c))
	}
	resp.Union = pathStrings(dependencies.Union(cmp, closures...))

	httputil.WriteSuccess(w, resp)
}

// getClosureGraph handles GET /api/v1/closure/graph?root=...&depth=...
func (s *Server) getClosureGraph(w http.ResponseWriter, r *http.Request) {
	roots := httputil.ParseQueryList(r, "root")
	depth, err := httputil.ParseQueryInt(r, "depth", -1)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if !httputil.ValidateAll(w,
		httputil.RequireNonEmpty(roots, "root"),
		httputil.RequireAtLeast(depth, -1, "depth"),
	) {
		return
	}
	if len(roots) > 1 {
		httputil.WriteBadRequest(w, "graph takes exactly one root")
		return
	}

	roots, err = s.absRoots(roots)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	closure, err := s.resolver.Resolve(r.Context(), roots[0])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, dependencies.BuildCytoscapeGraph(closure, depth))
}

// getDependencies handles GET /api/v1/closure/dependencies?root=...&project=...&transitive=...
func (s *Server) getDependencies(w http.ResponseWriter, r *http.Request) {
	transitive, err := httputil.ParseQueryBool(r, "transitive", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	s.queryClosure(w, r, func(c *dependencies.Closure, project string) ([]dependencies.Dependency, error) {
		return c.Dependencies(project, transitive)
	})
}

// getDependents handles GET /api/v1/closure/dependents?root=...&project=...
func (s *Server) getDependents(w http.ResponseWriter, r *http.Request) {
	s.queryClosure(w, r, (*dependencies.Closure).Dependents)
}

// queryClosure resolves the single root and runs query for project, which
// defaults to the root and resolves against it when relative.
func (s *Server) queryClosure(w http.ResponseWriter, r *http.Request, query func(*dependencies.Closure, string) ([]dependencies.Dependency, error)) {
	roots := httputil.ParseQueryList(r, "root")
	if !httputil.ValidateAll(w, httputil.RequireNonEmpty(roots, "root")) {
		return
	}
	if len(roots) > 1 {
		httputil.WriteBadRequest(w, "dependency queries take exactly one root")
		return
	}

	roots, err := s.absRoots(roots)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	closure, err := s.resolver.Resolve(r.Context(), roots[0])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	project := string(closure.Root())
	if q := r.URL.Query().Get("project"); q != "" {
		p, err := projectpath.Resolve(closure.Root(), q)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		project = string(p)
	}

	deps, err := query(closure, project)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, DependenciesResponse{
		Root:         string(closure.Root()),
		Project:      project,
		Dependencies: deps,
		Count:        len(deps),
	})
}

// listUnloaded handles GET /api/v1/projects/unloaded
func (s *Server) listUnloaded(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.Host().ListUnloadedProjects(r.Context())
	if err != nil {
		s.writeError(w, r, &reload.HostError{Op: "list", Err: err})
		return
	}
	httputil.WriteSuccess(w, newProjectsResponse(entries))
}

// listLoaded handles GET /api/v1/projects/loaded
func (s *Server) listLoaded(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.Host().ListLoadedProjects(r.Context())
	if err != nil {
		s.writeError(w, r, &reload.HostError{Op: "list", Err: err})
		return
	}
	httputil.WriteSuccess(w, newProjectsResponse(entries))
}

// reloadWithReferences handles POST /api/v1/reload
func (s *Server) reloadWithReferences(w http.ResponseWriter, r *http.Request) {
	var req ReloadRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.ValidateAll(w, httputil.RequireNonEmpty(req.Roots, "roots")) {
		return
	}

	roots, err := s.absRoots(req.Roots)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.serviceFor(req.DryRun).ReloadWithReferences(r.Context(), roots...)
	if err != nil {
		s.writeOperationError(w, r, report, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

// reloadAll handles POST /api/v1/reload-all?dry_run=...
func (s *Server) reloadAll(w http.ResponseWriter, r *http.Request) {
	dryRun, err := httputil.ParseQueryBool(r, "dry_run", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	report, err := s.serviceFor(dryRun).ReloadAll(r.Context())
	if err != nil {
		s.writeOperationError(w, r, report, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

// unloadAll handles POST /api/v1/unload-all?dry_run=...
func (s *Server) unloadAll(w http.ResponseWriter, r *http.Request) {
	dryRun, err := httputil.ParseQueryBool(r, "dry_run", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	report, err := s.serviceFor(dryRun).UnloadAll(r.Context())
	if err != nil {
		s.writeOperationError(w, r, report, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

func (s *Server) serviceFor(dryRun bool) *reload.Service {
	if dryRun {
		return s.service.WithDryRun()
	}
	return s.service
}
