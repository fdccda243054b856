// Package api provides the HTTP API server for closure queries and project reloads.
//
// # Overview
//
// The server exposes the resolver and the reload service over gorilla/mux.
// Read-only routes resolve closures; mutating routes drive the project host
// through reload.Service, so concurrent requests and a running watcher are
// serialized.
//
// # Routes
//
//	GET  /api/v1/closure?root=A.csproj&root=B.csproj
//	GET  /api/v1/closure/graph?root=A.csproj&depth=2
//	GET  /api/v1/closure/dependencies?root=A.csproj&project=../B/B.csproj&transitive=true
//	GET  /api/v1/closure/dependents?root=A.csproj&project=../B/B.csproj
//	GET  /api/v1/projects/unloaded
//	GET  /api/v1/projects/loaded
//	POST /api/v1/reload              {"roots": ["A.csproj"], "dry_run": false}
//	POST /api/v1/reload-all?dry_run=true
//	POST /api/v1/unload-all?dry_run=true
//	GET  /health, /health/live, /health/ready
//	GET  /metrics
//
// Relative roots are resolved against the directory of Options.Solution.
//
// # Errors
//
// Every error body is an httputil.ErrorResponse:
//
//   - 400: missing or malformed input, roots that cannot name a file
//   - 404: a dependency query names a project outside the root's closure
//   - 422: a project could not be read or a reference could not be resolved;
//     details.project names the offending project file
//   - 504: the resolution exceeded its project bound or deadline
//   - 502: the host refused an operation; the body carries the partial report
//
// # Usage
//
//	server := api.NewServer(resolver, service, api.Options{
//		Solution: sln.Path,
//		Registry: registry,
//		Health:   health,
//	}, log, metrics)
//	http.ListenAndServe(":8080", server)
package api
