// Package cli provides the slnreload command-line interface.
//
// # Overview
//
// Every command reads .slnreload.yaml (or -config), then SLNRELOAD_*
// environment variables, then its own flags. Commands that change projects
// need a solution: either -solution, whose filter defaults to the same name
// with a .slnf extension, or an existing -filter.
//
// # Commands
//
// closure: print the projects reachable from the roots, dependencies first
//
//	slnreload closure -solution App.sln src/App/App.csproj
//	slnreload closure -json src/App/App.csproj src/Tool/Tool.csproj
//	slnreload closure -graph -depth 2 src/App/App.csproj
//	slnreload closure -dependents src/Util/Util.csproj src/App/App.csproj
//
// reload: load the roots and everything they reference
//
//	slnreload reload -solution App.sln -dry-run src/App/App.csproj
//
// reload-all, unload-all: change every project of the solution
//
//	slnreload unload-all -filter App.slnf
//
// list: show which projects are loaded
//
//	slnreload list -state unloaded -solution App.sln
//
// watch: keep closures loaded while project files change
//
//	slnreload watch -solution App.sln -delay 1s src/App/App.csproj
//
// serve: expose the same operations over HTTP (see package api)
//
//	slnreload serve -solution App.sln -addr :8080 -watch src/App/App.csproj
//
// # Exit Status
//
// Errors are printed to stderr and the process exits 1. Resolution errors
// name the project file that could not be read or resolved.
package cli
