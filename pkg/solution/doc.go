// Package solution reads solution files and exposes a solution filter as a
// reload host.
//
// # Overview
//
// ParseSolution lists the projects of a classic .sln or an XML .slnx
// solution. A Filter wraps a .slnf solution filter: projects named by the
// filter are loaded, every other project of the solution is unloaded.
// Reloading a project adds it to the filter and unloading removes it, so
// a closure can be brought into an IDE by saving the filter and opening it.
//
//	filter, err := solution.OpenFilter("App.slnf", projectpath.DefaultComparer())
//	service := reload.NewService(filter, resolver, reload.Options{}, logger, nil)
//	report, err := service.ReloadWithReferences(ctx, "src/App/App.csproj")
//
// The service commits the filter after a successful operation.
package solution
