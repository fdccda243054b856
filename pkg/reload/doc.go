// Package reload brings the unloaded projects of a reference closure back
// into the host.
//
// # Overview
//
// The Host interface is the only contract with the environment that owns
// project state: it lists unloaded and loaded projects as (path, handle)
// pairs and reloads or unloads a project by handle. Service combines a Host
// with a closure resolver:
//
//	service := reload.NewService(host, resolver, reload.Options{}, logger, metrics)
//	report, err := service.ReloadWithReferences(ctx, "src/App/App.csproj")
//
// Every closure member found in the host's unloaded listing is reloaded,
// dependencies before dependents. Members that are already loaded or not
// known to the host are reported as skipped; that is not an error. When the
// closure cannot be resolved no reload is requested at all.
//
// Hosts that buffer changes (such as a solution filter file) implement
// Committer and are committed once after a successful operation.
//
// MemoryHost is an in-memory Host for tests and dry runs.
package reload
