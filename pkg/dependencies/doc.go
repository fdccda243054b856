// Package dependencies resolves the transitive closure of project-to-project references.
//
// # Overview
//
// Starting from a root project, the Resolver walks the reference relation
// depth-first, reading each project once, and returns the Closure: the root
// plus every project reachable from it. Projects reached through several
// paths (diamonds) are visited once; cycles are flattened into the set
// without error.
//
// # Usage Example
//
// Resolve a closure:
//
//	reader := msbuild.NewReader(msbuild.Options{})
//	resolver := dependencies.NewResolver(dependencies.ReaderSource(reader), dependencies.Options{
//		MaxProjects: 5000,
//		Timeout:     30 * time.Second,
//	}, logger, nil)
//
//	closure, err := resolver.Resolve(ctx, "src/App/App.csproj")
//	for _, p := range closure.Order() {
//		fmt.Println(p) // dependencies before dependents, root last
//	}
//
// Resolve a multi-project selection:
//
//	closures, err := resolver.ResolveAll(ctx, []string{appPath, testsPath})
//	members := dependencies.Union(resolver.Comparer(), closures...)
//
// # Failure Semantics
//
// Resolution is fail-fast. A project that cannot be read
// (msbuild.ProjectReadError) or a reference that cannot be resolved
// (msbuild.UnresolvedReferencePath) aborts the whole resolution and no
// closure is returned, since an incomplete closure would under-reload.
// Exceeding Options.MaxProjects or Options.Timeout returns a
// ResolutionTimeout, distinct from bad data.
//
// Each Resolve call owns its traversal state and its load context; nothing
// is shared or cached across calls.
//
// # Related Packages
//
//   - pkg/msbuild: Reads references from project files
//   - pkg/reload: Reloads the unloaded members of a closure
package dependencies
