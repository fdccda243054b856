// Package msbuild reads project-to-project references out of MSBuild project files.
//
// # Overview
//
// A Reader extracts every ProjectReference item declared in a project
// (.csproj, .vbproj, .fsproj, .vcxproj, ...) and resolves its Include value
// against the declaring project's own location. It does not evaluate build
// targets or conditions, and of the imports it only reads the nearest
// Directory.Build.props; it reads exactly enough to recover the reference
// relation.
//
// # Load Contexts
//
// A LoadContext caches parsed projects for the lifetime of one resolution so
// a project reached through several paths is parsed once. Contexts are never
// shared between resolutions and must be closed:
//
//	reader := msbuild.NewReader(msbuild.Options{})
//	lc := reader.NewLoadContext()
//	defer lc.Close()
//
//	refs, err := lc.ReadReferences(ctx, projectPath)
//
// # Property Expansion
//
// Include values may use $(Name) properties. Reserved MSBuild properties
// (MSBuildThisFileDirectory, MSBuildProjectDirectory, ...) are always known;
// global properties come from Options.Properties, then the project's own
// unconditional PropertyGroup entries, then those of its Directory.Build.props.
// Conditional values such as
//
//	<PropertyGroup Condition="'$(LibRoot)' == ''">
//	  <LibRoot>..\Lib\</LibRoot>
//	</PropertyGroup>
//
// are used only when nothing else defines the name. A reference that uses an
// unknown property fails with UnresolvedReferencePath rather than silently
// expanding to an empty string. Setting the global ImportDirectoryBuildProps
// to false skips the props file.
//
// # Related Packages
//
//   - pkg/projectpath: path identity and relative resolution
//   - pkg/dependencies: walks the reference relation to a closure
package msbuild
