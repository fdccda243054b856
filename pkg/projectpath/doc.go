// Package projectpath provides canonical identities for project files.
//
// # Overview
//
// Project files are referenced by relative or absolute paths written on
// whichever platform authored the solution, so the same file can show up as
// `..\Lib\Lib.csproj`, `../Lib/Lib.csproj` or `file:///C:/src/Lib/Lib.csproj`.
// This package folds all of those into one forward-slash, cleaned, absolute
// Path and derives a comparison Key from it.
//
// # Usage
//
//	base, _ := projectpath.Normalize(`C:\solution\App\App.csproj`)
//	lib, _ := projectpath.Resolve(base, `..\Lib\Lib.csproj`)
//	// lib == "C:/solution/Lib/Lib.csproj"
//
//	cmp := projectpath.DefaultComparer()
//	set := map[projectpath.Key]projectpath.Path{cmp.Key(lib): lib}
//
// Relative references are always resolved against the declaring project's
// own location, never the process working directory.
package projectpath
