package msbuild

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

var (
	// ErrProjectRead matches every ProjectReadError
	ErrProjectRead = errors.New("project could not be read")

	// ErrUnresolvedReference matches every UnresolvedReferencePath
	ErrUnresolvedReference = errors.New("reference path could not be resolved")

	// ErrNotAProject is wrapped when the document root is not <Project>
	ErrNotAProject = errors.New("root element is not <Project>")

	// ErrContextClosed is returned by a LoadContext after Close
	ErrContextClosed = errors.New("load context is closed")
)

// ProjectReadError reports a project file that could not be opened or parsed
type ProjectReadError struct {
	Path projectpath.Path
	Err  error
}

func (e *ProjectReadError) Error() string {
	return fmt.Sprintf("failed to read project %s: %v", e.Path, e.Err)
}

func (e *ProjectReadError) Unwrap() []error {
	return []error{ErrProjectRead, e.Err}
}

// UnresolvedReferencePath reports a reference value in Project that could
// not be turned into an absolute path
type UnresolvedReferencePath struct {
	Project   projectpath.Path
	Reference string
	Err       error
}

func (e *UnresolvedReferencePath) Error() string {
	return fmt.Sprintf("failed to resolve reference %q in %s: %v", e.Reference, e.Project, e.Err)
}

func (e *UnresolvedReferencePath) Unwrap() []error {
	return []error{ErrUnresolvedReference, e.Err}
}

// IsProjectRead checks if an error is a project read error
func IsProjectRead(err error) bool {
	return errors.Is(err, ErrProjectRead)
}

// IsUnresolvedReference checks if an error is an unresolved reference error
func IsUnresolvedReference(err error) bool {
	return errors.Is(err, ErrUnresolvedReference)
}

// OffendingProject returns the project file named by a read or resolution
// error, or "" when err carries none.
func OffendingProject(err error) projectpath.Path {
	var readErr *ProjectReadError
	if errors.As(err, &readErr) {
		return readErr.Path
	}
	var refErr *UnresolvedReferencePath
	if errors.As(err, &refErr) {
		return refErr.Project
	}
	return ""
}
