package dependencies

import (
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

var (
	// ErrResolutionTimeout matches every ResolutionTimeout
	ErrResolutionTimeout = errors.New("resolution exceeded its bound")

	// ErrNotInClosure is returned when a query names a project outside the closure
	ErrNotInClosure = errors.New("project is not in the closure")
)

// ResolutionTimeout reports a resolution that visited more projects than
// allowed or ran longer than its deadline. It is distinct from read errors:
// the graph may be fine but too large for the configured bound.
type ResolutionTimeout struct {
	Root    projectpath.Path
	Visited int
	Limit   int           // project bound, 0 when the deadline fired
	Elapsed time.Duration // wall time spent before giving up
}

func (e *ResolutionTimeout) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("resolving %s visited more than %d projects", e.Root, e.Limit)
	}
	return fmt.Sprintf("resolving %s timed out after %s (%d projects visited)", e.Root, e.Elapsed.Round(time.Millisecond), e.Visited)
}

func (e *ResolutionTimeout) Unwrap() error {
	return ErrResolutionTimeout
}

// IsResolutionTimeout checks if an error is a resolution timeout
func IsResolutionTimeout(err error) bool {
	return errors.Is(err, ErrResolutionTimeout)
}
