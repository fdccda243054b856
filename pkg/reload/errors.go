package reload

import (
	"errors"
	"fmt"
)

// ErrUnknownHandle is returned by hosts for handles they never issued
var ErrUnknownHandle = errors.New("unknown project handle")

// HostError reports a host operation that failed for one project
type HostError struct {
	Op      string // "list", "reload", "unload" or "commit"
	Project string
	Err     error
}

func (e *HostError) Error() string {
	if e.Project == "" {
		return fmt.Sprintf("host %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("host %s of %s failed: %v", e.Op, e.Project, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// IsHostError checks if an error came from the host rather than resolution
func IsHostError(err error) bool {
	var hostErr *HostError
	return errors.As(err, &hostErr)
}
