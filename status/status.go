package status

import (
	"fmt"
)

// Name is a coarse lifecycle state of a remote job or endpoint.
type Name int

const (
	PENDING Name = iota
	IN_PROGRESS
	SUCCEEDED
	FAILED
	STOPPED
)

var names = [...]string{
	"PENDING",
	"IN_PROGRESS",
	"SUCCEEDED",
	"FAILED",
	"STOPPED",
}

func (n Name) String() string {
	if int(n) < 0 || int(n) >= len(names) {
		return fmt.Sprintf("UNKNOWN(%d)", int(n))
	}
	return names[n]
}

// MarshalJSON implements the json.Marshaler interface
func (n Name) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", n.String())), nil
}

// IsSucceeded reports whether the state is the successful terminal one.
func (n Name) IsSucceeded() bool { return n == SUCCEEDED }

// IsFailed reports whether the state is a failed terminal one.
// A stopped job never produced a usable artifact, so it counts as failed.
func (n Name) IsFailed() bool { return n == FAILED || n == STOPPED }

// IsFinished reports whether the state is terminal.
func (n Name) IsFinished() bool { return n.IsSucceeded() || n.IsFailed() }

// Remote status titles as the platform reports them for training,
// transform and AutoML jobs.
var knownJobStatuses = map[string]Name{
	"InProgress": IN_PROGRESS,
	"Completed":  SUCCEEDED,
	"Failed":     FAILED,
	"Stopping":   IN_PROGRESS,
	"Stopped":    STOPPED,
}

// Remote status titles for hosted endpoints.
var knownEndpointStatuses = map[string]Name{
	"Creating":       IN_PROGRESS,
	"Updating":       IN_PROGRESS,
	"SystemUpdating": IN_PROGRESS,
	"RollingBack":    IN_PROGRESS,
	"InService":      SUCCEEDED,
	"Deleting":       IN_PROGRESS,
	"OutOfService":   FAILED,
	"Failed":         FAILED,
}

// FromJob converts a remote job status title into a Name.
func FromJob(title string) (Name, error) {
	n, ok := knownJobStatuses[title]
	if !ok {
		return PENDING, fmt.Errorf("unknown job status %q", title)
	}
	return n, nil
}

// FromEndpoint converts a remote endpoint status title into a Name.
func FromEndpoint(title string) (Name, error) {
	n, ok := knownEndpointStatuses[title]
	if !ok {
		return PENDING, fmt.Errorf("unknown endpoint status %q", title)
	}
	return n, nil
}
