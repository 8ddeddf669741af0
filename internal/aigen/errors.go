package aigen

import (
	"errors"
	"fmt"
)

// ErrPollTimeout means the task never reached a terminal state within the
// attempt ceiling. The job itself may still finish on the vendor side; the
// caller must submit a fresh job to retry.
var ErrPollTimeout = errors.New("aigen: task polling timed out")

// SubmitError wraps a failure to start a job at all.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return fmt.Sprintf("aigen: submit failed: %v", e.Err) }
func (e *SubmitError) Unwrap() error { return e.Err }

// RemoteError carries the vendor's message for a terminally failed task.
type RemoteError struct {
	Status  string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("aigen: task %s", e.Status)
	}
	return fmt.Sprintf("aigen: task %s: %s", e.Status, e.Message)
}

// DownloadError wraps a failure to fetch a produced image URL.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string { return fmt.Sprintf("aigen: download %s: %v", e.URL, e.Err) }
func (e *DownloadError) Unwrap() error { return e.Err }
