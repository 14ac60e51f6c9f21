package batch

import (
	"errors"
	"fmt"

	"github.com/airbusgeo/sentinelhub-batch-go/common"
)

// ErrInvalidArgument marks malformed or mutually-exclusive arguments
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNoData marks data that was expected but absent from a service
// response (no bounding box, empty result feed, ...)
var ErrNoData = errors.New("no data")

// StatusError reports a batch request whose status is one of the
// caller-supplied failure statuses
type StatusError struct {
	JobID   string
	Status  common.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("batch request %s has status %s and error message: %q", e.JobID, e.Status, e.Message)
	}
	return fmt.Sprintf("batch request %s has status %s", e.JobID, e.Status)
}
