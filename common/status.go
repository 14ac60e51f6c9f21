package common

// Status of a batch processing request. Transitions are driven entirely by
// the service; the client only observes them. Unknown values are kept as-is.
type Status string

const (
	StatusCreated      Status = "CREATED"
	StatusAnalysing    Status = "ANALYSING"
	StatusAnalysisDone Status = "ANALYSIS_DONE"
	StatusProcessing   Status = "PROCESSING"
	StatusDone         Status = "DONE"
	StatusFailed       Status = "FAILED"
	StatusCanceled     Status = "CANCELED"
)

// PreProcessing returns whether the request has not started processing tiles yet
func (s Status) PreProcessing() bool {
	switch s {
	case StatusCreated, StatusAnalysing, StatusAnalysisDone:
		return true
	}
	return false
}

// Failure returns whether the request ended without processing all its tiles
func (s Status) Failure() bool {
	return s == StatusFailed || s == StatusCanceled
}

// Tile statuses are defined by the service and are not a closed set.
// Only the ones needed to compute progress are named here.
const (
	TilePending   = "PENDING"
	TileScheduled = "SCHEDULED"
	TileProcessed = "PROCESSED"
	TileFailed    = "FAILED"
)
