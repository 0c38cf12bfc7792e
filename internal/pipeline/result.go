package pipeline

import (
	"fmt"
	"time"
)

// Messages reported on the run result
const (
	SuccessReason = "CSV files generated successfully in the data directory"
	failurePrefix = "Error generating CSV files: "
)

// Result is the outcome of a run. Fatal errors never escape Run; they are
// reported as Success false with a human-readable Reason.
type Result struct {
	Success    bool           `json:"success"`
	Reason     string         `json:"reason"`
	RunID      string         `json:"run_id"`
	ErrorType  string         `json:"error_type,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Warnings   []string       `json:"warnings,omitempty"`
	Stages     []StepSnapshot `json:"stages"`
	Files      []string       `json:"files,omitempty"`
}

func failureReason(err error) string {
	return fmt.Sprintf("%s%v", failurePrefix, err)
}
