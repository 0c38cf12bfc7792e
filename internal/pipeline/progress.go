package pipeline

import "time"

// Progress is one stage transition of a run
type Progress struct {
	RunID   string     `json:"run_id"`
	StageID string     `json:"stage_id"`
	Name    string     `json:"name"`
	Status  StepStatus `json:"status"`
	Step    int        `json:"step"`
	Total   int        `json:"total"`
	Message string     `json:"message,omitempty"`
	Time    time.Time  `json:"time"`
}

// Percent is the share of stages finished, including this one when it is done
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	done := p.Step - 1
	if p.Status == StepStatusCompleted || p.Status == StepStatusFailed || p.Status == StepStatusSkipped {
		done = p.Step
	}
	return float64(done) / float64(p.Total) * 100
}

// ProgressReporter receives stage transitions as they happen
type ProgressReporter interface {
	ReportProgress(p Progress)
}

// ProgressFunc adapts a function to ProgressReporter
type ProgressFunc func(p Progress)

// ReportProgress calls f(p)
func (f ProgressFunc) ReportProgress(p Progress) { f(p) }
