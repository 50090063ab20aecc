package model

import "time"

// RunReport summarises one pipeline run.
type RunReport struct {
	RunID              string             `json:"run_id"`
	StartedAt          time.Time          `json:"started_at"`
	FinishedAt         time.Time          `json:"finished_at"`
	Symbols            int                `json:"symbols"`
	Records            int                `json:"records"`
	Highlighted        int                `json:"highlighted"`
	HighlightedSymbols []string           `json:"highlighted_symbols,omitempty"`
	Skipped            int                `json:"skipped"`
	SkipCounts         map[SkipReason]int `json:"skip_counts,omitempty"`
	Persisted          bool               `json:"persisted"`
	Emailed            int                `json:"emailed"`
	Published          bool               `json:"published"`
	Errors             []string           `json:"errors,omitempty"`
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
