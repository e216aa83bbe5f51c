package model

import "sort"

// RunStage tracks where a facility is in its enrichment lifecycle.
type RunStage string

const (
	StagePending     RunStage = "pending"
	StageFetching    RunStage = "fetching"
	StageExtracting  RunStage = "extracting"
	StageClassifying RunStage = "classifying"
	StagePersisted   RunStage = "persisted"
	StageDone        RunStage = "done"
	StageFailed      RunStage = "failed"
)

// RunStatus classifies how much data an enrichment run recovered.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// RunResult is the per-facility outcome of one enrichment attempt.
type RunResult struct {
	FacilityID   string    `json:"facility_id"`
	FacilityName string    `json:"facility_name"`
	Country      string    `json:"country,omitempty"`
	Website      string    `json:"website,omitempty"`
	Stage        RunStage  `json:"stage"`
	Status       RunStatus `json:"status"`
	Doctors      int       `json:"doctors"`
	Prices       int       `json:"prices"`
	Testimonials int       `json:"testimonials"`
	Packages     int       `json:"packages"`
	TotalItems   int       `json:"total_items"`
	Errors       []string  `json:"errors,omitempty"`
}

// BatchReport accumulates results across an entire run. It is also the
// payload serialized into checkpoint files, so a resumed run can
// recover exactly which facilities were already processed.
type BatchReport struct {
	StartedAt   string      `json:"started_at"`
	ElapsedSecs float64     `json:"elapsed_secs"`
	Succeeded   int         `json:"succeeded"`
	Partial     int         `json:"partial"`
	Failed      int         `json:"failed"`
	Details     []RunResult `json:"details"`
}

// Add appends a result and bumps the matching counter.
func (r *BatchReport) Add(res RunResult) {
	switch res.Status {
	case RunSuccess:
		r.Succeeded++
	case RunPartial:
		r.Partial++
	default:
		r.Failed++
	}
	r.Details = append(r.Details, res)
}

// Processed is the number of facilities attempted so far.
func (r *BatchReport) Processed() int {
	return len(r.Details)
}

// SuccessRate is the fraction of processed facilities classified as
// success, in [0, 1]. Zero when nothing was processed.
func (r *BatchReport) SuccessRate() float64 {
	if len(r.Details) == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(len(r.Details))
}

// Totals sums extracted items across all results.
func (r *BatchReport) Totals() (doctors, prices, testimonials, packages int) {
	for _, d := range r.Details {
		doctors += d.Doctors
		prices += d.Prices
		testimonials += d.Testimonials
		packages += d.Packages
	}
	return
}

// TopPerformers returns up to n results ordered by item count, most
// data first.
func (r *BatchReport) TopPerformers(n int) []RunResult {
	top := make([]RunResult, len(r.Details))
	copy(top, r.Details)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].TotalItems > top[j].TotalItems
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}

// ProcessedIDs returns the set of facility IDs already recorded, used
// to skip completed work when resuming from a checkpoint.
func (r *BatchReport) ProcessedIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Details))
	for _, d := range r.Details {
		ids[d.FacilityID] = struct{}{}
	}
	return ids
}
