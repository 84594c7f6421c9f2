package domain

import "time"

type SourceKind string

const (
	SourceOHLCV      SourceKind = "ohlcv"
	SourceBlockchain SourceKind = "blockchain"
	SourceSentiment  SourceKind = "sentiment"
	SourceMacro      SourceKind = "macro"
)

type LoadStatus int

const (
	LoadAbsent LoadStatus = iota
	LoadFailed
	LoadOK
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "absent"
	}
}

// CriticalColumns are the columns a row cannot survive without. Rows missing
// any of these are dropped rather than imputed.
var CriticalColumns = []string{"Close", "Volume", "returns"}

// LabelColumns are the three prediction targets written alongside the features.
var LabelColumns = []string{"target_direction_1h", "target_multiclass_1h", "target_return_1h"}

// RetentionReport summarizes what the finalizer kept and why rows were lost.
type RetentionReport struct {
	RunAt               time.Time      `json:"run_at"`
	InitialRows         int            `json:"initial_rows"`
	DroppedCritical     int            `json:"dropped_critical"`
	DroppedMissingLabel int            `json:"dropped_missing_label"`
	DroppedResidual     int            `json:"dropped_residual"`
	FinalRows           int            `json:"final_rows"`
	Columns             int            `json:"columns"`
	ImputedCells        map[string]int `json:"imputed_cells,omitempty"`
	MergedSources       []SourceKind   `json:"merged_sources"`
	SkippedSources      []SourceKind   `json:"skipped_sources"`
	RetentionPct        float64        `json:"retention_pct"`
	RetentionTarget     float64        `json:"retention_target"`
}

func (r *RetentionReport) DroppedTotal() int {
	return r.DroppedCritical + r.DroppedMissingLabel + r.DroppedResidual
}

func (r *RetentionReport) BelowTarget() bool {
	return r.RetentionPct < r.RetentionTarget*100
}
