package models

import "time"

// ResourceUtilizationRecord is one row of the primary table: a single
// application+environment CPU snapshot. All CPU figures share the same unit
// (millicores in every observed deployment). Depending on which backend
// produced the row, either the absolute usage columns (MaxCPU/AvgCPU) or the
// percent-of-request column is populated; the storage layer normalizes so
// both are always set on reads.
type ResourceUtilizationRecord struct {
	ID                 int64    `json:"id"`
	AppUniq            string   `json:"app_uniq"`
	Project            string   `json:"project"`
	PRURL              string   `json:"pr_url"`
	PRStatus           string   `json:"pr_status"`
	AppName            string   `json:"app_name"`
	AppID              string   `json:"app_id"`
	Env                string   `json:"env"`
	MaxCPU             float64  `json:"max_cpu"`
	AvgCPU             float64  `json:"avg_cpu"`
	ReqCPU             float64  `json:"req_cpu"`
	NewReqCPU          float64  `json:"new_req_cpu"`
	MaxCPUUtilzPercent float64  `json:"max_cpu_utilz_percent"`
	Tier               string   `json:"tier,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OptimizationStatus is the lifecycle of a manually recorded optimization.
// Transitions happen only through operator edits.
type OptimizationStatus string

const (
	StatusPending    OptimizationStatus = "pending"
	StatusInProgress OptimizationStatus = "in_progress"
	StatusCompleted  OptimizationStatus = "completed"
	StatusFailed     OptimizationStatus = "failed"
)

// ValidStatus reports whether s is one of the known lifecycle values.
func ValidStatus(s string) bool {
	switch OptimizationStatus(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// OptimizationHistoryRecord tracks one optimization attempt against an app.
type OptimizationHistoryRecord struct {
	ID               int64     `json:"id"`
	AppUniq          string    `json:"app_uniq"`
	AppID            string    `json:"app_id"`
	Env              string    `json:"env"`
	OldReqCPU        float64   `json:"old_req_cpu"`
	NewReqCPU        float64   `json:"new_req_cpu"`
	OptimizationDate time.Time `json:"optimization_date"`
	Status           string    `json:"status"`
	PRURL            string    `json:"pr_url"`
	Notes            string    `json:"notes"`
	UpdatedAt        time.Time `json:"updated_at"`
}
