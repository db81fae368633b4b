package models

import "time"

// DumpMetadata is the redundant summary computed when a snapshot is written.
type DumpMetadata struct {
	TotalApps          int      `json:"total_apps"`
	TotalOptimizations int      `json:"total_optimizations"`
	Environments       []string `json:"environments"`
	Projects           []string `json:"projects"`
}

// DumpSnapshot is the on-disk format of a full point-in-time export of both
// tables. Immutable once written.
type DumpSnapshot struct {
	ResourceUtilization []ResourceUtilizationRecord `json:"resource_utilization"`
	OptimizationHistory []OptimizationHistoryRecord `json:"optimization_history"`
	Timestamp           time.Time                   `json:"timestamp"`
	Metadata            DumpMetadata                `json:"metadata"`
}

// DumpFileInfo describes one snapshot file on disk.
type DumpFileInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
}
