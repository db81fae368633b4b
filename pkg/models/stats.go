package models

// Recommendation is a resource utilization row annotated with the derived
// savings figures, as returned by the optimization-recommendations report.
type Recommendation struct {
	AppUniq            string  `json:"app_uniq"`
	AppName            string  `json:"app_name"`
	AppID              string  `json:"app_id"`
	Env                string  `json:"env"`
	Project            string  `json:"project"`
	MaxCPU             float64 `json:"max_cpu"`
	AvgCPU             float64 `json:"avg_cpu"`
	ReqCPU             float64 `json:"req_cpu"`
	NewReqCPU          float64 `json:"new_req_cpu"`
	MaxCPUUtilzPercent float64 `json:"max_cpu_utilz_percent"`
	CPUSavingsPercent  float64 `json:"cpu_savings_percent"`
	EstMonthlySavings  float64 `json:"est_monthly_savings"`
}

// GroupStats holds the grouped aggregates per project or environment. The
// grouping key is the raw stored value; inconsistently cased names form
// distinct groups on purpose.
type GroupStats struct {
	Project                 string  `json:"project,omitempty"`
	Environment             string  `json:"environment,omitempty"`
	TotalEntries            int     `json:"total_entries"`
	OverprovisionedApps     int     `json:"overprovisioned_apps"`
	ProperlyProvisionedApps int     `json:"properly_provisioned_apps"`
	UniqueApps              int     `json:"unique_apps"`
	AvgCPUUtilization       float64 `json:"avg_cpu_utilization"`
	PotentialCPUSavings     float64 `json:"potential_cpu_savings"`
}

// Summary is the cross-cutting dashboard header payload.
type Summary struct {
	TotalApps            int          `json:"total_apps"`
	TotalProjects        int          `json:"total_projects"`
	Environments         []string     `json:"environments"`
	Projects             []string     `json:"projects"`
	OverprovisionedCount int          `json:"overprovisioned_count"`
	AvgCPUUtilization    float64      `json:"avg_cpu_utilization"`
	TotalCPUSavings      float64      `json:"total_cpu_savings"`
	ProjectBreakdown     []GroupStats `json:"project_breakdown"`
}
