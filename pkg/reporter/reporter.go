package reporter

import (
	"time"

	"github.com/opscart/k8s-resource-dashboard/pkg/recommender"
	"github.com/opscart/k8s-resource-dashboard/pkg/scanner"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatHTML     ReportFormat = "html"
	FormatMarkdown ReportFormat = "markdown"
	FormatCSV      ReportFormat = "csv"
)

// Report contains all data for generating reports
type Report struct {
	ClusterName      string
	Namespace        string
	Environment      string
	GeneratedAt      time.Time
	Results          []scanner.ScanResult
	TotalSavings     float64
	WorkloadCount    int
	OptimizableCount int
	ProjectStats     map[string]*ProjectStats
}

// ProjectStats holds statistics per project (namespace)
type ProjectStats struct {
	Project         string
	WorkloadCount   int
	TotalSavings    float64
	Recommendations int
}

// Reporter generates resource utilization reports
type Reporter struct {
	format ReportFormat
}

// New creates a new reporter
func New(format ReportFormat) *Reporter {
	return &Reporter{
		format: format,
	}
}

// Generate generates a report from scan results
func (r *Reporter) Generate(results []scanner.ScanResult, clusterName, namespace, environment string) (*Report, error) {
	report := &Report{
		ClusterName:  clusterName,
		Namespace:    namespace,
		Environment:  environment,
		GeneratedAt:  time.Now(),
		Results:      results,
		ProjectStats: make(map[string]*ProjectStats),
	}

	r.calculateStats(report)

	return report, nil
}

// calculateStats computes all statistics for the report
func (r *Reporter) calculateStats(report *Report) {
	for _, result := range report.Results {
		rec := result.Recommendation
		if rec == nil {
			continue
		}

		report.WorkloadCount++
		report.TotalSavings += rec.Savings

		// Count optimizable workloads (not NO_ACTION)
		if rec.Type != recommender.NoAction {
			report.OptimizableCount++
		}

		project := rec.Namespace
		if project == "" {
			project = "unknown"
		}
		if _, exists := report.ProjectStats[project]; !exists {
			report.ProjectStats[project] = &ProjectStats{
				Project: project,
			}
		}
		stat := report.ProjectStats[project]
		stat.WorkloadCount++
		stat.TotalSavings += rec.Savings
		if rec.Type != recommender.NoAction {
			stat.Recommendations++
		}
	}
}
