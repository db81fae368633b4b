package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// GenerateCSV creates a CSV report
func GenerateCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	// Write header
	header := []string{
		"Project",
		"Workload",
		"Environment",
		"Type",
		"Current CPU (m)",
		"Recommended CPU (m)",
		"Max Utilization (%)",
		"Monthly Savings ($)",
		"Risk",
		"Impact",
		"Reason",
		"Command",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write scan results
	for _, result := range report.Results {
		rec := result.Recommendation
		if rec == nil {
			continue
		}

		utilization := ""
		if result.Record != nil {
			utilization = fmt.Sprintf("%.1f", result.Record.MaxCPUUtilzPercent)
		}

		row := []string{
			rec.Namespace,
			rec.WorkloadName,
			report.Environment,
			string(rec.Type),
			fmt.Sprintf("%d", rec.CurrentCPU),
			fmt.Sprintf("%d", rec.RecommendedCPU),
			utilization,
			fmt.Sprintf("%.2f", rec.Savings),
			rec.Risk,
			rec.Impact,
			rec.Reason,
			result.Command,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	// Write summary rows
	w.Write([]string{}) // Empty row
	w.Write([]string{"SUMMARY"})
	w.Write([]string{"Total Workloads", fmt.Sprintf("%d", report.WorkloadCount)})
	w.Write([]string{"Optimization Opportunities", fmt.Sprintf("%d", report.OptimizableCount)})
	w.Write([]string{"Total Monthly Savings", fmt.Sprintf("$%.2f", report.TotalSavings)})

	// Project breakdown
	w.Write([]string{}) // Empty row
	w.Write([]string{"PROJECT BREAKDOWN"})
	w.Write([]string{"Project", "Workloads", "Recommendations", "Savings"})
	for _, stat := range report.ProjectStats {
		w.Write([]string{
			stat.Project,
			fmt.Sprintf("%d", stat.WorkloadCount),
			fmt.Sprintf("%d", stat.Recommendations),
			fmt.Sprintf("$%.2f", stat.TotalSavings),
		})
	}

	return nil
}
