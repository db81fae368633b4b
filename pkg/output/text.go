package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/opscart/k8s-resource-dashboard/pkg/scanner"
)

// TextHandler renders scan results as indented plain text.
type TextHandler struct {
	w   io.Writer
	env string
}

func NewTextHandler(w io.Writer, env string) *TextHandler {
	return &TextHandler{w: w, env: env}
}

func (h *TextHandler) DisplayResults(ctx context.Context, results []scanner.ScanResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(h.w, "[INFO] No optimization opportunities found")
		return err
	}

	fmt.Fprintln(h.w, "=== Optimization Recommendations ===")
	fmt.Fprintln(h.w)

	for i, result := range results {
		rec := result.Recommendation
		if rec == nil {
			continue
		}

		fmt.Fprintf(h.w, "%d. %s/%s%s\n", i+1, rec.Namespace, rec.WorkloadName, envBadge(h.env))
		fmt.Fprintf(h.w, "   Type: %s\n", rec.Type)
		if rec.Reason != "" {
			fmt.Fprintf(h.w, "   Reason: %s\n", rec.Reason)
		}
		fmt.Fprintf(h.w, "   Current:  CPU=%dm\n", rec.CurrentCPU)
		fmt.Fprintf(h.w, "   Recommended: CPU=%dm\n", rec.RecommendedCPU)
		if result.Record != nil {
			fmt.Fprintf(h.w, "   Max utilization: %.1f%%\n", result.Record.MaxCPUUtilzPercent)
		}
		fmt.Fprintf(h.w, "   Savings: $%.2f/month\n", rec.Savings)
		fmt.Fprintf(h.w, "   Risk: %s\n", rec.Risk)
		if result.Command != "" {
			fmt.Fprintf(h.w, "   Command: %s\n", result.Command)
		}
		fmt.Fprintln(h.w)
	}

	return nil
}

func (h *TextHandler) DisplaySummary(ctx context.Context, totalSavings float64, count int) error {
	_, err := fmt.Fprintf(h.w, "Total potential savings: $%.2f/month (%d workloads)\n", totalSavings, count)
	return err
}

func (h *TextHandler) Format() string {
	return "text"
}

func envBadge(env string) string {
	if env == "" || env == "unknown" {
		return ""
	}
	return fmt.Sprintf(" [%s]", strings.ToUpper(env))
}
