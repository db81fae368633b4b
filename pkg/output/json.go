package output

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/opscart/k8s-resource-dashboard/pkg/models"
	"github.com/opscart/k8s-resource-dashboard/pkg/scanner"
)

// JSONHandler emits the flattened dashboard records so scan output can be
// piped straight into the ingestion API.
type JSONHandler struct {
	w io.Writer
}

func NewJSONHandler(w io.Writer) *JSONHandler {
	return &JSONHandler{w: w}
}

func (h *JSONHandler) DisplayResults(ctx context.Context, results []scanner.ScanResult) error {
	records := make([]*models.ResourceUtilizationRecord, 0, len(results))
	var totalSavings float64
	for _, result := range results {
		if result.Record != nil {
			records = append(records, result.Record)
		}
		if result.Recommendation != nil {
			totalSavings += result.Recommendation.Savings
		}
	}

	payload := map[string]interface{}{
		"records":       records,
		"total_savings": totalSavings,
		"count":         len(records),
		"timestamp":     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(h.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func (h *JSONHandler) DisplaySummary(ctx context.Context, totalSavings float64, count int) error {
	// the JSON payload already carries the totals
	return nil
}

func (h *JSONHandler) Format() string {
	return "json"
}
