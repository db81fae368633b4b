package output

import (
	"context"

	"github.com/opscart/k8s-resource-dashboard/pkg/scanner"
)

// Handler defines the interface for scan output formatting
type Handler interface {
	DisplayResults(ctx context.Context, results []scanner.ScanResult) error
	DisplaySummary(ctx context.Context, totalSavings float64, count int) error
	Format() string
}
