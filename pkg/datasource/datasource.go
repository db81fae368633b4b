package datasource

import (
	"context"
	"time"

	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
)

// UsageSource defines the interface for collecting CPU usage history
type UsageSource interface {
	// CPUUsageSamples returns the pod's CPU usage in millicores over the
	// lookback window, one sample per step.
	CPUUsageSamples(ctx context.Context, namespace, pod string, lookback time.Duration) ([]analyzer.MetricSample, error)
	// RequestedCPU returns the pod's CPU request in millicores, 0 when unset.
	RequestedCPU(ctx context.Context, namespace, pod string) (float64, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

type Config struct {
	PrometheusURL string
	LookbackDays  int
	Timeout       time.Duration
}

// Lookback converts the configured window to a duration, defaulting to
// seven days when unset.
func (c Config) Lookback() time.Duration {
	days := c.LookbackDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}
