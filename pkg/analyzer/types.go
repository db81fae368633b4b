package analyzer

import "time"

// MetricSample represents a single metric data point
type MetricSample struct {
	Timestamp time.Time
	Value     float64
}

// Percentiles contains statistical percentiles over a sample window
type Percentiles struct {
	Average float64
	P50     float64
	P90     float64
	P95     float64
	P99     float64
	Peak    float64
	Min     float64
}
