package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog/log"

	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
)

// sampleStep is the resolution of range queries. Coarse on purpose: a
// 14 day window at 5m resolution stays around 4000 points per pod.
const sampleStep = 5 * time.Minute

type PrometheusSource struct {
	client  v1.API
	url     string
	timeout time.Duration
}

func NewPrometheusSource(cfg Config) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: cfg.PrometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &PrometheusSource{
		client:  v1.NewAPI(client),
		url:     cfg.PrometheusURL,
		timeout: cfg.Timeout,
	}, nil
}

// queryContext bounds a single query by the configured timeout.
func (p *PrometheusSource) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

// CPUUsageSamples runs a range query over the lookback window and returns
// per-step CPU usage in millicores, summed across the pod's containers.
func (p *PrometheusSource) CPUUsageSamples(ctx context.Context, namespace, pod string, lookback time.Duration) ([]analyzer.MetricSample, error) {
	query := fmt.Sprintf(`sum(rate(container_cpu_usage_seconds_total{namespace="%s",pod="%s",container!=""}[5m])) * 1000`,
		namespace, pod)

	ctx, cancel := p.queryContext(ctx)
	defer cancel()

	now := time.Now()
	result, warnings, err := p.client.QueryRange(ctx, query, v1.Range{
		Start: now.Add(-lookback),
		End:   now,
		Step:  sampleStep,
	})
	if err != nil {
		return nil, fmt.Errorf("CPU range query failed: %w", err)
	}
	if len(warnings) > 0 {
		log.Warn().Strs("warnings", warnings).Str("pod", pod).Msg("Prometheus returned warnings")
	}

	matrix, ok := result.(model.Matrix)
	if !ok || len(matrix) == 0 {
		return nil, fmt.Errorf("no usage data for pod %s/%s", namespace, pod)
	}

	var samples []analyzer.MetricSample
	for _, stream := range matrix {
		for _, pair := range stream.Values {
			samples = append(samples, analyzer.MetricSample{
				Timestamp: pair.Timestamp.Time(),
				Value:     float64(pair.Value),
			})
		}
	}
	return samples, nil
}

// RequestedCPU reads the request from kube-state-metrics, in millicores.
func (p *PrometheusSource) RequestedCPU(ctx context.Context, namespace, pod string) (float64, error) {
	query := fmt.Sprintf(`kube_pod_container_resource_requests{namespace="%s",pod="%s",resource="cpu"}`,
		namespace, pod)
	cores, err := p.querySingle(ctx, query)
	if err != nil {
		return 0, err
	}
	return cores * 1000, nil
}

func (p *PrometheusSource) querySingle(ctx context.Context, query string) (float64, error) {
	ctx, cancel := p.queryContext(ctx)
	defer cancel()

	result, warnings, err := p.client.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 {
		log.Warn().Strs("warnings", warnings).Msg("Prometheus returned warnings")
	}

	vector, ok := result.(model.Vector)
	if !ok || len(vector) == 0 {
		return 0, fmt.Errorf("no data for query: %s", query)
	}

	// Sum all values (in case multiple containers per pod)
	sum := 0.0
	for _, sample := range vector {
		sum += float64(sample.Value)
	}

	return sum, nil
}

func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
