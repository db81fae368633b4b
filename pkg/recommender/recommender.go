package recommender

import (
	"fmt"
	"math"

	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
	"github.com/opscart/k8s-resource-dashboard/pkg/pricing"
)

type RecommendationType string

const (
	RightSize RecommendationType = "RIGHT_SIZE"
	ScaleDown RecommendationType = "SCALE_DOWN"
	NoAction  RecommendationType = "NO_ACTION"
)

// minCPURequest is the floor for any recommended request, in millicores.
const minCPURequest = 25

// idleCPUCeiling is the usage below which a workload is treated as idle.
const idleCPUCeiling = 1

type Recommendation struct {
	Type           RecommendationType
	WorkloadName   string
	Namespace      string
	CurrentCPU     int64
	RecommendedCPU int64
	Reason         string
	Savings        float64
	Impact         string
	Risk           string
}

type Recommender struct {
	pricing      pricing.Provider
	safetyBuffer float64
}

func New(pricingProvider pricing.Provider, safetyBuffer float64) *Recommender {
	if safetyBuffer <= 1 {
		safetyBuffer = 1.5
	}
	return &Recommender{
		pricing:      pricingProvider,
		safetyBuffer: safetyBuffer,
	}
}

// Analyze aggregates the per-pod analyses of one workload into a single CPU
// request recommendation. The recommended request is peak usage times the
// safety buffer, floored at 25m.
func (r *Recommender) Analyze(analyses []analyzer.PodAnalysis, workloadName string) *Recommendation {
	if len(analyses) == 0 {
		return nil
	}

	var totalRequestedCPU, totalActualCPU int64
	for _, analysis := range analyses {
		totalRequestedCPU += analysis.RequestedCPU
		totalActualCPU += analysis.ActualCPU
	}

	avgRequestedCPU := totalRequestedCPU / int64(len(analyses))
	avgActualCPU := totalActualCPU / int64(len(analyses))

	rec := &Recommendation{
		WorkloadName: workloadName,
		Namespace:    analyses[0].Namespace,
		CurrentCPU:   avgRequestedCPU,
	}

	// Near-zero usage means the workload is idle, not just oversized.
	if avgActualCPU < idleCPUCeiling {
		rec.Type = ScaleDown
		rec.Reason = "Extremely low CPU usage - workload appears idle"
		rec.RecommendedCPU = 0
		rec.Impact = "HIGH"
		rec.Risk = "MEDIUM"
		rec.Savings = r.monthlyCost(avgRequestedCPU) * float64(len(analyses))
		return rec
	}

	recCPU := int64(math.Ceil(float64(avgActualCPU) * r.safetyBuffer))
	if recCPU < minCPURequest {
		recCPU = minCPURequest
	}

	if avgRequestedCPU <= 0 {
		rec.Type = NoAction
		rec.Reason = "No CPU request set"
		rec.RecommendedCPU = recCPU
		rec.Impact = "NONE"
		rec.Risk = "NONE"
		return rec
	}

	reduction := float64(avgRequestedCPU-recCPU) / float64(avgRequestedCPU) * 100

	// Only recommend when the reduction is worth a PR.
	if reduction > 20 {
		rec.Type = RightSize
		rec.RecommendedCPU = recCPU
		rec.Reason = fmt.Sprintf("Over-provisioned: %.0f%% CPU reduction possible", reduction)

		currentCost := r.monthlyCost(avgRequestedCPU) * float64(len(analyses))
		newCost := r.monthlyCost(recCPU) * float64(len(analyses))
		rec.Savings = currentCost - newCost

		if rec.Savings < 1.0 {
			rec.Type = NoAction
			rec.Reason = "Savings too small to justify change"
			rec.Impact = "NONE"
			rec.Risk = "NONE"
			return rec
		}

		switch {
		case rec.Savings > 50:
			rec.Impact = "HIGH"
		case rec.Savings > 20:
			rec.Impact = "MEDIUM"
		default:
			rec.Impact = "LOW"
		}
		rec.Risk = "LOW"
		return rec
	}

	rec.Type = NoAction
	rec.Reason = "CPU allocation is appropriate"
	rec.RecommendedCPU = avgRequestedCPU
	rec.Savings = 0
	rec.Impact = "NONE"
	rec.Risk = "NONE"

	return rec
}

func (r *Recommender) monthlyCost(cpuMillicores int64) float64 {
	return r.pricing.MonthlyCPUCost(float64(cpuMillicores))
}

func (r *Recommendation) String() string {
	if r.Type == NoAction {
		return fmt.Sprintf("[%s] %s: %s", r.Impact, r.WorkloadName, r.Reason)
	}

	if r.Type == ScaleDown {
		return fmt.Sprintf(
			"[%s] %s: %s\n"+
				"  Current: %dm CPU\n"+
				"  Recommendation: Scale to 0 replicas\n"+
				"  Savings: $%.2f/month\n"+
				"  Risk: %s",
			r.Impact,
			r.WorkloadName,
			r.Reason,
			r.CurrentCPU,
			r.Savings,
			r.Risk,
		)
	}

	return fmt.Sprintf(
		"[%s] %s: %s\n"+
			"  Current: %dm CPU\n"+
			"  Recommended: %dm CPU (with safety buffer)\n"+
			"  Savings: $%.2f/month\n"+
			"  Risk: %s",
		r.Impact,
		r.WorkloadName,
		r.Reason,
		r.CurrentCPU,
		r.RecommendedCPU,
		r.Savings,
		r.Risk,
	)
}
