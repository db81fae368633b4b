package analyzer

import "math"

// DefaultThresholdPercent is the utilization threshold below which a
// workload counts as over-provisioned. Callers may override per request.
const DefaultThresholdPercent = 50.0

// ActualCPUUsed normalizes the two storage representations into absolute
// used CPU. Rows carry either the absolute peak (maxCPU) or the peak as a
// percent of request; when both are present the absolute value wins.
func ActualCPUUsed(maxCPU, utilzPercent, reqCPU float64) float64 {
	if maxCPU > 0 {
		return maxCPU
	}
	return utilzPercent / 100.0 * reqCPU
}

// UtilizationPercent is the inverse normalization: peak usage as a percent
// of the requested CPU. Returns 0 when reqCPU is not positive.
func UtilizationPercent(maxCPU, utilzPercent, reqCPU float64) float64 {
	if utilzPercent > 0 {
		return utilzPercent
	}
	if reqCPU <= 0 {
		return 0
	}
	return maxCPU / reqCPU * 100.0
}

// IsOverProvisioned is the single classification rule shared by the listing,
// recommendation and grouped-stat reads: a record is over-provisioned when
// its actual used CPU is strictly below thresholdPercent of its request.
// Boundary equality is not over-provisioned.
func IsOverProvisioned(maxCPU, utilzPercent, reqCPU, thresholdPercent float64) bool {
	if reqCPU <= 0 {
		return false
	}
	return ActualCPUUsed(maxCPU, utilzPercent, reqCPU) < reqCPU*thresholdPercent/100.0
}

// CPUSavingsPercent is the relative reduction of moving from reqCPU to
// newReqCPU, rounded to two decimals.
func CPUSavingsPercent(reqCPU, newReqCPU float64) float64 {
	if reqCPU <= 0 {
		return 0
	}
	return math.Round((reqCPU-newReqCPU)/reqCPU*100.0*100.0) / 100.0
}

// WastedCPU is the gap between requested and actually used CPU, used to
// order the over-provisioned listing largest-waste-first.
func WastedCPU(maxCPU, utilzPercent, reqCPU float64) float64 {
	return reqCPU - ActualCPUUsed(maxCPU, utilzPercent, reqCPU)
}
