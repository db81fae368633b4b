package converter

import (
	"fmt"

	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
	"github.com/opscart/k8s-resource-dashboard/pkg/models"
	"github.com/opscart/k8s-resource-dashboard/pkg/recommender"
)

// ToUtilizationRecord flattens one workload's pod analyses and its
// recommendation into a dashboard row. The namespace doubles as the project
// grouping key, and app_uniq is the workload name qualified by environment.
func ToUtilizationRecord(pods []analyzer.PodAnalysis, rec *recommender.Recommendation, env string) *models.ResourceUtilizationRecord {
	if len(pods) == 0 || rec == nil {
		return nil
	}

	var reqSum, maxCPU, usedSum int64
	for _, pod := range pods {
		reqSum += pod.RequestedCPU
		usedSum += pod.ActualCPU
		if pod.ActualCPU > maxCPU {
			maxCPU = pod.ActualCPU
		}
	}

	reqCPU := float64(reqSum) / float64(len(pods))
	avgCPU := float64(usedSum) / float64(len(pods))

	record := &models.ResourceUtilizationRecord{
		AppUniq:   fmt.Sprintf("%s-%s", rec.WorkloadName, env),
		AppName:   rec.WorkloadName,
		AppID:     rec.WorkloadName,
		Env:       env,
		Project:   rec.Namespace,
		MaxCPU:    float64(maxCPU),
		AvgCPU:    avgCPU,
		ReqCPU:    reqCPU,
		NewReqCPU: float64(rec.RecommendedCPU),
	}
	if reqCPU > 0 {
		record.MaxCPUUtilzPercent = float64(maxCPU) / reqCPU * 100
	}

	return record
}

// KubectlCommand renders the request change as a kubectl invocation.
func KubectlCommand(rec *recommender.Recommendation) string {
	if rec == nil || rec.Type == recommender.NoAction {
		return ""
	}

	if rec.Type == recommender.ScaleDown {
		return fmt.Sprintf("kubectl scale deployment %s -n %s --replicas=0",
			rec.WorkloadName, rec.Namespace)
	}

	return fmt.Sprintf("kubectl set resources deployment %s -n %s --requests=cpu=%dm",
		rec.WorkloadName, rec.Namespace, rec.RecommendedCPU)
}
