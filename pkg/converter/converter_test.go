package converter

import (
	"testing"

	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
	"github.com/opscart/k8s-resource-dashboard/pkg/recommender"
)

func TestToUtilizationRecord(t *testing.T) {
	pods := []analyzer.PodAnalysis{
		{Name: "checkout-abc-1", Namespace: "payments", RequestedCPU: 500, ActualCPU: 120},
		{Name: "checkout-abc-2", Namespace: "payments", RequestedCPU: 500, ActualCPU: 80},
	}
	rec := &recommender.Recommendation{
		Type:           recommender.RightSize,
		WorkloadName:   "checkout",
		Namespace:      "payments",
		CurrentCPU:     500,
		RecommendedCPU: 180,
	}

	record := ToUtilizationRecord(pods, rec, "uat")
	if record == nil {
		t.Fatal("expected a record")
	}

	if record.AppUniq != "checkout-uat" {
		t.Errorf("AppUniq = %q, want checkout-uat", record.AppUniq)
	}
	if record.Project != "payments" {
		t.Errorf("Project = %q, want payments", record.Project)
	}
	if record.ReqCPU != 500 {
		t.Errorf("ReqCPU = %.1f, want 500", record.ReqCPU)
	}
	if record.MaxCPU != 120 {
		t.Errorf("MaxCPU = %.1f, want 120", record.MaxCPU)
	}
	if record.AvgCPU != 100 {
		t.Errorf("AvgCPU = %.1f, want 100", record.AvgCPU)
	}
	if record.NewReqCPU != 180 {
		t.Errorf("NewReqCPU = %.1f, want 180", record.NewReqCPU)
	}
	if record.MaxCPUUtilzPercent != 24 {
		t.Errorf("MaxCPUUtilzPercent = %.1f, want 24", record.MaxCPUUtilzPercent)
	}
}

func TestToUtilizationRecordEmpty(t *testing.T) {
	if record := ToUtilizationRecord(nil, nil, "uat"); record != nil {
		t.Error("expected nil for empty input")
	}
}

func TestKubectlCommand(t *testing.T) {
	rightSize := &recommender.Recommendation{
		Type:           recommender.RightSize,
		WorkloadName:   "checkout",
		Namespace:      "payments",
		RecommendedCPU: 180,
	}
	cmd := KubectlCommand(rightSize)
	want := "kubectl set resources deployment checkout -n payments --requests=cpu=180m"
	if cmd != want {
		t.Errorf("KubectlCommand = %q, want %q", cmd, want)
	}

	scaleDown := &recommender.Recommendation{
		Type:         recommender.ScaleDown,
		WorkloadName: "idle-svc",
		Namespace:    "batch",
	}
	if cmd := KubectlCommand(scaleDown); cmd != "kubectl scale deployment idle-svc -n batch --replicas=0" {
		t.Errorf("unexpected scale down command: %q", cmd)
	}

	noAction := &recommender.Recommendation{Type: recommender.NoAction}
	if cmd := KubectlCommand(noAction); cmd != "" {
		t.Errorf("expected empty command for NO_ACTION, got %q", cmd)
	}
}
