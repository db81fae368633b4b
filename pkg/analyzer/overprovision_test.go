package analyzer

import "testing"

func TestActualCPUUsedPrefersAbsolute(t *testing.T) {
	// Absolute peak present: percent column ignored
	if got := ActualCPUUsed(481.24, 93.99, 512); got != 481.24 {
		t.Errorf("Expected 481.24, got %.2f", got)
	}

	// Only percent present: derive from request
	if got := ActualCPUUsed(0, 20, 500); got != 100 {
		t.Errorf("Expected 100, got %.2f", got)
	}
}

func TestUtilizationPercent(t *testing.T) {
	if got := UtilizationPercent(0, 54.97, 250); got != 54.97 {
		t.Errorf("Expected stored percent 54.97, got %.2f", got)
	}

	if got := UtilizationPercent(250, 0, 500); got != 50.0 {
		t.Errorf("Expected derived 50.0, got %.2f", got)
	}

	if got := UtilizationPercent(250, 0, 0); got != 0 {
		t.Errorf("Expected 0 for zero request, got %.2f", got)
	}
}

func TestIsOverProvisioned(t *testing.T) {
	tests := []struct {
		name         string
		maxCPU       float64
		utilzPercent float64
		reqCPU       float64
		threshold    float64
		want         bool
	}{
		{"percent-only below threshold", 0, 20, 500, 50, true},
		{"percent-only above threshold", 0, 60, 500, 50, false},
		{"absolute below threshold", 100, 0, 500, 50, true},
		{"absolute above threshold", 400, 0, 500, 50, false},
		{"boundary equality excluded", 250, 0, 500, 50, false},
		{"threshold zero never matches", 1, 0, 500, 0, false},
		{"threshold 100 strict", 500, 0, 500, 100, false},
		{"threshold 100 below request", 499, 0, 500, 100, true},
		{"zero request never matches", 0, 0, 0, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsOverProvisioned(tt.maxCPU, tt.utilzPercent, tt.reqCPU, tt.threshold)
			if got != tt.want {
				t.Errorf("IsOverProvisioned(%.2f, %.2f, %.2f, %.2f) = %v, want %v",
					tt.maxCPU, tt.utilzPercent, tt.reqCPU, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestCPUSavingsPercent(t *testing.T) {
	// round((512-100)/512*100, 2) = 80.47
	if got := CPUSavingsPercent(512, 100); got != 80.47 {
		t.Errorf("Expected 80.47, got %.2f", got)
	}

	// round((500-150)/500*100, 2) = 70.0
	if got := CPUSavingsPercent(500, 150); got != 70.0 {
		t.Errorf("Expected 70.0, got %.2f", got)
	}

	if got := CPUSavingsPercent(0, 100); got != 0 {
		t.Errorf("Expected 0 for zero request, got %.2f", got)
	}
}

func TestWastedCPU(t *testing.T) {
	if got := WastedCPU(0, 20, 500); got != 400 {
		t.Errorf("Expected waste 400, got %.2f", got)
	}

	if got := WastedCPU(481.24, 0, 512); got != 512-481.24 {
		t.Errorf("Expected waste %.2f, got %.2f", 512-481.24, got)
	}
}
