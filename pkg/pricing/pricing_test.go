package pricing

import "testing"

func TestDefaultProviderName(t *testing.T) {
	provider := NewDefaultProvider(23.0)

	if provider.Name() != "default" {
		t.Errorf("Expected name 'default', got %s", provider.Name())
	}
}

func TestDefaultProviderFallbackRate(t *testing.T) {
	provider := NewDefaultProvider(0)

	// 1000m at the conservative default of $23/core
	if cost := provider.MonthlyCPUCost(1000); cost != 23.0 {
		t.Errorf("Expected $23.00 for one core, got %.2f", cost)
	}
}

func TestMonthlyCPUCost(t *testing.T) {
	provider := NewDefaultProvider(30.0)

	// 500m at $30/core = $15
	if cost := provider.MonthlyCPUCost(500); cost != 15.0 {
		t.Errorf("Expected $15.00, got %.2f", cost)
	}

	if cost := provider.MonthlyCPUCost(0); cost != 0 {
		t.Errorf("Expected zero cost for zero CPU, got %.2f", cost)
	}
}
