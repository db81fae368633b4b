package pricing

// DefaultProvider provides fallback pricing for on-prem or unknown clouds
type DefaultProvider struct {
	cpuCost float64 // USD per core per month
}

func NewDefaultProvider(cpuCost float64) *DefaultProvider {
	if cpuCost == 0 {
		cpuCost = 23.0 // Conservative default
	}
	return &DefaultProvider{cpuCost: cpuCost}
}

func (d *DefaultProvider) Name() string {
	return "default"
}

// MonthlyCPUCost prices a millicore amount at the configured per-core rate.
func (d *DefaultProvider) MonthlyCPUCost(millicores float64) float64 {
	return millicores / 1000.0 * d.cpuCost
}
