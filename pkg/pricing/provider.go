package pricing

// Provider converts CPU amounts into estimated monthly cost. The dashboard
// only needs CPU pricing; savings are always relative to a request delta.
type Provider interface {
	MonthlyCPUCost(millicores float64) float64
	Name() string
}

type Config struct {
	Provider   string
	CPUPerCore float64
}
