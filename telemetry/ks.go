package telemetry

import (
	"math"
	"sort"
)

// KolmogorovSmirnov returns the one-sample statistic
// D = sup |F_n(x) - F(x)| of samples against the reference CDF.
func KolmogorovSmirnov(samples []float64, cdf func(float64) float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	var d float64
	fn := float64(n)
	for i, x := range sorted {
		f := cdf(x)
		d = max(d, float64(i+1)/fn-f, f-float64(i)/fn)
	}
	return d
}

// KSCritical returns the asymptotic critical value of D for n samples at
// significance level alpha.
func KSCritical(n int, alpha float64) float64 {
	if n <= 0 || alpha <= 0 || alpha >= 1 {
		return math.Inf(1)
	}
	return math.Sqrt(-0.5*math.Log(alpha/2)) / math.Sqrt(float64(n))
}
