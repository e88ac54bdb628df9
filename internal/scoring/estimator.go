package scoring

// Default Beta prior parameters. Beta(2,2) is centered on 0.5 and mildly
// skeptical: a single observation cannot drag the estimate to 0 or 1.
const (
	DefaultPriorAlpha = 2.0
	DefaultPriorBeta  = 2.0
)

// PosteriorMean is the closed-form Beta-Binomial posterior mean: given a
// Beta(alpha0, beta0) prior and s successes / f failures, the expected
// success probability is (alpha0+s) / (alpha0+beta0+s+f).
func PosteriorMean(successes, failures int64, alpha0, beta0 float64) float64 {
	if successes < 0 {
		successes = 0
	}
	if failures < 0 {
		failures = 0
	}
	return (alpha0 + float64(successes)) / (alpha0 + beta0 + float64(successes) + float64(failures))
}

// Estimator computes smoothed success-rate estimates under a fixed prior.
type Estimator struct {
	Alpha0 float64
	Beta0  float64
}

// NewEstimator returns an estimator with the given prior, falling back to
// the defaults when either parameter is not positive.
func NewEstimator(alpha0, beta0 float64) *Estimator {
	if alpha0 <= 0 || beta0 <= 0 {
		alpha0, beta0 = DefaultPriorAlpha, DefaultPriorBeta
	}
	return &Estimator{Alpha0: alpha0, Beta0: beta0}
}

// Estimate returns the posterior mean success probability for a profile
// with the given counters. With zero observations it returns the prior
// mean exactly; with volume it converges on the empirical rate, always
// slightly shrunk toward the prior.
func (e *Estimator) Estimate(successes, failures int64) float64 {
	return PosteriorMean(successes, failures, e.Alpha0, e.Beta0)
}
