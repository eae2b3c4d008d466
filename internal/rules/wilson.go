package rules

import "math"

// wilsonZ is the z-score for a 95% confidence interval.
const wilsonZ = 1.96

// WilsonLowerBound returns the lower bound of the Wilson score interval for
// the observed success/failure counts. It is deliberately more conservative
// than the raw success ratio: a rule with 2/2 successes scores well below a
// rule with 200/200, so a lucky streak is not trusted early.
func WilsonLowerBound(successes, failures int) float64 {
	n := float64(successes + failures)
	if n == 0 {
		return 0
	}

	phat := float64(successes) / n
	z := wilsonZ
	z2 := z * z

	denom := 1 + z2/n
	center := phat + z2/(2*n)
	margin := z * math.Sqrt((phat*(1-phat)+z2/(4*n))/n)

	lower := (center - margin) / denom
	if lower < 0 {
		return 0
	}
	return lower
}
