package ledger

import "math"

// Decay moves a stored value toward its static default as time passes,
// halving the distance every halfLifeDays:
//
//	effective = default + (stored - default) * 0.5^(elapsedDays / halfLifeDays)
//
// Properties relied on elsewhere: Decay(v, d, 0) == v, and the result
// is monotonic toward d as elapsedDays grows. Non-finite stored values
// are replaced by the default, never propagated.
func Decay(stored, staticDefault, elapsedDays, halfLifeDays float64) float64 {
	if math.IsNaN(stored) || math.IsInf(stored, 0) {
		return staticDefault
	}
	if elapsedDays <= 0 || halfLifeDays <= 0 {
		return stored
	}
	factor := math.Pow(0.5, elapsedDays/halfLifeDays)
	return staticDefault + (stored-staticDefault)*factor
}

// clampParam bounds a Beta parameter to (0, max]. Parameters must stay
// strictly positive or the derived confidence leaves (0, 1).
func clampParam(v, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 1.0
	}
	if v < minParam {
		return minParam
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// minParam keeps alpha/beta strictly positive after decay and deltas.
const minParam = 1e-6
