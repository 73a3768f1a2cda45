package clock

import (
	"fmt"
	"math"
)

// Adjustment selects the post-processing applied to a model's weighted sum.
type Adjustment int

// Known adjustments.
const (
	// AdjustIdentity reports the weighted sum unchanged.
	AdjustIdentity Adjustment = iota
	// AdjustHorvath maps the sum back from Horvath's log-linear age scale.
	AdjustHorvath
)

// adultAge is the age at which Horvath's transformation switches from
// logarithmic to linear.
const adultAge = 20

// String implements fmt.Stringer.
func (a Adjustment) String() string {
	switch a {
	case AdjustIdentity:
		return "identity"
	case AdjustHorvath:
		return "horvath"
	default:
		return fmt.Sprintf("adjustment(%d)", int(a))
	}
}

// Apply evaluates the adjustment at x. Unknown adjustments behave as identity.
//
// Horvath is piecewise: 21*e^x - 1 below zero and 21*x + 21 from zero up.
// The two branches do not meet at zero (20 vs 21).
func Apply(a Adjustment, x float32) float32 {
	switch a {
	case AdjustHorvath:
		if x < 0 {
			return (adultAge+1)*float32(math.Exp(float64(x))) - 1
		}
		return (adultAge+1)*x + (adultAge + 1)
	default:
		return x
	}
}
