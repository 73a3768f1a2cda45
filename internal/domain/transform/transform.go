// Package transform holds the model-independent pre-processing applied to
// every subject value before it is weighted.
package transform

import (
	"errors"
	"fmt"
	"math"
)

// ErrPrecondition reports a transform result outside its documented range.
var ErrPrecondition = errors.New("transform precondition violated")

// Func converts a parsed subject value.
type Func func(v float32) (float32, error)

// Kind names a transform for configuration and reporting.
type Kind string

// Known transforms.
const (
	KindIdentity Kind = "identity"
	KindMToBeta  Kind = "m-to-beta"
)

// Identity passes the value through unchanged.
func Identity(v float32) (float32, error) { return v, nil }

// MToBeta converts an M-value to a beta-value: p = 2^m, beta = p / (p + 1).
// Experimental; the conversion has not been validated against reference data.
func MToBeta(m float32) (float32, error) {
	p := float32(math.Exp2(float64(m)))
	beta := p / (p + 1)
	if !(beta >= 0) {
		return 0, fmt.Errorf("%w: beta %v for m-value %v", ErrPrecondition, beta, m)
	}
	return beta, nil
}

// For returns the transform selected by the M-value switch.
func For(mValues bool) (Kind, Func) {
	if mValues {
		return KindMToBeta, MToBeta
	}
	return KindIdentity, Identity
}
