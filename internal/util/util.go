// Package util provides numeric helpers shared by the combat engine.
package util

import (
	"errors"
	"math"
)

var (
	// ErrEmptySequence is returned when an aggregate is asked for over no values.
	ErrEmptySequence = errors.New("sequence is empty")
	// ErrNotANumber is returned when a sequence holds NaN or infinite values.
	ErrNotANumber = errors.New("sequence holds a value that is not a finite number")
)

// GeometricMean returns the n-th root of the product of n values.
func GeometricMean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySequence
	}

	product := 1.0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrNotANumber
		}
		product *= v
	}

	return math.Pow(product, 1/float64(len(values))), nil
}

