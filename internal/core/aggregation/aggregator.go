package aggregation

import (
	"fmt"
	"math"
	"sort"

	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Average returns the arithmetic mean of a strictly numeric list.
func Average(values []any) (float64, error) {
	xs, err := strictFloats("AVERAGE", values)
	if err != nil {
		return 0, err
	}
	return stat.Mean(xs, nil), nil
}

// AverageA returns the mean of the numeric elements of values.
// Non-numeric elements count towards neither the sum nor the denominator.
func AverageA(values []any) (float64, error) {
	xs, err := numericOnly("AVERAGEA", values)
	if err != nil {
		return 0, err
	}
	if len(xs) == 0 {
		return 0, fmt.Errorf("AVERAGEA: %w: no numeric elements", coreerr.ErrDivisionByZero)
	}
	return stat.Mean(xs, nil), nil
}

// Count returns the number of elements of a strictly numeric list.
func Count(values []any) (int, error) {
	xs, err := strictFloats("COUNT", values)
	if err != nil {
		return 0, err
	}
	return len(xs), nil
}

// CountA returns the number of elements regardless of type.
func CountA(values []any) int {
	return len(values)
}

// Sum adds the numeric elements of values; non-numeric elements are skipped.
func Sum(values []any) (float64, error) {
	xs, err := numericOnly("SUM", values)
	if err != nil {
		return 0, err
	}
	return floats.Sum(xs), nil
}

// SumSq adds the squares of the numeric elements of values.
func SumSq(values []any) (float64, error) {
	xs, err := numericOnly("SUMSQ", values)
	if err != nil {
		return 0, err
	}
	return floats.Dot(xs, xs), nil
}

func Min(values []any) (float64, error) {
	xs, err := strictFloats("MIN", values)
	if err != nil {
		return 0, err
	}
	return floats.Min(xs), nil
}

func Max(values []any) (float64, error) {
	xs, err := strictFloats("MAX", values)
	if err != nil {
		return 0, err
	}
	return floats.Max(xs), nil
}

// MinA is Min with non-numeric elements treated as zero.
func MinA(values []any) (float64, error) {
	xs, err := zeroFilled("MINA", values)
	if err != nil {
		return 0, err
	}
	return floats.Min(xs), nil
}

// MaxA is Max with non-numeric elements treated as zero.
func MaxA(values []any) (float64, error) {
	xs, err := zeroFilled("MAXA", values)
	if err != nil {
		return 0, err
	}
	return floats.Max(xs), nil
}

// Median returns the middle value of the sorted list, or the mean of the two
// middle values when the list has even length.
func Median(values []any) (float64, error) {
	xs, err := strictFloats("MEDIAN", values)
	if err != nil {
		return 0, err
	}
	sort.Float64s(xs)

	n := len(xs)
	if n%2 == 1 {
		return xs[n/2], nil
	}
	return (xs[n/2-1] + xs[n/2]) / 2, nil
}

// GeoMean returns the nth root of the product of n elements.
// Every element must be strictly positive.
func GeoMean(values []any) (float64, error) {
	xs, err := strictFloats("GEOMEAN", values)
	if err != nil {
		return 0, err
	}
	for i, x := range xs {
		if x <= 0 {
			return 0, fmt.Errorf("GEOMEAN: %w: element %d is %v, must be > 0", coreerr.ErrInvalidParameterRange, i, x)
		}
	}
	return stat.GeometricMean(xs, nil), nil
}

// HarMean returns n divided by the sum of reciprocals.
func HarMean(values []any) (float64, error) {
	xs, err := strictFloats("HARMEAN", values)
	if err != nil {
		return 0, err
	}

	var reciprocals float64
	for i, x := range xs {
		if x == 0 {
			return 0, fmt.Errorf("HARMEAN: %w: element %d is zero", coreerr.ErrDivisionByZero, i)
		}
		reciprocals += 1 / x
	}
	if reciprocals == 0 {
		return 0, fmt.Errorf("HARMEAN: %w: reciprocals sum to zero", coreerr.ErrDivisionByZero)
	}
	return float64(len(xs)) / reciprocals, nil
}

// TrimMean drops round(n*trim/2) elements from each end of the sorted list
// and averages the rest. trim must lie in [0, 0.5).
func TrimMean(values []any, trim float64) (float64, error) {
	xs, err := strictFloats("TRIMMEAN", values)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(trim) || trim < 0 || trim >= 0.5 {
		return 0, fmt.Errorf("TRIMMEAN: %w: trim %v outside [0, 0.5)", coreerr.ErrInvalidParameterRange, trim)
	}
	if trim == 0 {
		return Average(values)
	}

	sort.Float64s(xs)
	k := int(math.Round(float64(len(xs)) * trim / 2))
	if 2*k >= len(xs) {
		return 0, fmt.Errorf("TRIMMEAN: %w: trim %v removes every element", coreerr.ErrInvalidParameterRange, trim)
	}
	return stat.Mean(xs[k:len(xs)-k], nil), nil
}
