package aggregation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"github.com/shopspring/decimal"
)

// Number lets caller-defined types take part in numeric classification.
type Number interface {
	NumericValue() float64
}

// IsNumeric reports whether v is an integer, floating-point or decimal value.
// Booleans and text are never numeric. It is the predicate form of ToFloat;
// code that also needs the value calls ToFloat directly.
func IsNumeric(v any) bool {
	_, ok := ToFloat(v)
	return ok
}

// ToFloat classifies v and converts it to float64; ok is false for
// non-numeric values. JSON numbers decode to float64 and YAML integers to
// int; both are the common path. A JSON number beyond float64 range is still
// numeric and converts to ±Inf.
func ToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case decimal.Decimal:
		return val.InexactFloat64(), true
	case *decimal.Decimal:
		if val == nil {
			return 0, false
		}
		return val.InexactFloat64(), true
	case json.Number:
		f, err := val.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return f, true
	case Number:
		return val.NumericValue(), true
	}
	return 0, false
}

// ToList returns v as a list of values. Slices and arrays of any element type
// qualify; strings, maps, scalars and nil do not.
func ToList(v any) ([]any, error) {
	if list, ok := v.([]any); ok {
		return list, nil
	}
	if v == nil {
		return nil, fmt.Errorf("%w: expected a list, got nil", coreerr.ErrInvalidArgumentKind)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = rv.Index(i).Interface()
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: expected a list, got %T", coreerr.ErrInvalidArgumentKind, v)
	}
}

// strictFloats enforces the strict validation contract: non-empty, every
// element numeric. The first non-numeric element is reported.
func strictFloats(fn string, values []any) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", fn, coreerr.ErrEmptyInput)
	}
	xs := make([]float64, len(values))
	for i, v := range values {
		f, ok := ToFloat(v)
		if !ok {
			return nil, fmt.Errorf("%s: %w: element %d is %T", fn, coreerr.ErrInvalidArgumentKind, i, v)
		}
		xs[i] = f
	}
	return xs, nil
}

// numericOnly keeps the numeric elements and drops the rest.
func numericOnly(fn string, values []any) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", fn, coreerr.ErrEmptyInput)
	}
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := ToFloat(v); ok {
			xs = append(xs, f)
		}
	}
	return xs, nil
}

// zeroFilled substitutes zero for every non-numeric element.
func zeroFilled(fn string, values []any) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", fn, coreerr.ErrEmptyInput)
	}
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i], _ = ToFloat(v)
	}
	return xs, nil
}
