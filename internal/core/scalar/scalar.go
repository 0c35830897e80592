// Package scalar implements one-value-in, one-value-out spreadsheet helpers
// for text and numbers.
package scalar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aevon-lab/easymoney/internal/core/aggregation"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
)

func text(fn string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: %w: expected text, got %T", fn, coreerr.ErrInvalidArgumentKind, v)
	}
	return s, nil
}

// Len returns the number of characters in v.
func Len(v any) (int, error) {
	s, err := text("LEN", v)
	if err != nil {
		return 0, err
	}
	return utf8.RuneCountInString(s), nil
}

func Lower(v any) (string, error) {
	s, err := text("LOWER", v)
	if err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}

func Upper(v any) (string, error) {
	s, err := text("UPPER", v)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(s), nil
}

// Code returns the code point of the first character of v.
func Code(v any) (int, error) {
	s, err := text("CODE", v)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, fmt.Errorf("CODE: %w", coreerr.ErrEmptyInput)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return int(r), nil
}

// Abs returns the absolute value of a numeric v.
func Abs(v any) (float64, error) {
	f, ok := aggregation.ToFloat(v)
	if !ok {
		return 0, fmt.Errorf("ABS: %w: expected a number, got %T", coreerr.ErrInvalidArgumentKind, v)
	}
	return math.Abs(f), nil
}

// Int truncates a number toward zero. Integer strings such as "-1000" are
// parsed; decimal strings and other text are rejected.
func Int(v any) (int64, error) {
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("INT: %w: %q is not an integer", coreerr.ErrInvalidArgumentKind, s)
		}
		return n, nil
	}

	f, ok := aggregation.ToFloat(v)
	if !ok {
		return 0, fmt.Errorf("INT: %w: expected a number, got %T", coreerr.ErrInvalidArgumentKind, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("INT: %w: %v does not fit an integer", coreerr.ErrInvalidParameterRange, f)
	}
	return int64(f), nil
}
