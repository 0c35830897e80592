package catalog

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aevon-lab/easymoney/internal/core/aggregation"
	"github.com/aevon-lab/easymoney/internal/core/daycount"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"github.com/shopspring/decimal"
)

func floatArg(fn string, args []any, i int) (float64, error) {
	f, ok := aggregation.ToFloat(args[i])
	if !ok {
		return 0, fmt.Errorf("%s: %w: argument %d is %T, want a number", fn, coreerr.ErrInvalidArgumentKind, i+1, args[i])
	}
	return f, nil
}

// intArg accepts any numeric value with no fractional part.
func intArg(fn string, args []any, i int) (int, error) {
	f, err := floatArg(fn, args, i)
	if err != nil {
		return 0, err
	}
	if math.Trunc(f) != f || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s: %w: argument %d is %v, want an integer", fn, coreerr.ErrInvalidArgumentKind, i+1, f)
	}
	return int(f), nil
}

// decimalArg keeps decimals and integers exact; floats go through their
// shortest decimal representation.
func decimalArg(fn string, args []any, i int) (decimal.Decimal, error) {
	switch v := args[i].(type) {
	case decimal.Decimal:
		return v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d, nil
		}
	}
	f, err := floatArg(fn, args, i)
	if err != nil {
		return decimal.Zero, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%s: %w: argument %d is %v", fn, coreerr.ErrInvalidParameterRange, i+1, f)
	}
	return decimal.NewFromFloat(f), nil
}

// dateArgs reads a (day, month, year) triple starting at args[i].
func dateArgs(fn string, args []any, i int) (daycount.Date, error) {
	day, err := intArg(fn, args, i)
	if err != nil {
		return daycount.Date{}, err
	}
	month, err := intArg(fn, args, i+1)
	if err != nil {
		return daycount.Date{}, err
	}
	year, err := intArg(fn, args, i+2)
	if err != nil {
		return daycount.Date{}, err
	}
	return daycount.Date{Year: year, Month: month, Day: day}, nil
}
