package catalog

import (
	"github.com/aevon-lab/easymoney/internal/core/aggregation"
	"github.com/aevon-lab/easymoney/internal/core/clock"
	"github.com/aevon-lab/easymoney/internal/core/daycount"
	"github.com/aevon-lab/easymoney/internal/core/finance"
	"github.com/aevon-lab/easymoney/internal/core/scalar"
	"github.com/shopspring/decimal"
)

// listFunc adapts a single-list aggregate into an Entry.
func listFunc(name, summary string, fn func([]any) (float64, error)) Entry {
	return Entry{
		Name:      name,
		Category:  CategoryStatistical,
		Summary:   summary,
		MinArgs:   1,
		MaxArgs:   1,
		Supported: true,
		call: func(args []any) (any, error) {
			list, err := aggregation.ToList(args[0])
			if err != nil {
				return nil, err
			}
			return fn(list)
		},
	}
}

func statisticalFunctions() []Entry {
	return []Entry{
		listFunc("AVERAGE", "Arithmetic mean of a numeric list", aggregation.Average),
		listFunc("AVERAGEA", "Mean of the numeric elements, other elements skipped", aggregation.AverageA),
		listFunc("SUM", "Sum of the numeric elements", aggregation.Sum),
		listFunc("SUMSQ", "Sum of squares of the numeric elements", aggregation.SumSq),
		listFunc("MIN", "Smallest value of a numeric list", aggregation.Min),
		listFunc("MAX", "Largest value of a numeric list", aggregation.Max),
		listFunc("MINA", "Smallest value, non-numeric elements as zero", aggregation.MinA),
		listFunc("MAXA", "Largest value, non-numeric elements as zero", aggregation.MaxA),
		listFunc("MEDIAN", "Median of a numeric list", aggregation.Median),
		listFunc("GEOMEAN", "Geometric mean of positive numbers", aggregation.GeoMean),
		listFunc("HARMEAN", "Harmonic mean of non-zero numbers", aggregation.HarMean),
		{
			Name: "COUNT", Category: CategoryStatistical, Summary: "Number of elements of a numeric list",
			MinArgs: 1, MaxArgs: 1, Supported: true,
			call: func(args []any) (any, error) {
				list, err := aggregation.ToList(args[0])
				if err != nil {
					return nil, err
				}
				return aggregation.Count(list)
			},
		},
		{
			Name: "COUNTA", Category: CategoryStatistical, Summary: "Number of elements of any type",
			MinArgs: 1, MaxArgs: 1, Supported: true,
			call: func(args []any) (any, error) {
				list, err := aggregation.ToList(args[0])
				if err != nil {
					return nil, err
				}
				return aggregation.CountA(list), nil
			},
		},
		{
			Name: "TRIMMEAN", Category: CategoryStatistical, Summary: "Mean after trimming a fraction of extreme values",
			MinArgs: 2, MaxArgs: 2, Supported: true,
			call: func(args []any) (any, error) {
				list, err := aggregation.ToList(args[0])
				if err != nil {
					return nil, err
				}
				trim, err := floatArg("TRIMMEAN", args, 1)
				if err != nil {
					return nil, err
				}
				return aggregation.TrimMean(list, trim)
			},
		},
	}
}

func dateFunctions(clk *clock.Clock) []Entry {
	accessor := func(name, summary string, fn func() any) Entry {
		return Entry{
			Name: name, Category: CategoryDate, Summary: summary, Supported: true,
			call: func([]any) (any, error) { return fn(), nil },
		}
	}

	return []Entry{
		{
			Name: "DAYS360", Category: CategoryDate, Summary: "Days between two dates under the 30/360 convention",
			MinArgs: 6, MaxArgs: 6, Supported: true,
			call: func(args []any) (any, error) {
				start, err := dateArgs("DAYS360", args, 0)
				if err != nil {
					return nil, err
				}
				end, err := dateArgs("DAYS360", args, 3)
				if err != nil {
					return nil, err
				}
				days, ok := daycount.Days360(start, end)
				if !ok {
					return Undefined, nil
				}
				return days, nil
			},
		},
		{
			Name: "ISLEAPYEAR", Category: CategoryDate, Summary: "Whether a year is a Gregorian leap year",
			MinArgs: 1, MaxArgs: 1, Supported: true,
			call: func(args []any) (any, error) {
				year, err := intArg("ISLEAPYEAR", args, 0)
				if err != nil {
					return nil, err
				}
				leap, ok := daycount.IsLeapYear(year)
				if !ok {
					return Undefined, nil
				}
				return leap, nil
			},
		},
		{
			Name: "DATE", Category: CategoryDate, Summary: "Unix-seconds serial of a UTC calendar date",
			MinArgs: 3, MaxArgs: 3, Supported: true,
			call: func(args []any) (any, error) {
				var ymd [3]int
				for i := range ymd {
					v, err := intArg("DATE", args, i)
					if err != nil {
						return nil, err
					}
					ymd[i] = v
				}
				return clock.Date(ymd[0], ymd[1], ymd[2])
			},
		},
		accessor("NOW", "Current timestamp", func() any { return clk.Now() }),
		accessor("TODAY", "Current [year, month, day]", func() any { return clk.Today() }),
		accessor("TIME", "Current [hour, minute, second]", func() any { return clk.Time() }),
		accessor("YEAR", "Current year", func() any { return clk.Year() }),
		accessor("MONTH", "Current month", func() any { return clk.Month() }),
		accessor("DAY", "Current day of month", func() any { return clk.Day() }),
		accessor("HOUR", "Current hour", func() any { return clk.Hour() }),
		accessor("MINUTE", "Current minute", func() any { return clk.Minute() }),
		accessor("SECOND", "Current second", func() any { return clk.Second() }),
	}
}

func financialFunctions() []Entry {
	// pair adapts a two-decimal formula.
	pair := func(name, summary string, fn func(a, b decimal.Decimal) (decimal.Decimal, error)) Entry {
		return Entry{
			Name: name, Category: CategoryFinancial, Summary: summary,
			MinArgs: 2, MaxArgs: 2, Supported: true,
			call: func(args []any) (any, error) {
				a, err := decimalArg(name, args, 0)
				if err != nil {
					return nil, err
				}
				b, err := decimalArg(name, args, 1)
				if err != nil {
					return nil, err
				}
				return fn(a, b)
			},
		}
	}
	infallible := func(fn func(a, b decimal.Decimal) decimal.Decimal) func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return func(a, b decimal.Decimal) (decimal.Decimal, error) { return fn(a, b), nil }
	}

	return []Entry{
		pair("FVSIMPLE", "Future value under simple interest (pv, rate%)", infallible(finance.FutureValue)),
		pair("ISIMPLE", "Simple interest earned (pv, rate%)", infallible(finance.Interest)),
		pair("ISIMPLEFROMFV", "Interest implied by present and future value (pv, fv)", infallible(finance.InterestFromFutureValue)),
		pair("IRSIMPLE", "Simple interest rate in percent (pv, fv)", finance.Rate),
		pair("PVSIMPLE", "Present value from future value and interest (fv, i)", infallible(finance.PresentValue)),
		pair("PVSIMPLEFROMIR", "Present value discounted at a simple rate (fv, rate%)", finance.PresentValueFromRate),
		{
			Name: "FVADJUSTED", Category: CategoryFinancial, Summary: "Future value prorated by days (pv, rate%, days, days in year)",
			MinArgs: 4, MaxArgs: 4, Supported: true,
			call: func(args []any) (any, error) {
				pv, err := decimalArg("FVADJUSTED", args, 0)
				if err != nil {
					return nil, err
				}
				ir, err := decimalArg("FVADJUSTED", args, 1)
				if err != nil {
					return nil, err
				}
				days, err := intArg("FVADJUSTED", args, 2)
				if err != nil {
					return nil, err
				}
				diy, err := intArg("FVADJUSTED", args, 3)
				if err != nil {
					return nil, err
				}
				return finance.AdjustedFutureValue(pv, ir, int64(days), int64(diy))
			},
		},
		{
			Name: "FV360", Category: CategoryFinancial, Summary: "Future value accrued between two dates on a 30/360 basis",
			MinArgs: 8, MaxArgs: 8, Supported: true,
			call: func(args []any) (any, error) {
				pv, err := decimalArg("FV360", args, 0)
				if err != nil {
					return nil, err
				}
				ir, err := decimalArg("FV360", args, 1)
				if err != nil {
					return nil, err
				}
				start, err := dateArgs("FV360", args, 2)
				if err != nil {
					return nil, err
				}
				end, err := dateArgs("FV360", args, 5)
				if err != nil {
					return nil, err
				}
				fv, ok := finance.FutureValue360(pv, ir, start, end)
				if !ok {
					return Undefined, nil
				}
				return fv, nil
			},
		},
	}
}

func scalarFunctions() []Entry {
	unary := func(name string, category Category, summary string, fn func(any) (any, error)) Entry {
		return Entry{
			Name: name, Category: category, Summary: summary,
			MinArgs: 1, MaxArgs: 1, Supported: true,
			call: func(args []any) (any, error) { return fn(args[0]) },
		}
	}

	return []Entry{
		unary("LEN", CategoryText, "Number of characters", func(v any) (any, error) { return scalar.Len(v) }),
		unary("LOWER", CategoryText, "Lower-case text", func(v any) (any, error) { return scalar.Lower(v) }),
		unary("UPPER", CategoryText, "Upper-case text", func(v any) (any, error) { return scalar.Upper(v) }),
		unary("CODE", CategoryText, "Code point of the first character", func(v any) (any, error) { return scalar.Code(v) }),
		unary("ABS", CategoryMath, "Absolute value", func(v any) (any, error) { return scalar.Abs(v) }),
		unary("INT", CategoryMath, "Integer part, truncated toward zero", func(v any) (any, error) { return scalar.Int(v) }),
	}
}

func unsupportedFunctions() []Entry {
	groups := map[Category][]string{
		CategoryArray: {
			"EXPAND", "FREQUENCY", "GROWTH", "LINEST", "LOGEST", "MDETERM", "MINVERSE", "MMULT",
			"NOEXPAND", "SUMPRODUCT", "SUMX2MY2", "SUMX2PY2", "SUMXMY2", "TRANSPOSE", "TREND",
		},
		CategoryDatabase: {
			"DAVERAGE", "DCOUNT", "DCOUNTA", "DGET", "DMAX", "DMIN", "DPRODUCT",
			"DSTDEV", "DSTDEVP", "DSUM", "DVAR", "DVARP",
		},
		CategoryDate: {
			"DATEVALUE", "EDATE", "EOMONTH", "NETWORKDAYS", "WEEKDAY", "WORKDAY", "YEARFRAC",
		},
	}

	var out []Entry
	for category, names := range groups {
		for _, name := range names {
			out = append(out, Entry{
				Name:     name,
				Category: category,
				Summary:  "Not supported",
				MaxArgs:  Variadic,
			})
		}
	}
	return out
}
