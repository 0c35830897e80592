// Package catalog is the registry of named spreadsheet functions. Every
// outer surface (HTTP API, CLI, sheets) resolves function names here.
//
// To add a function: write it in an internal/core package and add an Entry to
// one of the category constructors. No switch statements need to change.
package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aevon-lab/easymoney/internal/core/clock"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
)

type Category string

const (
	CategoryStatistical Category = "statistical"
	CategoryDate        Category = "date"
	CategoryFinancial   Category = "financial"
	CategoryText        Category = "text"
	CategoryMath        Category = "math"
	CategoryArray       Category = "array"
	CategoryDatabase    Category = "database"
)

// Variadic as MaxArgs means no upper bound on the argument count.
const Variadic = -1

// Func evaluates a function over already-arity-checked arguments.
type Func func(args []any) (any, error)

// Entry describes one catalog function.
type Entry struct {
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Summary   string   `json:"summary"`
	MinArgs   int      `json:"min_args"`
	MaxArgs   int      `json:"max_args"`
	Supported bool     `json:"supported"`

	call Func
}

// Catalog maps upper-cased function names to entries. It is immutable after
// New and safe for concurrent use.
type Catalog struct {
	entries map[string]Entry
}

// New builds the full catalog. clk backs the date and time accessors; nil
// means wall-clock UTC.
func New(clk *clock.Clock) *Catalog {
	c := &Catalog{entries: make(map[string]Entry)}
	c.register(statisticalFunctions()...)
	c.register(dateFunctions(clk)...)
	c.register(financialFunctions()...)
	c.register(scalarFunctions()...)
	c.register(unsupportedFunctions()...)
	return c
}

func (c *Catalog) register(entries ...Entry) {
	for _, e := range entries {
		key := strings.ToUpper(e.Name)
		if _, exists := c.entries[key]; exists {
			panic(fmt.Sprintf("catalog: duplicate function %q", e.Name))
		}
		c.entries[key] = e
	}
}

// Lookup finds a function by case-insensitive name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c.entries[strings.ToUpper(strings.TrimSpace(name))]
	return e, ok
}

// Call evaluates the named function. Undefined results are reported as the
// Undefined value, not as an error. A float result that overflows to ±Inf
// or NaN is an ErrInvalidParameterRange error.
func (c *Catalog) Call(name string, args []any) (any, error) {
	e, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", coreerr.ErrUnknownFunction, name)
	}
	if !e.Supported || e.call == nil {
		return nil, fmt.Errorf("%s: %w", e.Name, coreerr.ErrNotSupported)
	}
	if len(args) < e.MinArgs || (e.MaxArgs != Variadic && len(args) > e.MaxArgs) {
		return nil, fmt.Errorf("%s: %w: got %d, want %s", e.Name, coreerr.ErrArity, len(args), e.Arity())
	}
	result, err := e.call(args)
	if err != nil {
		return nil, err
	}
	if f, ok := result.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil, fmt.Errorf("%s: %w: result overflows", e.Name, coreerr.ErrInvalidParameterRange)
	}
	return result, nil
}

// List returns every entry sorted by name.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListCategory returns the entries of one category sorted by name.
func (c *Catalog) ListCategory(category Category) []Entry {
	var out []Entry
	for _, e := range c.List() {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Arity describes the accepted argument count, e.g. "2" or "at least 1".
func (e Entry) Arity() string {
	switch {
	case e.MaxArgs == Variadic:
		return fmt.Sprintf("at least %d", e.MinArgs)
	case e.MinArgs == e.MaxArgs:
		return fmt.Sprintf("%d", e.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", e.MinArgs, e.MaxArgs)
	}
}

type undefinedValue struct{}

func (undefinedValue) String() string { return "#VALUE!" }

func (undefinedValue) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Undefined is the result of a function whose inputs fall outside its
// domain without being an error, such as DAYS360 on 30 February.
var Undefined any = undefinedValue{}

// IsUndefined reports whether v is the Undefined result.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedValue)
	return ok
}
