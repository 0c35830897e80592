package sheet

import (
	"context"
	"fmt"
	"math"

	"github.com/aevon-lab/easymoney/internal/catalog"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"golang.org/x/sync/singleflight"
)

// CallFunc evaluates one catalog function. The default is Catalog.Call.
type CallFunc func(name string, args []any) (any, error)

// CellResult is the outcome of one cell.
type CellResult struct {
	Name      string `json:"name"`
	Function  string `json:"function,omitempty"`
	Value     any    `json:"value"`
	Undefined bool   `json:"undefined,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`

	err error
}

// Err returns the evaluation error of the cell, if any.
func (r CellResult) Err() error { return r.err }

// Result is an evaluated sheet. Cells are in evaluation order.
type Result struct {
	Sheet       string       `json:"sheet"`
	Fingerprint string       `json:"fingerprint"`
	Cells       []CellResult `json:"cells"`
}

// Cell returns the result for name.
func (r *Result) Cell(name string) (CellResult, bool) {
	for _, c := range r.Cells {
		if c.Name == name {
			return c, true
		}
	}
	return CellResult{}, false
}

// Evaluator compiles and evaluates sheets. Compiled programs are cached by
// sheet name and fingerprint.
type Evaluator struct {
	catalog *catalog.Catalog
	call    CallFunc

	cache        *LRUCache
	compileGroup singleflight.Group // Dedupe concurrent compilation
}

// NewEvaluator creates an evaluator over cat. A nil call uses cat.Call.
func NewEvaluator(cat *catalog.Catalog, cacheSize int, call CallFunc) *Evaluator {
	if call == nil {
		call = cat.Call
	}
	return &Evaluator{
		catalog: cat,
		call:    call,
		cache:   NewLRUCache(cacheSize),
	}
}

func programCacheKey(s *Sheet) string {
	return fmt.Sprintf("%s:%s", s.Name, s.Fingerprint)
}

// getOrCompile retrieves or compiles a program.
func (e *Evaluator) getOrCompile(s *Sheet) (*Program, error) {
	key := programCacheKey(s)

	if p := e.cache.Get(key); p != nil {
		return p, nil
	}

	result, err, _ := e.compileGroup.Do(key, func() (interface{}, error) {
		// Double-check cache after acquiring singleflight lock
		if p := e.cache.Get(key); p != nil {
			return p, nil
		}

		p, err := Compile(e.catalog, s)
		if err != nil {
			return nil, err
		}
		e.cache.Put(key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Program), nil
}

// Evaluate runs every cell of s. The returned error covers compilation
// failures and cancellation; per-cell failures are reported in the Result.
func (e *Evaluator) Evaluate(ctx context.Context, s *Sheet) (*Result, error) {
	p, err := e.getOrCompile(s)
	if err != nil {
		return nil, fmt.Errorf("compile sheet %q: %w", s.Name, err)
	}

	res := &Result{
		Sheet:       p.Sheet,
		Fingerprint: p.Fingerprint,
		Cells:       make([]CellResult, 0, len(p.Order)),
	}
	done := make(map[string]CellResult, len(p.Order))

	for _, name := range p.Order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cr := e.evaluateCell(p.cells[name], done)
		done[name] = cr
		res.Cells = append(res.Cells, cr)
	}
	return res, nil
}

func (e *Evaluator) evaluateCell(cell Cell, done map[string]CellResult) CellResult {
	cr := CellResult{Name: cell.Name, Function: cell.Function}

	fail := func(err error) CellResult {
		cr.err = err
		cr.Error = err.Error()
		cr.ErrorType = coreerr.Kind(err)
		return cr
	}

	if cell.IsLiteral() {
		v, undefined, err := resolve(cell.Value, done)
		if err != nil {
			return fail(err)
		}
		if !finite(v) {
			return fail(fmt.Errorf("%w: value is not finite", coreerr.ErrInvalidParameterRange))
		}
		cr.Value, cr.Undefined = v, undefined
		if undefined {
			cr.Value = nil
		}
		return cr
	}

	args := make([]any, len(cell.Args))
	for i, arg := range cell.Args {
		v, undefined, err := resolve(arg, done)
		if err != nil {
			return fail(err)
		}
		if undefined {
			cr.Undefined = true
			return cr
		}
		args[i] = v
	}

	v, err := e.call(cell.Function, args)
	if err != nil {
		return fail(err)
	}
	if catalog.IsUndefined(v) {
		cr.Undefined = true
		return cr
	}
	cr.Value = v
	return cr
}

// finite reports whether every float in v, including nested lists and maps,
// is representable in JSON.
func finite(v any) bool {
	switch val := v.(type) {
	case float64:
		return !math.IsInf(val, 0) && !math.IsNaN(val)
	case []any:
		for _, item := range val {
			if !finite(item) {
				return false
			}
		}
	case map[string]any:
		for _, item := range val {
			if !finite(item) {
				return false
			}
		}
	}
	return true
}

// resolve substitutes referenced cell values into arg.
func resolve(arg any, done map[string]CellResult) (any, bool, error) {
	switch v := arg.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, undefined, err := resolve(item, done)
			if err != nil || undefined {
				return nil, undefined, err
			}
			out[i] = r
		}
		return out, false, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, undefined, err := resolve(item, done)
			if err != nil || undefined {
				return nil, undefined, err
			}
			out[k] = r
		}
		return out, false, nil
	}

	name, ok := reference(arg)
	if !ok {
		return arg, false, nil
	}
	dep := done[name]
	if dep.err != nil {
		return nil, false, fmt.Errorf("depends on cell %q: %w", name, dep.err)
	}
	return dep.Value, dep.Undefined, nil
}
