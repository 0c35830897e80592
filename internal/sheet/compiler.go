package sheet

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aevon-lab/easymoney/internal/catalog"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrUnknownReference marks an "=name" argument naming no cell.
	ErrUnknownReference = errors.New("unknown cell reference")

	// ErrCycle marks cells that depend on themselves through references.
	ErrCycle = errors.New("reference cycle")
)

// Program is a compiled sheet: every function resolved, every reference
// checked, and cells ordered so dependencies come first.
type Program struct {
	Sheet       string
	Fingerprint string
	Order       []string
	cells       map[string]Cell
	deps        map[string][]string
}

// reference returns the cell name of an "=name" argument.
func reference(arg any) (string, bool) {
	s, ok := arg.(string)
	if !ok || !strings.HasPrefix(s, "=") {
		return "", false
	}
	return strings.TrimSpace(s[1:]), true
}

// collectRefs walks args, descending into lists and maps.
func collectRefs(arg any, into map[string]struct{}) {
	switch v := arg.(type) {
	case []any:
		for _, item := range v {
			collectRefs(item, into)
		}
	case map[string]any:
		for _, item := range v {
			collectRefs(item, into)
		}
	default:
		if name, ok := reference(v); ok {
			into[name] = struct{}{}
		}
	}
}

// Compile checks s against cat and orders its cells for evaluation.
func Compile(cat *catalog.Catalog, s *Sheet) (*Program, error) {
	p := &Program{
		Sheet:       s.Name,
		Fingerprint: s.Fingerprint,
		cells:       s.Cells,
		deps:        make(map[string][]string, len(s.Cells)),
	}

	for _, name := range s.CellNames() {
		cell := s.Cells[name]
		if !cell.IsLiteral() {
			entry, ok := cat.Lookup(cell.Function)
			if !ok {
				return nil, fmt.Errorf("cell %q: %w: %q", name, coreerr.ErrUnknownFunction, cell.Function)
			}
			if !entry.Supported {
				return nil, fmt.Errorf("cell %q: %s: %w", name, entry.Name, coreerr.ErrNotSupported)
			}
			if len(cell.Args) < entry.MinArgs || (entry.MaxArgs != catalog.Variadic && len(cell.Args) > entry.MaxArgs) {
				return nil, fmt.Errorf("cell %q: %s: %w: got %d, want %s", name, entry.Name, coreerr.ErrArity, len(cell.Args), entry.Arity())
			}
		}

		refs := make(map[string]struct{})
		for _, arg := range cell.Args {
			collectRefs(arg, refs)
		}
		collectRefs(cell.Value, refs)

		deps := make([]string, 0, len(refs))
		for ref := range refs {
			if _, ok := s.Cells[ref]; !ok {
				return nil, fmt.Errorf("cell %q: %w: %q", name, ErrUnknownReference, ref)
			}
			deps = append(deps, ref)
		}
		sort.Strings(deps)
		p.deps[name] = deps
	}

	order, err := topoSort(s.CellNames(), p.deps)
	if err != nil {
		return nil, err
	}
	p.Order = order
	return p, nil
}

// topoSort orders names so each cell follows its dependencies. Ties are
// broken lexically for a stable order.
func topoSort(names []string, deps map[string][]string) ([]string, error) {
	ids := make(map[string]int64, len(names))
	g := simple.NewDirectedGraph()
	for i, name := range names {
		ids[name] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, name := range names {
		for _, dep := range deps[name] {
			if dep == name {
				return nil, fmt.Errorf("%w: cell %s references itself", ErrCycle, name)
			}
			g.SetEdge(g.NewEdge(simple.Node(ids[dep]), simple.Node(ids[name])))
		}
	}

	sorted, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return names[nodes[i].ID()] < names[nodes[j].ID()] })
	})
	if err != nil {
		var cycles topo.Unorderable
		if !errors.As(err, &cycles) {
			return nil, err
		}
		var stuck []string
		for _, component := range cycles {
			for _, n := range component {
				stuck = append(stuck, names[n.ID()])
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w between cells %s", ErrCycle, strings.Join(stuck, ", "))
	}

	order := make([]string, len(sorted))
	for i, n := range sorted {
		order[i] = names[n.ID()]
	}
	return order, nil
}
