package sheet

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrSheetNotFound is returned by Repository.Get for unknown sheet names.
var ErrSheetNotFound = errors.New("sheet not found")

// Cell is one named formula of a sheet. A cell either holds a literal Value
// or calls Function with Args. String arguments of the form "=name" refer to
// another cell of the same sheet.
type Cell struct {
	Name     string
	Function string
	Args     []any
	Value    any
}

// IsLiteral reports whether the cell holds a plain value instead of a call.
func (c Cell) IsLiteral() bool {
	return c.Function == ""
}

// Sheet is a named set of cells loaded from one YAML file.
type Sheet struct {
	Name        string
	Description string
	Cells       map[string]Cell
	Fingerprint string // SHA-256 of the raw YAML file; computed at load time
	Path        string
}

// CellNames returns the cell names in lexical order.
func (s *Sheet) CellNames() []string {
	names := make([]string, 0, len(s.Cells))
	for name := range s.Cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rawSheet is the on-disk YAML shape.
type rawSheet struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Cells       map[string]rawCell `yaml:"cells"`
}

type rawCell struct {
	Function string `yaml:"function"`
	Args     []any  `yaml:"args"`
	Value    any    `yaml:"value"`
}

// Repository defines the interface for loading sheets.
type Repository interface {
	// Get returns the sheet with the given name, or ErrSheetNotFound.
	Get(ctx context.Context, name string) (*Sheet, error)

	// List returns all loaded sheets sorted by name.
	List(ctx context.Context) ([]Sheet, error)
}

// FileSystemRepository loads sheets from *.yaml files in a directory.
// Each file contains exactly one sheet. Sheets are loaded once and cached in
// memory; there is no hot reload.
type FileSystemRepository struct {
	dir    string
	sheets map[string]Sheet // keyed by Name
}

// NewFileSystemRepository creates a repository and eagerly loads all sheets
// from dir. A missing directory yields an empty repository; malformed files
// are errors.
func NewFileSystemRepository(dir string) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir:    dir,
		sheets: make(map[string]Sheet),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewMemoryRepository serves the given sheets without touching disk.
func NewMemoryRepository(sheets ...Sheet) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{sheets: make(map[string]Sheet, len(sheets))}
	for _, s := range sheets {
		if _, exists := repo.sheets[s.Name]; exists {
			return nil, fmt.Errorf("sheet %q: duplicate sheet name", s.Name)
		}
		repo.sheets[s.Name] = s
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("sheet dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sheet path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading sheet dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading sheet file %s: %w", path, err)
		}

		s, err := Parse(data)
		if err != nil {
			return fmt.Errorf("sheet file %s: %w", path, err)
		}
		if s == nil {
			continue // empty / comment-only file
		}
		s.Path = path

		if _, exists := r.sheets[s.Name]; exists {
			return fmt.Errorf("sheet %q: duplicate sheet name (check multiple YAML files)", s.Name)
		}
		r.sheets[s.Name] = *s
	}
	return nil
}

// Parse decodes one sheet document. It returns nil, nil for a document
// without a name.
func Parse(data []byte) (*Sheet, error) {
	var raw rawSheet
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing sheet: %w", err)
	}
	if raw.Name == "" {
		return nil, nil
	}
	if len(raw.Cells) == 0 {
		return nil, fmt.Errorf("sheet %q: cells must not be empty", raw.Name)
	}

	s := &Sheet{
		Name:        raw.Name,
		Description: raw.Description,
		Cells:       make(map[string]Cell, len(raw.Cells)),
		Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
	}
	for name, rc := range raw.Cells {
		if name == "" || strings.HasPrefix(name, "=") {
			return nil, fmt.Errorf("sheet %q: invalid cell name %q", raw.Name, name)
		}
		if rc.Function == "" && rc.Args != nil {
			return nil, fmt.Errorf("sheet %q: cell %q has args but no function", raw.Name, name)
		}
		if rc.Function != "" && rc.Value != nil {
			return nil, fmt.Errorf("sheet %q: cell %q sets both function and value", raw.Name, name)
		}
		s.Cells[name] = Cell{
			Name:     name,
			Function: strings.ToUpper(strings.TrimSpace(rc.Function)),
			Args:     rc.Args,
			Value:    rc.Value,
		}
	}
	return s, nil
}

// Get returns the sheet with the given name, or ErrSheetNotFound.
func (r *FileSystemRepository) Get(_ context.Context, name string) (*Sheet, error) {
	s, ok := r.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return &s, nil
}

// List returns all loaded sheets sorted by name.
func (r *FileSystemRepository) List(_ context.Context) ([]Sheet, error) {
	out := make([]Sheet, 0, len(r.sheets))
	for _, s := range r.sheets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
