package evaluation

import (
	"time"

	"github.com/aevon-lab/easymoney/internal/catalog"
	"github.com/aevon-lab/easymoney/internal/metrics"
	"github.com/aevon-lab/easymoney/internal/sheet"
	"github.com/gin-gonic/gin"
)

// Options tunes request limits and batch concurrency. Zero values fall back
// to the defaults below.
type Options struct {
	MaxBodySizeMB    int
	BatchMaxItems    int
	BatchWorkers     int
	CompileCacheSize int
}

const (
	defaultBatchMaxItems    = 1000
	defaultBatchWorkers     = 4
	defaultCompileCacheSize = 64
)

type Service struct {
	catalog   *catalog.Catalog
	sheets    sheet.Repository
	evaluator *sheet.Evaluator
	recorder  *metrics.Recorder

	maxBodySizeBytes int
	batchMaxItems    int
	batchWorkers     int
	now              func() time.Time
}

// NewService wires the catalog, the sheet repository and an optional metrics
// recorder.
func NewService(cat *catalog.Catalog, sheets sheet.Repository, rec *metrics.Recorder, opts Options) *Service {
	if cat == nil {
		panic("evaluation: catalog must not be nil")
	}
	if sheets == nil {
		panic("evaluation: sheet repository must not be nil")
	}
	if opts.MaxBodySizeMB <= 0 {
		opts.MaxBodySizeMB = 1 // default to 1MB
	}
	if opts.BatchMaxItems <= 0 {
		opts.BatchMaxItems = defaultBatchMaxItems
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = defaultBatchWorkers
	}
	if opts.CompileCacheSize <= 0 {
		opts.CompileCacheSize = defaultCompileCacheSize
	}

	s := &Service{
		catalog:          cat,
		sheets:           sheets,
		recorder:         rec,
		maxBodySizeBytes: opts.MaxBodySizeMB * 1024 * 1024,
		batchMaxItems:    opts.BatchMaxItems,
		batchWorkers:     opts.BatchWorkers,
		now:              func() time.Time { return time.Now().UTC() },
	}
	s.evaluator = sheet.NewEvaluator(cat, opts.CompileCacheSize, s.Call)
	return s
}

// Call evaluates one function and records its outcome.
func (s *Service) Call(name string, args []any) (any, error) {
	start := time.Now()
	result, err := s.catalog.Call(name, args)

	label := "unknown" // keeps label cardinality bounded
	if entry, ok := s.catalog.Lookup(name); ok {
		label = entry.Name
	}
	s.recorder.Observe(label, time.Since(start), catalog.IsUndefined(result), err)
	return result, err
}

// RegisterRoutes registers the evaluation service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/functions", s.ListFunctionsHandler)
	r.GET("/v1/functions/:name", s.GetFunctionHandler)
	r.POST("/v1/functions/:name/evaluate", s.EvaluateHandler)
	r.POST("/v1/evaluate/batch", s.BatchHandler)

	r.GET("/v1/sheets", s.ListSheetsHandler)
	r.GET("/v1/sheets/:name", s.EvaluateSheetHandler)
}
