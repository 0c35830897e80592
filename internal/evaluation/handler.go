package evaluation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	v1 "github.com/aevon-lab/easymoney/internal/api/v1"
	"github.com/aevon-lab/easymoney/internal/catalog"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"github.com/aevon-lab/easymoney/internal/sheet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	msgReadBodyFailed   = "Failed to read request body"
	msgInvalidJSON      = "Invalid JSON body"
	msgBodyTooLarge     = "Request body exceeds maximum allowed size"
	msgBatchTooLarge    = "Batch exceeds maximum number of calls"
	msgUnknownFunction  = "Function not found"
	msgSheetListFailed  = "Failed to list sheets"
	msgSheetEvalAborted = "Sheet evaluation aborted"
)

// apiError carries the structured HTTP error shape from a helper back to the handler.
type apiError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *apiError) Error() string {
	return e.message
}

// statusFor maps a formula error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, coreerr.ErrUnknownFunction):
		return http.StatusNotFound
	case errors.Is(err, coreerr.ErrNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, coreerr.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	case errors.Is(err, coreerr.ErrArity),
		errors.Is(err, coreerr.ErrInvalidArgumentKind),
		errors.Is(err, coreerr.ErrEmptyInput),
		errors.Is(err, coreerr.ErrInvalidParameterRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func formulaError(err error) *apiError {
	return &apiError{
		statusCode: statusFor(err),
		errorType:  coreerr.Kind(err),
		message:    err.Error(),
	}
}

// ListFunctionsHandler lists catalog entries, optionally filtered by ?category=.
func (s *Service) ListFunctionsHandler(c *gin.Context) {
	entries := s.catalog.List()
	if category := c.Query("category"); category != "" {
		entries = s.catalog.ListCategory(catalog.Category(strings.ToLower(category)))
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

// GetFunctionHandler returns one catalog entry.
func (s *Service) GetFunctionHandler(c *gin.Context) {
	entry, ok := s.catalog.Lookup(c.Param("name"))
	if !ok {
		writeError(c, &apiError{
			statusCode: http.StatusNotFound,
			errorType:  coreerr.HttpUnknownFunctionError,
			message:    msgUnknownFunction,
			details:    map[string]interface{}{"function": c.Param("name")},
		})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// EvaluateHandler evaluates a single function call.
func (s *Service) EvaluateHandler(c *gin.Context) {
	var req v1.EvaluateRequest
	if err := s.decodeBody(c, &req, true); err != nil {
		writeError(c, err)
		return
	}

	id := uuid.NewString()
	name := c.Param("name")

	result, err := s.Call(name, req.Args)
	if err != nil {
		apiErr := formulaError(err)
		slog.Warn("Evaluation failed",
			"evaluation_id", id,
			"function", name,
			"error_type", apiErr.errorType,
			"error", err)
		writeError(c, apiErr)
		return
	}

	eval := v1.Evaluation{
		ID:          id,
		Function:    canonicalName(s.catalog, name),
		Result:      result,
		EvaluatedAt: s.now(),
	}
	if catalog.IsUndefined(result) {
		eval.Result, eval.Undefined = nil, true
	}

	slog.Debug("Evaluated function",
		"evaluation_id", id,
		"function", eval.Function,
		"args", len(req.Args),
		"undefined", eval.Undefined)

	c.JSON(http.StatusOK, eval)
}

// BatchHandler evaluates several calls concurrently. Per-call failures are
// reported inline; the batch itself succeeds.
func (s *Service) BatchHandler(c *gin.Context) {
	var req v1.BatchRequest
	if err := s.decodeBody(c, &req, false); err != nil {
		writeError(c, err)
		return
	}

	if err := req.Validate(); err != nil {
		writeError(c, &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  coreerr.HttpInvalidJsonError,
			message:    err.Error(),
		})
		return
	}

	if len(req.Calls) > s.batchMaxItems {
		slog.Warn("Batch exceeds maximum size", "calls", len(req.Calls), "max", s.batchMaxItems)
		writeError(c, &apiError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  coreerr.HttpBatchTooLargeError,
			message:    msgBatchTooLarge,
			details:    map[string]interface{}{"max_items": s.batchMaxItems},
		})
		return
	}

	items := make([]v1.BatchItem, len(req.Calls))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(s.batchWorkers)

	for i, call := range req.Calls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items[i] = s.evaluateCall(i, call)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Warn("Batch evaluation aborted", "error", err)
		writeError(c, &apiError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  coreerr.HttpInternalError,
			message:    "Batch evaluation aborted",
		})
		return
	}

	resp := v1.BatchResponse{Results: items}
	for _, item := range items {
		if item.ErrorType != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	slog.Info("Evaluated batch",
		"calls", len(items),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed)

	c.JSON(http.StatusOK, resp)
}

func (s *Service) evaluateCall(index int, call v1.Call) v1.BatchItem {
	item := v1.BatchItem{
		Index:    index,
		ID:       uuid.NewString(),
		Function: canonicalName(s.catalog, call.Function),
	}

	result, err := s.Call(call.Function, call.Args)
	switch {
	case err != nil:
		item.ErrorType = coreerr.Kind(err)
		item.Error = err.Error()
	case catalog.IsUndefined(result):
		item.Undefined = true
	default:
		item.Result = result
	}
	return item
}

// ListSheetsHandler lists loaded sheets.
func (s *Service) ListSheetsHandler(c *gin.Context) {
	sheets, err := s.sheets.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list sheets", "error", err)
		writeError(c, &apiError{
			statusCode: http.StatusInternalServerError,
			errorType:  coreerr.HttpInternalError,
			message:    msgSheetListFailed,
		})
		return
	}

	out := make([]v1.SheetSummary, 0, len(sheets))
	for _, sh := range sheets {
		out = append(out, v1.SheetSummary{
			Name:        sh.Name,
			Description: sh.Description,
			Fingerprint: sh.Fingerprint,
			Cells:       sh.CellNames(),
		})
	}
	c.JSON(http.StatusOK, out)
}

// EvaluateSheetHandler evaluates every cell of one sheet.
func (s *Service) EvaluateSheetHandler(c *gin.Context) {
	name := c.Param("name")

	sh, err := s.sheets.Get(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			writeError(c, &apiError{
				statusCode: http.StatusNotFound,
				errorType:  coreerr.HttpSheetNotFoundError,
				message:    err.Error(),
			})
			return
		}
		slog.Error("Failed to load sheet", "sheet", name, "error", err)
		writeError(c, &apiError{
			statusCode: http.StatusInternalServerError,
			errorType:  coreerr.HttpInternalError,
			message:    err.Error(),
		})
		return
	}

	res, err := s.evaluator.Evaluate(c.Request.Context(), sh)
	if err != nil {
		if c.Request.Context().Err() != nil {
			writeError(c, &apiError{
				statusCode: http.StatusServiceUnavailable,
				errorType:  coreerr.HttpInternalError,
				message:    msgSheetEvalAborted,
			})
			return
		}
		slog.Warn("Sheet compilation failed", "sheet", name, "fingerprint", sh.Fingerprint, "error", err)
		writeError(c, &apiError{
			statusCode: http.StatusUnprocessableEntity,
			errorType:  coreerr.HttpSheetCompilationFailed,
			message:    err.Error(),
			details:    map[string]interface{}{"sheet": name},
		})
		return
	}

	c.JSON(http.StatusOK, res)
}

// decodeBody reads the body under the size limit and decodes it into v,
// keeping JSON numbers exact. allowEmpty accepts an empty body as "{}".
func (s *Service) decodeBody(c *gin.Context, v interface{}, allowEmpty bool) *apiError {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return &apiError{
			statusCode: http.StatusInternalServerError,
			errorType:  coreerr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &apiError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  coreerr.HttpRequestTooLargeError,
			message:    msgBodyTooLarge,
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	if allowEmpty && len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(bodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  coreerr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    map[string]interface{}{"error": err.Error()},
		}
	}
	if dec.More() {
		return &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  coreerr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    map[string]interface{}{"error": fmt.Sprintf("unexpected data after JSON value at offset %d", dec.InputOffset())},
		}
	}
	return nil
}

func canonicalName(cat *catalog.Catalog, name string) string {
	if entry, ok := cat.Lookup(name); ok {
		return entry.Name
	}
	return strings.ToUpper(strings.TrimSpace(name))
}

// writeError serializes an apiError as the JSON HTTP response.
func writeError(c *gin.Context, err *apiError) {
	c.JSON(err.statusCode, coreerr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
