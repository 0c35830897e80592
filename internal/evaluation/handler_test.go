package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "github.com/aevon-lab/easymoney/internal/api/v1"
	"github.com/aevon-lab/easymoney/internal/catalog"
	"github.com/aevon-lab/easymoney/internal/core/clock"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"github.com/aevon-lab/easymoney/internal/metrics"
	"github.com/aevon-lab/easymoney/internal/sheet"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const loanSheet = `
name: loan
cells:
  principal:
    value: 1000
  days:
    function: DAYS360
    args: [1, 1, 2024, 1, 4, 2024]
  grown:
    function: FVADJUSTED
    args: ["=principal", 12, "=days", 360]
`

const cyclicSheet = `
name: cyclic
cells:
  a:
    function: ABS
    args: ["=b"]
  b:
    function: ABS
    args: ["=a"]
`

func newTestService(t *testing.T, rec *metrics.Recorder) (*Service, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var sheets []sheet.Sheet
	for _, body := range []string{loanSheet, cyclicSheet} {
		sh, err := sheet.Parse([]byte(body))
		require.NoError(t, err)
		sheets = append(sheets, *sh)
	}
	repo, err := sheet.NewMemoryRepository(sheets...)
	require.NoError(t, err)

	cat := catalog.New(clock.Fixed(time.Date(2026, 2, 11, 10, 35, 42, 0, time.UTC)))
	svc := NewService(cat, repo, rec, Options{BatchMaxItems: 3, BatchWorkers: 2})

	r := gin.New()
	svc.RegisterRoutes(r)
	return svc, r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) coreerr.ErrorResponse {
	t.Helper()
	var errResp coreerr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	return errResp
}

func TestEvaluateHandler_Success(t *testing.T) {
	_, r := newTestService(t, nil)

	resp := doRequest(r, http.MethodPost, "/v1/functions/average/evaluate", `{"args": [[1, 2, 3, 4]]}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var eval v1.Evaluation
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &eval))
	require.NotEmpty(t, eval.ID)
	require.Equal(t, "AVERAGE", eval.Function)
	require.Equal(t, 2.5, eval.Result)
	require.False(t, eval.Undefined)
}

func TestEvaluateHandler_Days360(t *testing.T) {
	_, r := newTestService(t, nil)

	resp := doRequest(r, http.MethodPost, "/v1/functions/DAYS360/evaluate", `{"args": [31, 1, 2000, 1, 3, 2000]}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `30`, string(mustField(t, resp, "result")))

	resp = doRequest(r, http.MethodPost, "/v1/functions/DAYS360/evaluate", `{"args": [30, 2, 2021, 1, 3, 2021]}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `null`, string(mustField(t, resp, "result")))
	require.JSONEq(t, `true`, string(mustField(t, resp, "undefined")))
}

func TestEvaluateHandler_EmptyBody(t *testing.T) {
	_, r := newTestService(t, nil)

	resp := doRequest(r, http.MethodPost, "/v1/functions/year/evaluate", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `2026`, string(mustField(t, resp, "result")))
}

func TestEvaluateHandler_DecimalArgsStayExact(t *testing.T) {
	_, r := newTestService(t, nil)

	resp := doRequest(r, http.MethodPost, "/v1/functions/FVSIMPLE/evaluate", `{"args": [0.1, 0.2]}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `"0.1002"`, string(mustField(t, resp, "result")))
}

func TestEvaluateHandler_Errors(t *testing.T) {
	_, r := newTestService(t, nil)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantType   string
	}{
		{"unknown function", "/v1/functions/NOPE/evaluate", `{"args": []}`, http.StatusNotFound, coreerr.HttpUnknownFunctionError},
		{"not supported", "/v1/functions/MMULT/evaluate", `{"args": [[1], [2]]}`, http.StatusNotImplemented, coreerr.HttpNotSupportedError},
		{"arity", "/v1/functions/AVERAGE/evaluate", `{"args": []}`, http.StatusBadRequest, coreerr.HttpArityError},
		{"not a list", "/v1/functions/AVERAGE/evaluate", `{"args": ["0"]}`, http.StatusBadRequest, coreerr.HttpInvalidArgumentKind},
		{"empty list", "/v1/functions/AVERAGE/evaluate", `{"args": [[]]}`, http.StatusBadRequest, coreerr.HttpEmptyInputError},
		{"trim range", "/v1/functions/TRIMMEAN/evaluate", `{"args": [[1, 2], 0.5]}`, http.StatusBadRequest, coreerr.HttpInvalidParameterRange},
		{"division by zero", "/v1/functions/HARMEAN/evaluate", `{"args": [[1, 0]]}`, http.StatusUnprocessableEntity, coreerr.HttpDivisionByZeroError},
		{"malformed json", "/v1/functions/SUM/evaluate", `not json`, http.StatusBadRequest, coreerr.HttpInvalidJsonError},
		{"trailing data", "/v1/functions/SUM/evaluate", `{"args": [[1]]} {}`, http.StatusBadRequest, coreerr.HttpInvalidJsonError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(r, http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.wantStatus, resp.Code)
			require.Equal(t, tc.wantType, decodeError(t, resp).ErrorType)
		})
	}
}

func TestEvaluateHandler_BodySizeLimit(t *testing.T) {
	svc, r := newTestService(t, nil)
	svc.maxBodySizeBytes = 10

	resp := doRequest(r, http.MethodPost, "/v1/functions/SUM/evaluate", `{"args": [[1, 2, 3, 4, 5, 6]]}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

	errResp := decodeError(t, resp)
	require.Equal(t, coreerr.HttpRequestTooLargeError, errResp.ErrorType)
	require.Contains(t, errResp.Message, "maximum allowed size")
}

func TestBatchHandler(t *testing.T) {
	rec := metrics.NewRecorder()
	_, r := newTestService(t, rec)

	resp := doRequest(r, http.MethodPost, "/v1/evaluate/batch", `{"calls": [
		{"function": "sum", "args": [[1, 2, 3]]},
		{"function": "DAYS360", "args": [30, 2, 2021, 1, 3, 2021]},
		{"function": "AVERAGE", "args": [[]]}
	]}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var batch v1.BatchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &batch))
	require.Len(t, batch.Results, 3)
	require.Equal(t, 2, batch.Succeeded)
	require.Equal(t, 1, batch.Failed)

	for i, item := range batch.Results {
		require.Equal(t, i, item.Index)
		require.NotEmpty(t, item.ID)
	}
	require.Equal(t, "SUM", batch.Results[0].Function)
	require.Equal(t, 6.0, batch.Results[0].Result)
	require.True(t, batch.Results[1].Undefined)
	require.Nil(t, batch.Results[1].Result)
	require.Equal(t, coreerr.HttpEmptyInputError, batch.Results[2].ErrorType)

	metricsBody := `
# HELP easymoney_evaluations_total Function evaluations by function and outcome.
# TYPE easymoney_evaluations_total counter
easymoney_evaluations_total{function="AVERAGE",outcome="empty_input"} 1
easymoney_evaluations_total{function="DAYS360",outcome="undefined"} 1
easymoney_evaluations_total{function="SUM",outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(metricsBody), "easymoney_evaluations_total"))
}

func TestBatchHandler_Rejected(t *testing.T) {
	_, r := newTestService(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{"no calls", `{"calls": []}`, http.StatusBadRequest, coreerr.HttpInvalidJsonError},
		{"missing function", `{"calls": [{"args": [1]}]}`, http.StatusBadRequest, coreerr.HttpInvalidJsonError},
		{
			"too many calls",
			fmt.Sprintf(`{"calls": [%s]}`, strings.TrimSuffix(strings.Repeat(`{"function": "NOW"},`, 4), ",")),
			http.StatusRequestEntityTooLarge,
			coreerr.HttpBatchTooLargeError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(r, http.MethodPost, "/v1/evaluate/batch", tc.body)
			require.Equal(t, tc.wantStatus, resp.Code)
			require.Equal(t, tc.wantType, decodeError(t, resp).ErrorType)
		})
	}
}

func TestFunctionHandlers(t *testing.T) {
	_, r := newTestService(t, nil)

	resp := doRequest(r, http.MethodGet, "/v1/functions?category=financial", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entries))
	require.NotEmpty(t, entries)
	for _, e := range entries {
		require.Equal(t, catalog.CategoryFinancial, e.Category)
	}

	resp = doRequest(r, http.MethodGet, "/v1/functions?category=nope", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `[]`, resp.Body.String())

	resp = doRequest(r, http.MethodGet, "/v1/functions/trimmean", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var entry catalog.Entry
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entry))
	require.Equal(t, "TRIMMEAN", entry.Name)
	require.Equal(t, 2, entry.MinArgs)

	resp = doRequest(r, http.MethodGet, "/v1/functions/NOPE", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, coreerr.HttpUnknownFunctionError, decodeError(t, resp).ErrorType)
}

func TestSheetHandlers(t *testing.T) {
	_, r := newTestService(t, nil)

	resp := doRequest(r, http.MethodGet, "/v1/sheets", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var summaries []v1.SheetSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	require.Equal(t, "cyclic", summaries[0].Name)
	require.Equal(t, []string{"days", "grown", "principal"}, summaries[1].Cells)

	resp = doRequest(r, http.MethodGet, "/v1/sheets/loan", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var res struct {
		Sheet string `json:"sheet"`
		Cells []struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	require.Equal(t, "loan", res.Sheet)
	require.Len(t, res.Cells, 3)
	require.Equal(t, "grown", res.Cells[2].Name)
	require.JSONEq(t, `"1030"`, string(res.Cells[2].Value))

	resp = doRequest(r, http.MethodGet, "/v1/sheets/cyclic", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	require.Equal(t, coreerr.HttpSheetCompilationFailed, decodeError(t, resp).ErrorType)

	resp = doRequest(r, http.MethodGet, "/v1/sheets/missing", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, coreerr.HttpSheetNotFoundError, decodeError(t, resp).ErrorType)
}

func TestHandlers_OverflowingResults(t *testing.T) {
	_, r := newTestService(t, nil)

	for _, tc := range []struct{ function, body string }{
		{"SUMSQ", `{"args": [[1e200]]}`},
		{"SUM", `{"args": [[1e308, 1e308]]}`},
		{"AVERAGE", `{"args": [[1e308, 1e308]]}`},
		{"SUM", `{"args": [[1e400, 1]]}`},
	} {
		t.Run(tc.function, func(t *testing.T) {
			resp := doRequest(r, http.MethodPost, "/v1/functions/"+tc.function+"/evaluate", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			require.Equal(t, coreerr.HttpInvalidParameterRange, decodeError(t, resp).ErrorType)
		})
	}

	resp := doRequest(r, http.MethodPost, "/v1/evaluate/batch", `{"calls": [
		{"function": "SUMSQ", "args": [[1e200]]},
		{"function": "SUM", "args": [[1, 2]]}
	]}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var batch v1.BatchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &batch))
	require.Equal(t, 1, batch.Succeeded)
	require.Equal(t, 1, batch.Failed)
	require.Equal(t, coreerr.HttpInvalidParameterRange, batch.Results[0].ErrorType)
	require.Equal(t, 3.0, batch.Results[1].Result)
}

func TestEvaluateSheetHandler_OverflowingCell(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sh, err := sheet.Parse([]byte(`
name: huge
cells:
  big:
    value: 1e200
  squared:
    function: SUMSQ
    args: [["=big"]]
  small:
    function: SUM
    args: [[1, 2]]
`))
	require.NoError(t, err)
	repo, err := sheet.NewMemoryRepository(*sh)
	require.NoError(t, err)

	svc := NewService(catalog.New(nil), repo, nil, Options{})
	r := gin.New()
	svc.RegisterRoutes(r)

	resp := doRequest(r, http.MethodGet, "/v1/sheets/huge", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var res sheet.Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	cells := make(map[string]sheet.CellResult, len(res.Cells))
	for _, c := range res.Cells {
		cells[c.Name] = c
	}
	require.Equal(t, coreerr.HttpInvalidParameterRange, cells["squared"].ErrorType)
	require.Nil(t, cells["squared"].Value)
	require.Equal(t, 3.0, cells["small"].Value)
}

func TestListSheetsHandler_RepositoryError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(catalog.New(nil), failingRepo{}, nil, Options{})
	r := gin.New()
	svc.RegisterRoutes(r)

	resp := doRequest(r, http.MethodGet, "/v1/sheets", "")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Equal(t, coreerr.HttpInternalError, decodeError(t, resp).ErrorType)
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	require.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("x: %w", coreerr.ErrArity)))
}

func mustField(t *testing.T, resp *httptest.ResponseRecorder, field string) json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	raw, ok := body[field]
	require.True(t, ok, "missing field %q", field)
	return raw
}

// failingRepo is a sheet repository whose every call fails.
type failingRepo struct{}

func (failingRepo) Get(ctx context.Context, name string) (*sheet.Sheet, error) {
	return nil, errors.New("disk on fire")
}

func (failingRepo) List(ctx context.Context) ([]sheet.Sheet, error) {
	return nil, errors.New("disk on fire")
}
