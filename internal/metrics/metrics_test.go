package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()

	r.Observe("AVERAGE", time.Millisecond, false, nil)
	r.Observe("AVERAGE", time.Millisecond, false, nil)
	r.Observe("DAYS360", time.Microsecond, true, nil)
	r.Observe("AVERAGE", time.Microsecond, false, fmt.Errorf("AVERAGE: %w", coreerr.ErrEmptyInput))

	require.Equal(t, 2.0, testutil.ToFloat64(r.evaluations.WithLabelValues("AVERAGE", OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.evaluations.WithLabelValues("DAYS360", OutcomeUndefined)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.evaluations.WithLabelValues("AVERAGE", coreerr.HttpEmptyInputError)))
	require.Equal(t, 2, testutil.CollectAndCount(r.duration))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	require.NotPanics(t, func() { r.Observe("SUM", time.Second, false, nil) })
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.Observe("SUM", time.Millisecond, false, nil)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `easymoney_evaluations_total{function="SUM",outcome="ok"} 1`))
	require.Contains(t, string(body), "easymoney_evaluation_duration_seconds_bucket")
}
