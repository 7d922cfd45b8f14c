package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/metrics"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", metrics.Outcome(nil))
	assert.Equal(t, "out_of_stock", metrics.Outcome(apperror.NewOutOfStockError("x")))
	assert.Equal(t, "unknown_error", metrics.Outcome(errors.New("boom")))
}

func TestObserveLedger(t *testing.T) {
	m := metrics.New()

	m.ObserveLedger("purchase", nil)
	m.ObserveLedger("purchase", nil)
	m.ObserveLedger("purchase", apperror.NewOutOfStockError("esgotado"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerOperationsTotal.WithLabelValues("purchase", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperationsTotal.WithLabelValues("purchase", "out_of_stock")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveLedger("purchase", nil)
		m.ObserveAuth("login", nil)
		m.ObserveCache("list", true)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.ObserveAuth("login", apperror.NewInvalidCredentialsError())
	m.ObserveCache("list", false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sweetshop_auth_operations_total{operation="login",outcome="invalid_credentials"} 1`)
	assert.Contains(t, string(body), `sweetshop_cache_lookups_total{key_type="list",result="miss"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
