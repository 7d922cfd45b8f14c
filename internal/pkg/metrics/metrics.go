package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperror "sweetshop/internal/errors"
)

// OutcomeSuccess é o rótulo de resultado para operações sem erro.
const OutcomeSuccess = "success"

// Metrics agrupa os coletores Prometheus da API.
// Um *Metrics nil é válido: os métodos Observe* viram no-op.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LedgerOperationsTotal *prometheus.CounterVec
	AuthOperationsTotal   *prometheus.CounterVec
	CacheLookupsTotal     *prometheus.CounterVec
}

// New cria um registry próprio e registra todos os coletores nele.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_http_requests_total",
				Help: "Total de requisições HTTP.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sweetshop_http_request_duration_seconds",
				Help:    "Duração das requisições HTTP em segundos.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LedgerOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_ledger_operations_total",
				Help: "Operações do catálogo por resultado (success ou categoria do erro).",
			},
			[]string{"operation", "outcome"},
		),
		AuthOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_auth_operations_total",
				Help: "Registros, logins e verificações de token por resultado.",
			},
			[]string{"operation", "outcome"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_cache_lookups_total",
				Help: "Consultas ao cache do catálogo (hit ou miss).",
			},
			[]string{"key_type", "result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LedgerOperationsTotal,
		m.AuthOperationsTotal,
		m.CacheLookupsTotal,
	)

	return m
}

// Registry expõe o registry (usado em testes com testutil).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serve o endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome traduz um erro no rótulo de resultado: "success" ou a categoria em minúsculas.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return strings.ToLower(apperror.CategoryOf(err))
}

// ObserveLedger conta uma operação do Stock Ledger.
func (m *Metrics) ObserveLedger(operation string, err error) {
	if m == nil {
		return
	}
	m.LedgerOperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveAuth conta uma operação do Auth Service.
func (m *Metrics) ObserveAuth(operation string, err error) {
	if m == nil {
		return
	}
	m.AuthOperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveCache conta um hit ou miss do cache.
func (m *Metrics) ObserveCache(keyType string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(keyType, result).Inc()
}
