package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"sweetshop/internal/api/auth"
	"sweetshop/internal/api/response"
	"sweetshop/internal/api/sweet"
	_ "sweetshop/internal/docs" // registra o documento OpenAPI
	"sweetshop/internal/domain"
	"sweetshop/internal/pkg/cache"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/metrics"
	"sweetshop/internal/pkg/middleware"
)

// HealthCheck verifica uma dependência (banco, Redis) para o /health.
type HealthCheck func(ctx context.Context) error

// Deps reúne os handlers e a infraestrutura já inicializados por injeção de dependências.
type Deps struct {
	AuthHandler  *auth.Handler
	SweetHandler *sweet.Handler
	Verifier     middleware.Verifier
	Logger       logger.Logger

	// Opcionais: nil desliga o recurso correspondente.
	Cache        cache.Client
	Metrics      *metrics.Metrics
	HealthChecks map[string]HealthCheck
}

// Options controla o comportamento das rotas.
type Options struct {
	// EnforceAdminRole exige isAdmin em create, update, delete e restock.
	EnforceAdminRole   bool
	CORSAllowedOrigins []string
	RateLimitMax       int
	RateLimitPeriod    time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(deps Deps, opts Options) http.Handler {
	r := mux.NewRouter()
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	// --- 1. Rotas operacionais ---
	r.HandleFunc("/ping", PingHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler(deps.HealthChecks)).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Cadeias de middleware por rota ---
	public := func(h http.HandlerFunc) http.Handler { return h }
	if deps.Cache != nil && opts.RateLimitMax > 0 {
		limiter := middleware.RateLimiter(deps.Cache, opts.RateLimitMax, opts.RateLimitPeriod, deps.Logger)
		public = func(h http.HandlerFunc) http.Handler { return limiter(h) }
	}

	gate := middleware.NewAuthMiddleware(deps.Verifier, deps.Logger)
	authenticated := func(h http.HandlerFunc) http.Handler { return public(gate(h).ServeHTTP) }

	admin := authenticated
	if opts.EnforceAdminRole {
		requireAdmin := middleware.RequireRole(domain.RoleAdmin)
		admin = func(h http.HandlerFunc) http.Handler { return authenticated(requireAdmin(h).ServeHTTP) }
	}

	// --- 3. Autenticação ---
	r.Handle("/auth/register", public(deps.AuthHandler.RegisterHandler)).Methods(http.MethodPost)
	r.Handle("/auth/login", public(deps.AuthHandler.LoginHandler)).Methods(http.MethodPost)

	// --- 4. Catálogo ---
	h := deps.SweetHandler
	r.Handle("/sweets", public(h.ListHandler)).Methods(http.MethodGet)
	r.Handle("/sweets/search", public(h.SearchHandler)).Methods(http.MethodGet)
	r.Handle("/sweets", admin(h.CreateHandler)).Methods(http.MethodPost)
	r.Handle("/sweets/{id}", admin(h.UpdateHandler)).Methods(http.MethodPut)
	r.Handle("/sweets/{id}", admin(h.DeleteHandler)).Methods(http.MethodDelete)
	r.Handle("/sweets/{id}/purchase", authenticated(h.PurchaseHandler)).Methods(http.MethodPost)
	r.Handle("/sweets/{id}/restock", admin(h.RestockHandler)).Methods(http.MethodPost)

	// Middlewares globais ficam fora do mux para cobrir 404, 405 e preflight.
	return middleware.Global(deps.Logger, opts.CORSAllowedOrigins)(r)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler responde 200 se todas as dependências responderem, 503 caso contrário.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		response.JSON(w, status, resp)
	}
}
