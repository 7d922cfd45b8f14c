package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/cache"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/metrics"
	"sweetshop/internal/pkg/middleware"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(token string) (domain.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(domain.Identity), args.Error(1)
}

// echoIdentity responde 200 com o UserID encontrado no contexto.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(identity.UserID))
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var body domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAuthMiddleware_AttachesIdentity(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Verify", "good-token").Return(domain.Identity{UserID: "u-1", Role: domain.RoleUser}, nil)
	handler := middleware.NewAuthMiddleware(verifier, logger.NewNopLogger())(echoIdentity)

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String())
	verifier.AssertExpectations(t)
}

func TestAuthMiddleware_RejectsMissingOrMalformedHeader(t *testing.T) {
	verifier := new(MockVerifier)
	handler := middleware.NewAuthMiddleware(verifier, logger.NewNopLogger())(echoIdentity)

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Equal(t, apperror.CategoryUnauthorized, decodeError(t, rec).Category)
	}
	verifier.AssertNotCalled(t, "Verify", mock.Anything)
}

func TestAuthMiddleware_RejectsInvalidToken(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Verify", "expired").Return(domain.Identity{}, apperror.NewUnauthorizedError("token inválido ou expirado."))
	handler := middleware.NewAuthMiddleware(verifier, logger.NewNopLogger())(echoIdentity)

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeError(t, rec).Code)
}

func TestRequireRole(t *testing.T) {
	handler := middleware.RequireRole(domain.RoleAdmin)(echoIdentity)

	cases := []struct {
		name     string
		identity *domain.Identity
		want     int
	}{
		{"sem identidade", nil, http.StatusUnauthorized},
		{"usuário comum", &domain.Identity{UserID: "u-1", Role: domain.RoleUser}, http.StatusForbidden},
		{"admin", &domain.Identity{UserID: "u-2", Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/sweets/1", nil)
			if tc.identity != nil {
				req = req.WithContext(middleware.WithIdentity(req.Context(), *tc.identity))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRateLimiter_BlocksAfterLimitAndResetsWithWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := middleware.RateLimiter(client, 2, time.Minute, logger.NewNopLogger())(ok)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/sweets", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	second := do()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := do()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do().Code)
}

func TestRateLimiter_KeyWithoutTTLIsNotBlockedForever(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	// Contador acima do limite e sem expiração.
	require.NoError(t, mr.Set("rate-limit:10.0.0.9", "50"))

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := middleware.RateLimiter(client, 2, time.Minute, logger.NewNopLogger())(ok)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/sweets", nil)
		req.RemoteAddr = "10.0.0.9:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusTooManyRequests, do().Code)
	assert.Equal(t, time.Minute, mr.TTL("rate-limit:10.0.0.9"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do().Code)
}

func TestRateLimiter_FailsOpenWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	mr.Close()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := middleware.RateLimiter(client, 1, time.Minute, logger.NewNopLogger())(ok)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sweets", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	handler := middleware.Recovery(logger.NewNopLogger())(panicky)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.NotContains(t, body.Message, "boom")
}

func TestGlobal_PanicIsStillAccessLogged(t *testing.T) {
	var out bytes.Buffer
	log := logger.NewWithOutput("info", &out)

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	handler := middleware.Global(log, []string{"*"})(panicky)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sweets", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, out.String(), "Panic no handler.")
	assert.Contains(t, out.String(), "Requisição HTTP.")
	assert.Contains(t, out.String(), `"status":500`)
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := middleware.CORS([]string{"http://localhost:3000"})(ok)

	preflight := httptest.NewRequest(http.MethodOptions, "/sweets", nil)
	preflight.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodGet, "/sweets", nil)
	other.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	router := mux.NewRouter()
	router.Use(middleware.Metrics(m))
	router.HandleFunc("/sweets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sweets/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sweets/def", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/sweets/{id}", "404")))
}
