package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
)

// ContextKey é um tipo próprio para que as chaves de contexto não colidam com outras.
type ContextKey int

const (
	identityKey ContextKey = iota
)

// Verifier é o que o Access Gate precisa do Auth Service.
type Verifier interface {
	Verify(token string) (domain.Identity, error)
}

// WithIdentity anexa a identidade ao contexto.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext é uma função utilitária para extrair a identidade no handler.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}

// bearerToken extrai o token de "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, tokenString, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tokenString = strings.TrimSpace(tokenString)
	return tokenString, tokenString != ""
}

// NewAuthMiddleware cria o Access Gate: valida o bearer token e anexa a identidade ao contexto.
// Qualquer falha encerra a requisição com 401 antes de chegar ao handler.
func NewAuthMiddleware(verifier Verifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			identity, err := verifier.Verify(tokenString)
			if err != nil {
				log.Debug("Token rejeitado.", map[string]interface{}{"path": r.URL.Path})
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole permite a requisição apenas se a identidade tiver um dos papéis.
// Deve rodar depois do NewAuthMiddleware.
func RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, apperror.NewForbiddenError("Você não tem a permissão necessária."))
		})
	}
}

// writeError serializa o erro no mesmo formato dos handlers.
func writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}
