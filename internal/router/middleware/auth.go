package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/senyabanana/clinic-offer-service/internal/auth"
	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/utils"

	"go.uber.org/zap"
)

type identityKey struct{}

// WithIdentity кладет личность вызывающего в контекст.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext достает личность, установленную Authenticate.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok
}

// Authenticate проверяет Bearer-токен и сохраняет личность в контексте запроса.
func Authenticate(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.SendError(w, models.ErrUnauthorized.WithMessage("authorization header required"), "")
				return
			}

			parts := strings.Split(header, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				utils.SendError(w, models.ErrUnauthorized.WithMessage("authorization header format must be Bearer {token}"), "")
				return
			}

			identity, err := auth.ValidateToken(parts[1], secret)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				utils.SendError(w, models.ErrUnauthorized.WithMessage("invalid or expired token"), "")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole пропускает только пользователей с указанной ролью. Authenticate должен выполняться раньше.
func RequireRole(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			utils.SendError(w, models.ErrUnauthorized, "")
			return
		}
		if identity.Role != role {
			utils.SendError(w, models.ErrForbidden.WithMessage("only "+string(role)+" users can perform this operation"), "")
			return
		}
		next(w, r)
	}
}
