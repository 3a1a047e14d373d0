package middleware

import (
	"net/http"
	"strings"

	"github.com/uneedslabs/uneeds-backend/api/responses"
	"github.com/uneedslabs/uneeds-backend/internal/users"
	pkgAuth "github.com/uneedslabs/uneeds-backend/pkg/auth"
	"github.com/uneedslabs/uneeds-backend/pkg/config"
	pkgerrors "github.com/uneedslabs/uneeds-backend/pkg/errors"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
)

// Auth validates the identity provider's bearer token and seeds the request
// context with the actor. The wallet projection row is provisioned on first
// sight so the ledger always has a balance to move.
func Auth(cfg config.JWTConfig, usersRepo users.Repository, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if usersRepo != nil {
				if _, err := usersRepo.Ensure(r.Context(), claims.UserID, claims.Role, claims.Name); err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision user"))
					return
				}
			}

			ctx := WithActor(r.Context(), claims.UserID, claims.Role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
