package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thepom/thepom/internal/model"
	"github.com/thepom/thepom/internal/service"
)

// SessionCookieName is the HttpOnly cookie set at login. It carries the
// same token as the Authorization header and is used when the header is
// absent.
const SessionCookieName = "thepom_token"

type contextKeyAuth string

const (
	adminKey   contextKeyAuth = "admin"
	adminIDKey contextKeyAuth = "admin_id"
)

// Authenticator resolves a token to an admin. *service.AuthService
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.AuthResult, error)
}

// TokenFromRequest returns the bearer token of r, falling back to the
// session cookie. It returns "" when neither is present.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && token != "" {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// VerifyToken authenticates every request it wraps. On success the admin
// and admin id are attached to the request context; otherwise the request
// is rejected with the error's status, 401 for token problems.
func VerifyToken(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := auth.Authenticate(r.Context(), TokenFromRequest(r))
			if err != nil {
				status := service.StatusOf(err)
				msg := err.Error()
				if status == http.StatusInternalServerError {
					logger.Error("token verification failed", "error", err, "request_id", GetRequestID(r.Context()))
					msg = "Internal server error"
				}
				writeAuthError(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), res.Admin, res.AdminID)))
		})
	}
}

// RequireAdmin rejects requests that carry no authenticated admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAdmin(r.Context()) == nil {
			writeAuthError(w, http.StatusUnauthorized, "Admin authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSystemAdmin rejects requests unless the admin is of the SYSTEM tier.
func RequireSystemAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := GetAdmin(r.Context())
		if admin == nil || !admin.IsSystem() {
			writeAuthError(w, http.StatusForbidden, "System admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithAdmin returns a copy of ctx carrying the authenticated admin.
func WithAdmin(ctx context.Context, admin *model.Admin, adminID int64) context.Context {
	ctx = context.WithValue(ctx, adminKey, admin)
	return context.WithValue(ctx, adminIDKey, adminID)
}

// GetAdmin returns the authenticated admin, or nil.
func GetAdmin(ctx context.Context) *model.Admin {
	if a, ok := ctx.Value(adminKey).(*model.Admin); ok {
		return a
	}
	return nil
}

// GetAdminID returns the admin id taken from the verified token, or 0.
func GetAdminID(ctx context.Context) int64 {
	if id, ok := ctx.Value(adminIDKey).(int64); ok {
		return id
	}
	return 0
}

// writeAuthError writes the error envelope. It is duplicated here to avoid
// an import cycle with the handler package.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: message})
}
