package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/quizadmin/quiz-admin-server/internal/audit"
	apperrors "github.com/quizadmin/quiz-admin-server/internal/errors"
	"github.com/quizadmin/quiz-admin-server/internal/httputil"
	"github.com/quizadmin/quiz-admin-server/internal/model"
	"github.com/quizadmin/quiz-admin-server/internal/service"
)

type contextKey string

const AdminContextKey contextKey = "admin"

// GetAdmin returns the admin resolved by AdminAuthMiddleware, or nil outside a
// protected route.
func GetAdmin(ctx context.Context) *model.Admin {
	if admin, ok := ctx.Value(AdminContextKey).(*model.Admin); ok {
		return admin
	}
	return nil
}

type TokenValidator interface {
	Validate(token string) (int64, error)
}

type AdminLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Admin, error)
}

type AdminAuthMiddleware struct {
	tokens TokenValidator
	admins AdminLookup
}

func NewAdminAuthMiddleware(tokens TokenValidator, admins AdminLookup) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{tokens: tokens, admins: admins}
}

func (m *AdminAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			m.reject(w, r, apperrors.Unauthorized("No cookie provided"))
			return
		}

		adminID, err := m.tokens.Validate(cookie.Value)
		if err != nil {
			m.reject(w, r, tokenError(err))
			return
		}

		admin, err := m.admins.GetByID(r.Context(), adminID)
		if err != nil {
			log.Error().Err(err).Int64("adminId", adminID).Msg("auth middleware: admin lookup failed")
			httputil.WriteError(w, apperrors.Internal("Authentication failed"))
			return
		}
		if admin == nil {
			m.reject(w, r, apperrors.Forbidden("Admin not found"))
			return
		}

		ctx := context.WithValue(r.Context(), AdminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AdminAuthMiddleware) reject(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventAuthFailure,
		Details: map[string]interface{}{
			"reason": string(appErr.Code),
			"path":   r.URL.Path,
		},
	})
	httputil.WriteError(w, appErr)
}

func tokenError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return apperrors.TokenExpired()
	case errors.Is(err, service.ErrTokenMissingSubject):
		return apperrors.MissingSubject()
	default:
		return apperrors.InvalidToken("Invalid token")
	}
}
