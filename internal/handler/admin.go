package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizadmin/quiz-admin-server/internal/audit"
	apperrors "github.com/quizadmin/quiz-admin-server/internal/errors"
	"github.com/quizadmin/quiz-admin-server/internal/middleware"
	"github.com/quizadmin/quiz-admin-server/internal/service"
)

type AdminHandler struct {
	adminService     *service.AdminService
	authMiddleware   func(http.Handler) http.Handler
	loginRateLimiter *middleware.LoginRateLimiter
	isProduction     bool
}

func NewAdminHandler(
	adminService *service.AdminService,
	authMiddleware func(http.Handler) http.Handler,
	loginRateLimiter *middleware.LoginRateLimiter,
	isProduction bool,
) *AdminHandler {
	return &AdminHandler{
		adminService:     adminService,
		authMiddleware:   authMiddleware,
		loginRateLimiter: loginRateLimiter,
		isProduction:     isProduction,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimiter.Handler).Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Get("/current", h.Current)
	})

	return r
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"max=1024"`
}

type adminResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin, token, err := h.adminService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeForbidden {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure, Email: req.Email})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess, AdminID: admin.ID, Email: admin.Email})

	middleware.SetSessionCookie(w, token, h.isProduction)
	writeOK(w, adminResponse{ID: admin.ID, Email: admin.Email})
}

// Logout expires the session cookie. The token itself stays valid until its exp.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})

	middleware.ClearSessionCookie(w, h.isProduction)
	writeOK(w, nil)
}

func (h *AdminHandler) Current(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())
	if admin == nil {
		writeError(w, apperrors.Unauthorized("No cookie provided"))
		return
	}

	writeOK(w, adminResponse{ID: admin.ID, Email: admin.Email})
}
