package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/quizadmin/quiz-admin-server/internal/config"
	"github.com/quizadmin/quiz-admin-server/internal/handler"
	"github.com/quizadmin/quiz-admin-server/internal/middleware"
	"github.com/quizadmin/quiz-admin-server/internal/service"
)

type Deps struct {
	DB           handler.Pinger
	AdminService *service.AdminService
	QuizService  *service.QuizService
	TokenService *service.TokenService
	// LoginLimiter counts login attempts per client; nil selects an in-process limiter.
	LoginLimiter middleware.AttemptLimiter
	IsProduction bool
}

func NewRouter(d Deps) http.Handler {
	loginLimiter := d.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.NewMemoryAttemptLimiter(config.LoginMaxAttempts, config.LoginWindow)
	}

	authMiddleware := middleware.NewAdminAuthMiddleware(d.TokenService, d.AdminService)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(d.IsProduction)

	adminHandler := handler.NewAdminHandler(
		d.AdminService, authMiddleware.Handler, middleware.NewLoginRateLimiter(loginLimiter), d.IsProduction,
	)
	quizHandler := handler.NewQuizHandler(d.QuizService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", handler.Health(d.DB))

	r.Mount("/admin", adminHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Mount("/themes", quizHandler.ThemeRoutes())
		r.Mount("/questions", quizHandler.QuestionRoutes())
	})

	return r
}
