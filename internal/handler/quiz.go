package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quizadmin/quiz-admin-server/internal/audit"
	apperrors "github.com/quizadmin/quiz-admin-server/internal/errors"
	"github.com/quizadmin/quiz-admin-server/internal/middleware"
	"github.com/quizadmin/quiz-admin-server/internal/model"
	"github.com/quizadmin/quiz-admin-server/internal/service"
)

// QuizHandler serves themes and questions. Both route sets expect the caller to
// mount them behind AdminAuthMiddleware.
type QuizHandler struct {
	quizService *service.QuizService
}

func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) ThemeRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateTheme)
	r.Get("/", h.ListThemes)
	return r
}

func (h *QuizHandler) QuestionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateQuestion)
	r.Get("/", h.ListQuestions)
	r.Get("/by-title", h.GetQuestionByTitle)
	return r
}

type createThemeRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type createQuestionRequest struct {
	Title   string              `json:"title" validate:"required,max=255"`
	ThemeID int64               `json:"theme_id" validate:"required"`
	Answers []model.AnswerInput `json:"answers" validate:"dive"`
}

func (h *QuizHandler) CreateTheme(w http.ResponseWriter, r *http.Request) {
	var req createThemeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	theme, err := h.quizService.CreateTheme(r.Context(), req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventThemeCreate,
		AdminID: adminID(r),
		Details: map[string]interface{}{"theme_id": theme.ID, "title": theme.Title},
	})

	writeOK(w, theme)
}

func (h *QuizHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.quizService.ListThemes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"themes": themes})
}

func (h *QuizHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	question, err := h.quizService.CreateQuestion(r.Context(), model.CreateQuestionParams{
		Title:   req.Title,
		ThemeID: req.ThemeID,
		Answers: req.Answers,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventQuestionCreate,
		AdminID: adminID(r),
		Details: map[string]interface{}{"question_id": question.ID, "theme_id": question.ThemeID},
	})

	writeOK(w, question)
}

func (h *QuizHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	var themeID *int64
	if raw := r.URL.Query().Get("theme_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, apperrors.ValidationError("Invalid theme_id format"))
			return
		}
		themeID = &id
	}

	questions, err := h.quizService.ListQuestions(r.Context(), themeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"questions": questions})
}

func (h *QuizHandler) GetQuestionByTitle(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, apperrors.MissingRequired("title"))
		return
	}

	question, err := h.quizService.GetQuestionByTitle(r.Context(), title)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, question)
}

func adminID(r *http.Request) int64 {
	if admin := middleware.GetAdmin(r.Context()); admin != nil {
		return admin.ID
	}
	return 0
}
