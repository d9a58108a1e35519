package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/quizadmin/quiz-admin-server/internal/errors"
	"github.com/quizadmin/quiz-admin-server/internal/model"
	"github.com/quizadmin/quiz-admin-server/internal/repository"
)

const minAnswers = 2

type QuizService struct {
	quizRepo repository.QuizRepository
}

func NewQuizService(quizRepo repository.QuizRepository) *QuizService {
	return &QuizService{quizRepo: quizRepo}
}

func (s *QuizService) CreateTheme(ctx context.Context, title string) (*model.Theme, error) {
	existing, err := s.quizRepo.FindThemeByTitle(ctx, title)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, themeExists(title)
	}

	theme, err := s.quizRepo.CreateTheme(ctx, title)
	if err != nil {
		// Lost a race with a concurrent insert of the same title.
		if repository.ClassifyConstraint(err) == repository.ConstraintUnique {
			return nil, themeExists(title)
		}
		return nil, translateWriteError(err, "create theme")
	}

	return theme, nil
}

func (s *QuizService) ListThemes(ctx context.Context) ([]model.Theme, error) {
	themes, err := s.quizRepo.ListThemes(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return themes, nil
}

// CreateQuestion stores a question with its answers. A question needs at least
// two answers and exactly one of them correct.
func (s *QuizService) CreateQuestion(ctx context.Context, params model.CreateQuestionParams) (*model.Question, error) {
	theme, err := s.quizRepo.FindThemeByID(ctx, params.ThemeID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if theme == nil {
		return nil, themeNotFound(params.ThemeID)
	}

	if err := validateAnswers(params.Answers); err != nil {
		return nil, err
	}

	question, err := s.quizRepo.CreateQuestion(ctx, params)
	if err != nil {
		switch repository.ClassifyConstraint(err) {
		case repository.ConstraintForeignKey:
			// Theme deleted between the check above and the insert.
			return nil, themeNotFound(params.ThemeID)
		case repository.ConstraintUnique:
			return nil, apperrors.Conflict(fmt.Sprintf("Question '%s' already exists", params.Title)).WithCause(err)
		}
		return nil, translateWriteError(err, "create question")
	}

	return question, nil
}

// ListQuestions lists questions with their answers, optionally for one theme only.
func (s *QuizService) ListQuestions(ctx context.Context, themeID *int64) ([]model.Question, error) {
	if themeID != nil {
		theme, err := s.quizRepo.FindThemeByID(ctx, *themeID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if theme == nil {
			return nil, themeNotFound(*themeID)
		}
	}

	questions, err := s.quizRepo.ListQuestions(ctx, themeID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return questions, nil
}

func (s *QuizService) GetQuestionByTitle(ctx context.Context, title string) (*model.Question, error) {
	question, err := s.quizRepo.FindQuestionByTitle(ctx, title)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if question == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, fmt.Sprintf("Question '%s' not found", title))
	}
	return question, nil
}

func validateAnswers(answers []model.AnswerInput) error {
	if len(answers) < minAnswers {
		return apperrors.ValidationError("Question must have at least 2 answers")
	}

	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}

	switch {
	case correct == 0:
		return apperrors.ValidationError("Question must have one correct answer")
	case correct > 1:
		return apperrors.ValidationError("Question must have only one correct answer")
	}
	return nil
}

// translateWriteError maps integrity violations not handled by the caller to 400
// and everything else to 500.
func translateWriteError(err error, op string) error {
	switch kind := repository.ClassifyConstraint(err); kind {
	case repository.ConstraintNone:
		log.Error().Err(err).Str("op", op).Msg("quiz write failed")
		return apperrors.Database(err)
	case repository.ConstraintNotNull:
		return apperrors.ValidationError("Invalid data provided").WithCause(err)
	default:
		log.Warn().Err(err).Str("op", op).Str("constraint", kind.String()).Msg("unclassified integrity violation")
		return apperrors.ValidationError("Database error").WithCause(err)
	}
}

func themeExists(title string) *apperrors.AppError {
	return apperrors.Conflict(fmt.Sprintf("Theme '%s' already exists", title))
}

func themeNotFound(id int64) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeNotFound, fmt.Sprintf("Theme with id=%d not found", id))
}
