package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/quizadmin/quiz-admin-server/internal/database"
	"github.com/quizadmin/quiz-admin-server/internal/model"
)

// QuizRepository stores themes and questions. Writes and every read that returns
// answers run inside a single transaction; errors from the driver are returned
// unmodified so callers can classify them with ClassifyConstraint.
type QuizRepository interface {
	CreateTheme(ctx context.Context, title string) (*model.Theme, error)
	FindThemeByTitle(ctx context.Context, title string) (*model.Theme, error)
	FindThemeByID(ctx context.Context, id int64) (*model.Theme, error)
	ListThemes(ctx context.Context) ([]model.Theme, error)

	CreateQuestion(ctx context.Context, params model.CreateQuestionParams) (*model.Question, error)
	FindQuestionByTitle(ctx context.Context, title string) (*model.Question, error)
	// ListQuestions returns questions ordered by id. A nil themeID lists all themes.
	ListQuestions(ctx context.Context, themeID *int64) ([]model.Question, error)
}

type quizRepo struct {
	db *sqlx.DB
}

func NewQuizRepository(db *sqlx.DB) QuizRepository {
	return &quizRepo{db: db}
}

func (r *quizRepo) CreateTheme(ctx context.Context, title string) (*model.Theme, error) {
	var theme model.Theme
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &theme, `
			INSERT INTO themes (title)
			VALUES ($1)
			RETURNING id, title
		`, title)
	})
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

func (r *quizRepo) FindThemeByTitle(ctx context.Context, title string) (*model.Theme, error) {
	var theme model.Theme
	err := r.db.GetContext(ctx, &theme, `
		SELECT id, title FROM themes WHERE title = $1
	`, title)
	return HandleNotFound(&theme, err)
}

func (r *quizRepo) FindThemeByID(ctx context.Context, id int64) (*model.Theme, error) {
	var theme model.Theme
	err := r.db.GetContext(ctx, &theme, `
		SELECT id, title FROM themes WHERE id = $1
	`, id)
	return HandleNotFound(&theme, err)
}

func (r *quizRepo) ListThemes(ctx context.Context) ([]model.Theme, error) {
	themes := []model.Theme{}
	err := r.db.SelectContext(ctx, &themes, `
		SELECT id, title FROM themes ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return themes, nil
}

func (r *quizRepo) CreateQuestion(ctx context.Context, params model.CreateQuestionParams) (*model.Question, error) {
	var question model.Question
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &question, `
			INSERT INTO questions (title, theme_id)
			VALUES ($1, $2)
			RETURNING id, title, theme_id
		`, params.Title, params.ThemeID); err != nil {
			return err
		}

		question.Answers = make([]model.Answer, 0, len(params.Answers))
		for _, in := range params.Answers {
			var answer model.Answer
			if err := tx.GetContext(ctx, &answer, `
				INSERT INTO answers (title, is_correct, question_id)
				VALUES ($1, $2, $3)
				RETURNING id, title, is_correct, question_id
			`, in.Title, in.IsCorrect, question.ID); err != nil {
				return err
			}
			question.Answers = append(question.Answers, answer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *quizRepo) FindQuestionByTitle(ctx context.Context, title string) (*model.Question, error) {
	var found *model.Question
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var question model.Question
		err := tx.GetContext(ctx, &question, `
			SELECT id, title, theme_id FROM questions WHERE title = $1
		`, title)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		questions := []model.Question{question}
		if err := loadAnswers(ctx, tx, questions); err != nil {
			return err
		}
		found = &questions[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *quizRepo) ListQuestions(ctx context.Context, themeID *int64) ([]model.Question, error) {
	questions := []model.Question{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		if themeID != nil {
			err = tx.SelectContext(ctx, &questions, `
				SELECT id, title, theme_id FROM questions
				WHERE theme_id = $1
				ORDER BY id
			`, *themeID)
		} else {
			err = tx.SelectContext(ctx, &questions, `
				SELECT id, title, theme_id FROM questions ORDER BY id
			`)
		}
		if err != nil {
			return err
		}
		return loadAnswers(ctx, tx, questions)
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// loadAnswers fills Answers for every question with one IN query on tx.
func loadAnswers(ctx context.Context, tx *sqlx.Tx, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]int64, len(questions))
	byID := make(map[int64]int, len(questions))
	for i := range questions {
		questions[i].Answers = []model.Answer{}
		ids[i] = questions[i].ID
		byID[questions[i].ID] = i
	}

	query, args, err := sqlx.In(`
		SELECT id, title, is_correct, question_id FROM answers
		WHERE question_id IN (?)
		ORDER BY id
	`, ids)
	if err != nil {
		return err
	}

	var answers []model.Answer
	if err := tx.SelectContext(ctx, &answers, tx.Rebind(query), args...); err != nil {
		return err
	}

	for _, a := range answers {
		i := byID[a.QuestionID]
		questions[i].Answers = append(questions[i].Answers, a)
	}
	return nil
}
