package model

type Theme struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}

type Question struct {
	ID      int64    `db:"id" json:"id"`
	Title   string   `db:"title" json:"title"`
	ThemeID int64    `db:"theme_id" json:"theme_id"`
	Answers []Answer `db:"-" json:"answers"`
}

type Answer struct {
	ID         int64  `db:"id" json:"-"`
	Title      string `db:"title" json:"title"`
	IsCorrect  bool   `db:"is_correct" json:"is_correct"`
	QuestionID int64  `db:"question_id" json:"-"`
}

// AnswerInput is an answer that has not been stored yet.
type AnswerInput struct {
	Title     string `json:"title" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type CreateQuestionParams struct {
	Title   string
	ThemeID int64
	Answers []AnswerInput
}
