package database

import (
	"context"
	"fmt"

	"github.com/quizadmin/quiz-admin-server/internal/config"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS themes (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL UNIQUE,
		theme_id BIGINT NOT NULL REFERENCES themes(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL DEFAULT FALSE,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_theme_id ON questions(theme_id)`,
	`CREATE INDEX IF NOT EXISTS idx_answers_question_id ON answers(question_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS themes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL UNIQUE,
		theme_id INTEGER NOT NULL REFERENCES themes(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL DEFAULT 0,
		question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_theme_id ON questions(theme_id)`,
	`CREATE INDEX IF NOT EXISTS idx_answers_question_id ON answers(question_id)`,
}

// Migrate creates the schema if it does not exist. It is safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	statements := postgresSchema
	if db.DriverName() == config.DriverSQLite {
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
