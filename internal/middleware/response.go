package middleware

import (
	"net/http"

	apperrors "github.com/quizadmin/quiz-admin-server/internal/errors"
	"github.com/quizadmin/quiz-admin-server/internal/httputil"
)

func writeError(w http.ResponseWriter, status int, code apperrors.ErrorCode, message string) {
	httputil.WriteErrorWithStatus(w, status, apperrors.New(code, message))
}
