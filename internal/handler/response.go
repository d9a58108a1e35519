package handler

import (
	"net/http"

	"github.com/quizadmin/quiz-admin-server/internal/httputil"
)

func writeOK(w http.ResponseWriter, data any) {
	httputil.WriteOK(w, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
