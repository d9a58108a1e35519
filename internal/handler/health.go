package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizadmin/quiz-admin-server/internal/config"
	"github.com/quizadmin/quiz-admin-server/internal/httputil"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports 200 while the database answers a ping and 503 otherwise.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health check: database ping failed")
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    httputil.StatusError,
				"message":   "database unavailable",
				"timestamp": time.Now().UnixMilli(),
			})
			return
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    httputil.StatusOK,
			"timestamp": time.Now().UnixMilli(),
		})
	}
}
