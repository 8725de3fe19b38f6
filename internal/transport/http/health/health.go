package health

import (
	"context"
	"net/http"
	"time"

	"github.com/bafnalights-dot/stock/platform/logger"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler reports SERVING while the storage answers pings.
func Handler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, "SERVING"

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				logger.Warn(r.Context(), "health check ping", logger.ErrorF(err))
				status, body = http.StatusServiceUnavailable, "NOT_SERVING"
			}
		}

		w.WriteHeader(status)
		if _, err := w.Write([]byte(body)); err != nil {
			logger.Error(r.Context(), "health check", logger.ErrorF(err))
		}
	}
}
