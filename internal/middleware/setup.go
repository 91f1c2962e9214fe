package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

// SetupChecker сообщает, что первичная настройка ещё не выполнена.
type SetupChecker interface {
	SetupRequired(ctx context.Context) (bool, error)
}

// WithSetupGate пока нет ни одного пользователя отвечает 409 setup_required
// на всё, кроме путей из allow.
func WithSetupGate(c SetupChecker, allow ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allow))
	for _, p := range allow {
		allowed[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			required, err := c.SetupRequired(r.Context())
			if err != nil {
				if log != nil {
					log.Errorw("setup gate: check failed", "error", err)
				}
				writeError(w, http.StatusInternalServerError, "internal error", "REMOTE_OPERATION_FAILED")
				return
			}
			if required {
				writeError(w, http.StatusConflict, "initial setup required", "SETUP_REQUIRED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
