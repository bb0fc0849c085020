package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/authcore/internal/pkg/log"
	"github.com/pribylovaa/authcore/internal/transport/http/httperr"
)

// Recover перехватывает panic и отвечает 500/internal.
// Детали паники не уходят клиенту.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					log.From(r.Context()).
						LogAttrs(r.Context(), slog.LevelError, "panic",
							slog.String("path", r.URL.Path),
							slog.Any("reason", rec),
						)
					httperr.WriteError(w, r, errors.New("internal"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
