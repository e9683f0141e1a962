package middleware

import (
	"net/http"
	"strings"

	gwerrors "github.com/pribylovaa/go-event-manager/internal/errors"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
	"github.com/pribylovaa/go-event-manager/pkg/session"
)

// SessionToken извлекает access-токен запроса и кладёт "сырой" токен в
// контекст — его забирает upstream.Client при проксировании. Источники
// по убыванию приоритета: заголовок Authorization (встраиваемые клиенты),
// cookie accessToken (браузер). Отсутствие токена не ошибка — запрос идёт
// дальше анонимным, отказ решает RequireSession или сам бэкенд.
func SessionToken() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				r = r.WithContext(upstream.WithAuthToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession отклоняет анонимные запросы единым 401-конвертом,
// не тратя обращение к бэкенду.
func RequireSession() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if upstream.AuthTokenFrom(r.Context()) == "" {
				gwerrors.WriteError(w, r, gwerrors.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
			if token := strings.TrimSpace(auth[len(prefix):]); token != "" {
				return token
			}
		}
	}

	if c, err := r.Cookie(session.AccessCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}

	return ""
}
