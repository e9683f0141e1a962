package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-event-manager/internal/metrics"
	logctx "github.com/pribylovaa/go-event-manager/internal/pkg/log"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
	"github.com/pribylovaa/go-event-manager/pkg/session"
	"github.com/pribylovaa/go-event-manager/pkg/token"
)

// ExchangeFunc меняет refresh-токен на новую тройку учётных данных.
type ExchangeFunc func(ctx context.Context, refreshToken string) (session.Credentials, error)

// EdgeGateOptions — параметры краевой проверки сессии.
type EdgeGateOptions struct {
	// Exchange — обмен refresh-токена; обязателен.
	Exchange ExchangeFunc
	// LoginPath — куда уводим анонимных; обязателен.
	LoginPath string
}

// EdgeGate защищает страницы до отдачи разметки. Четыре исхода:
//
//  1. живой access-токен — пропускаем без сети;
//  2. access протух/отсутствует, refresh есть — обмениваем на новую
//     пару, пишем cookies в этот же ответ и пропускаем;
//  3. refresh-токена нет — редирект на страницу входа без сети;
//  4. обмен не удался — чистим cookies и редирект на страницу входа.
//
// Решение принимается только по exp access-токена, подпись не
// проверяется: шлюз не владеет ключом, им владеет внутренний API.
func EdgeGate(opts EdgeGateOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			src := session.RequestSource{R: r}

			access, _ := src.Cookie(session.AccessCookie)
			if access != "" && !token.IsExpired(access) {
				metrics.EdgeDecisions.WithLabelValues(metrics.OutcomeFresh).Inc()
				next.ServeHTTP(w, r.WithContext(upstream.WithAuthToken(r.Context(), access)))
				return
			}

			refresh, _ := src.Cookie(session.RefreshCookie)
			if refresh == "" {
				metrics.EdgeDecisions.WithLabelValues(metrics.OutcomeRedirectAnonymous).Inc()
				http.Redirect(w, r, opts.LoginPath, http.StatusTemporaryRedirect)
				return
			}

			creds, err := opts.Exchange(r.Context(), refresh)
			if err != nil {
				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelInfo, "edge_refresh_failed",
					slog.String("path", r.URL.Path),
					slog.String("err", err.Error()),
				)

				metrics.EdgeDecisions.WithLabelValues(metrics.OutcomeRedirectFailed).Inc()
				session.ClearSession(session.ResponseSink{W: w})
				http.Redirect(w, r, opts.LoginPath, http.StatusTemporaryRedirect)
				return
			}

			// Свежая пара уезжает в этом же ответе, страница отдаётся сразу.
			session.WriteSession(session.ResponseSink{W: w}, creds)

			metrics.EdgeDecisions.WithLabelValues(metrics.OutcomeRefreshed).Inc()
			next.ServeHTTP(w, r.WithContext(upstream.WithAuthToken(r.Context(), creds.AccessToken)))
		})
	}
}
