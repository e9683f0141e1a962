package authclient

import (
	"io"
	"net/http"

	"github.com/google/uuid"
)

// authTransport — интерсептор исходящих запросов клиента: подставляет
// bearer-токен из сессии, а на 401 один раз выполняет тихое обновление и
// повторяет исходный запрос. Повторный 401 уходит вызывающему как есть —
// ограничение в один повтор исключает бесконечный цикл обновлений при
// недействительном refresh-токене.
type authTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Запрос самого обмена не перехватывается: никакой саморекурсии.
	if req.URL.Path == refreshPath {
		return t.base.RoundTrip(req)
	}

	out := t.prepare(req)

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Повтор возможен, только если тело запроса воспроизводимо.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	if !t.client.HandleRefresh(req.Context()) {
		// Обновление не удалось — исходный 401 отдаётся вызывающему.
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	retry := t.prepare(req)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}

	return t.base.RoundTrip(retry)
}

// prepare клонирует запрос и навешивает служебные заголовки:
// bearer из сессии, User-Agent и X-Request-Id для трассировки на шлюзе.
func (t *authTransport) prepare(req *http.Request) *http.Request {
	out := req.Clone(req.Context())

	if token := t.client.store.AccessToken(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", t.client.userAgent)
	}

	if out.Header.Get("X-Request-Id") == "" {
		out.Header.Set("X-Request-Id", uuid.NewString())
	}

	return out
}
