// upstream — тонкий HTTP-клиент внутреннего REST API.
//
// Шлюз не интерпретирует ресурсные тела: Do возвращает *http.Response
// как есть, а обработчики решают, проксировать байты или декодировать
// (это нужно только auth-эндпоинтам).
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gwerrors "github.com/pribylovaa/go-event-manager/internal/errors"
)

// Пути внутреннего API относительно base URL.
const (
	LoginPath         = "/auth/login"
	RefreshPath       = "/auth/refresh"
	EventsPath        = "/events"
	CategoriesPath    = "/category"
	OrganizationsPath = "/organizations"
	FilesPath         = "/files"
)

const defaultTimeout = 15 * time.Second

type ctxKey int

const (
	// CtxRequestID — сквозной идентификатор запроса.
	CtxRequestID ctxKey = iota
	// CtxAuthToken — access-токен пользователя из cookie.
	CtxAuthToken
)

// WithRequestID кладёт request id в контекст.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxRequestID, id)
}

// RequestIDFrom достаёт request id; пустая строка — не задан.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(CtxRequestID).(string)
	return id
}

// WithAuthToken кладёт access-токен в контекст.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CtxAuthToken, token)
}

// AuthTokenFrom достаёт access-токен; пустая строка — аноним.
func AuthTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(CtxAuthToken).(string)
	return token
}

// Client — адресат внутреннего API.
type Client struct {
	base string
	hc   *http.Client
}

// New строит клиент поверх базового URL вида http(s)://host[/prefix].
func New(baseURL string, timeout time.Duration) (*Client, error) {
	const op = "upstream.New"

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: invalid base url %q: %w", op, baseURL, gwerrors.ErrInvalidArgument)
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
	}, nil
}

// Do выполняет запрос к внутреннему API.
//
// Бережно переносит сквозные заголовки: Authorization из контекста
// (если bearer=true), X-Request-Id и переданные явно header.
// Закрывать тело ответа обязан вызывающий.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body io.Reader, header http.Header, bearer bool) (*http.Response, error) {
	const op = "upstream.Do"

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}

	if bearer {
		if token := AuthTokenFrom(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}

		return nil, fmt.Errorf("%s: %v: %w", op, err, gwerrors.ErrUpstream)
	}

	return resp, nil
}
