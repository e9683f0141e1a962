// authclient — клиентский рантайм event-приложения: типизированные вызовы
// API шлюза, прозрачное обновление пары токенов вокруг истекающего
// access-токена и координация конкурентных обменов.
//
// Состав:
//   - Client — HTTP-клиент с интерсептором (bearer + один повтор после 401);
//   - HandleRefresh — координатор тихого обновления с дедупликацией;
//   - ExchangeRefresh — общая с edge-гейтом функция обмена refresh-токена.
package authclient

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pribylovaa/go-event-manager/pkg/session"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "go-event-manager-client"

	refreshPath = "/api/auth/refresh"
	loginPath   = "/api/auth/login"
)

// Config — параметры клиента.
type Config struct {
	// BaseURL — адрес шлюза, например http://localhost:8080.
	BaseURL string

	// Jar — cookie-хранилище сессии; nil — новое хранилище в памяти.
	// Сессия регидрируется из него один раз при создании клиента.
	Jar *session.MemoryJar

	// Transport — базовый транспорт; nil — http.DefaultTransport.
	Transport http.RoundTripper

	// Timeout — таймаут одиночного HTTP-вызова; <=0 — значение по умолчанию.
	Timeout time.Duration

	// UserAgent — заголовок User-Agent исходящих запросов.
	UserAgent string
}

// Client — клиент backend API через шлюз.
// Безопасен для конкурентного использования.
type Client struct {
	base  *url.URL
	store *session.Store

	// hc идёт через интерсептор (bearer + повтор после 401);
	// rawHC — мимо него: для login и самого обмена refresh-токена.
	hc    *http.Client
	rawHC *http.Client

	refreshURL string
	userAgent  string

	// Координация тихого обновления: все конкурентные вызовы HandleRefresh
	// ждут один общий дескриптор in-flight попытки.
	mu       sync.Mutex
	inflight *refreshAttempt
}

// New создаёт клиент и один раз регидрирует сессию из cookie-хранилища.
func New(cfg Config) (*Client, error) {
	const op = "authclient.New"

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: base url %q has no scheme or host", op, cfg.BaseURL)
	}

	jar := cfg.Jar
	if jar == nil {
		jar = session.NewMemoryJar()
	}

	store := session.NewStore(jar)
	// Единственная регидратация — до первого аутентифицированного запроса.
	store.SyncFrom(jar)

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		base:       base,
		store:      store,
		refreshURL: base.JoinPath(refreshPath).String(),
		userAgent:  userAgent,
	}

	c.rawHC = &http.Client{Transport: transport, Timeout: timeout}
	c.hc = &http.Client{
		Transport: &authTransport{base: transport, client: c},
		Timeout:   timeout,
	}

	return c, nil
}

// Store возвращает сессию клиента: UI-слой подписывается на неё через
// Subscribe, а не опрашивает состояние.
func (c *Client) Store() *session.Store {
	return c.store
}

// Logout завершает сессию локально: хранилище и cookie очищаются.
// Идущий обмен refresh-токена не прерывается, но его результат будет
// отброшен по счётчику поколений сессии.
func (c *Client) Logout() {
	c.store.Logout()
}
