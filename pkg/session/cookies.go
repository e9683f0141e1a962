package session

import (
	"net/http"
	"sync"
	"time"
)

// Имена cookie сессии. Единый словарь для edge-слоя шлюза
// и клиентского рантайма: оба читают и пишут одни и те же ключи.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
	UserIDCookie  = "userID"
)

// RefreshTTL — время жизни refresh-cookie. Access-cookie живёт в рамках
// сессии браузера и атрибута срока не получает.
const RefreshTTL = 24 * time.Hour

// Credentials — полный набор учётных данных сессии.
// Частичный набор никогда не сохраняется (см. инвариант Store).
type Credentials struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

// Complete сообщает, что присутствуют все три обязательных поля.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.UserID != ""
}

// CookieSink — стратегия записи cookie. Edge-слой пишет Set-Cookie в
// HTTP-ответ (ResponseSink), клиентский рантайм — в своё хранилище
// (MemoryJar). Логика сессии от способа записи не зависит.
type CookieSink interface {
	SetCookie(c *http.Cookie)
}

// CookieSource — стратегия чтения cookie.
type CookieSource interface {
	Cookie(name string) (string, bool)
}

// newCookie собирает cookie сессии с принятыми атрибутами:
// SameSite=Lax без Secure — осознанный выбор совместимости для
// одностайтового деплоя; менять только согласованно во всех точках записи.
func newCookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}

	if ttl > 0 {
		c.Expires = time.Now().Add(ttl)
		c.MaxAge = int(ttl / time.Second)
	}

	return c
}

// deletedCookie — cookie с истекшим сроком: инструкция клиенту удалить ключ.
func deletedCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		SameSite: http.SameSiteLaxMode,
	}
}

// WriteSession записывает все три cookie сессии в sink.
func WriteSession(sink CookieSink, creds Credentials) {
	sink.SetCookie(newCookie(AccessCookie, creds.AccessToken, 0))
	sink.SetCookie(newCookie(RefreshCookie, creds.RefreshToken, RefreshTTL))
	sink.SetCookie(newCookie(UserIDCookie, creds.UserID, 0))
}

// ClearSession удаляет все три cookie сессии.
func ClearSession(sink CookieSink) {
	for _, name := range []string{AccessCookie, RefreshCookie, UserIDCookie} {
		sink.SetCookie(deletedCookie(name))
	}
}

// ResponseSink пишет cookie в заголовки HTTP-ответа.
type ResponseSink struct {
	W http.ResponseWriter
}

func (s ResponseSink) SetCookie(c *http.Cookie) { http.SetCookie(s.W, c) }

// RequestSource читает cookie входящего HTTP-запроса.
type RequestSource struct {
	R *http.Request
}

func (s RequestSource) Cookie(name string) (string, bool) {
	c, err := s.R.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}

	return c.Value, true
}

// MemoryJar — потокобезопасное cookie-хранилище процесса.
// Играет роль браузерных cookie для клиентского рантайма и тестов;
// реализует одновременно CookieSink и CookieSource.
type MemoryJar struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryJar создаёт пустое хранилище.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{values: make(map[string]string)}
}

func (j *MemoryJar) SetCookie(c *http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if c.MaxAge < 0 {
		delete(j.values, c.Name)
		return
	}

	j.values[c.Name] = c.Value
}

func (j *MemoryJar) Cookie(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	v, ok := j.values[name]
	if !ok || v == "" {
		return "", false
	}

	return v, true
}
