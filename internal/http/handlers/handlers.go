// handlers — HTTP-обработчики веб-шлюза.
//
// Auth-эндпоинты декодируют тела, потому что вдобавок к проксированию
// управляют cookies сессии. Ресурсные эндпоинты (события, категории,
// организации, файлы) — байтовый прокси: тело и статус внутреннего API
// отдаются клиенту как есть.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	gwerrors "github.com/pribylovaa/go-event-manager/internal/errors"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
)

// Handlers агрегирует зависимости (клиент внутреннего API).
type Handlers struct {
	Upstream *upstream.Client
}

func New(u *upstream.Client) *Handlers {
	return &Handlers{Upstream: u}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через gwerrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

func errInvalidArgument(msg string) error {
	return fmt.Errorf("%s: %w", msg, gwerrors.ErrInvalidArgument)
}

// relay копирует ответ внутреннего API клиенту без интерпретации тела.
func relay(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}

	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// proxyHeader переносит заголовки запроса, осмысленные для upstream.
func proxyHeader(r *http.Request) http.Header {
	out := http.Header{}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		out.Set("Content-Type", ct)
	}

	return out
}
