// errors стандартизирует ответы об ошибках HTTP-слоя шлюза.
// На вход — локальная ошибка хендлера или прокси, на выход:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей апстрима.
//
// Ресурсные ответы бэкенда шлюз не переупаковывает: их статус и тело
// пробрасываются как есть (см. хендлеры). Конверт ниже — только для
// ошибок, рождённых на самом шлюзе.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrInvalidArgument — битый вход: не-JSON тело, пустой id и т.п.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated — отсутствует или пуст access-токен в cookie.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound — ресурс не найден на самом шлюзе (неизвестный маршрут).
	ErrNotFound = errors.New("not found")

	// ErrUpstream — бэкенд недоступен или ответил неразбираемым образом.
	ErrUpstream = errors.New("upstream unavailable")
)

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку шлюза в HTTP-статус и унифицированный ответ.
//
// err == nil — программная ошибка вызова: возвращаем 500/internal, чтобы не
// послать "200 OK" с телом ошибки и не замаскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := base(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — маппинг локальных ошибок в HTTP-статус/код/сообщение.
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway, "upstream_unavailable", "upstream unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
