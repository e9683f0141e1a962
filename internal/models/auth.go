// models — обменные структуры авторизации между браузером,
// шлюзом и внутренним API. Ресурсные модели (события, категории)
// шлюз не парсит: их тела проксируются байт-в-байт.
package models

// LoginRequest — тело POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest — тело POST /api/auth/refresh. Единственное
// каноническое имя поля — "refresh"; оно же уходит на upstream.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// TokenResponse — успешный ответ login/refresh.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userID"`
}

// Complete сообщает, пришла ли полная тройка учётных данных.
func (t TokenResponse) Complete() bool {
	return t.AccessToken != "" && t.RefreshToken != "" && t.UserID != ""
}

// LogoutResponse — ответ POST /api/auth/logout.
type LogoutResponse struct {
	Ok bool `json:"ok"`
}
