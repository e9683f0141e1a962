package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	gwerrors "github.com/pribylovaa/go-event-manager/internal/errors"
	"github.com/pribylovaa/go-event-manager/internal/models"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
	"github.com/pribylovaa/go-event-manager/pkg/session"
)

// Login проксирует вход на внутренний API и при успехе переливает
// выданную тройку токенов в cookies. Ответ об ошибке уходит клиенту
// с исходным статусом, cookies при этом не трогаем.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.Login"

	var in models.LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		gwerrors.WriteError(w, r, errInvalidArgument("malformed login body"))
		return
	}

	if in.Email == "" || in.Password == "" {
		gwerrors.WriteError(w, r, errInvalidArgument("email and password are required"))
		return
	}

	body, _ := json.Marshal(in)
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	resp, err := h.Upstream.Do(r.Context(), http.MethodPost, upstream.LoginPath, nil, bytes.NewReader(body), header, false)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		relay(w, resp)
		return
	}

	tokens, err := decodeTokens(resp)
	if err != nil {
		gwerrors.WriteError(w, r, fmt.Errorf("%s: %w", op, err))
		return
	}

	session.WriteSession(session.ResponseSink{W: w}, session.Credentials{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		UserID:       tokens.UserID,
	})

	writeJSON(w, http.StatusOK, tokens)
}

// Refresh меняет refresh-токен на новую пару. Токен берётся из тела
// {"refresh": ...}; пустое тело — из cookie refreshToken. Отказ
// внутреннего API означает мёртвую сессию: cookies стираются.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.Refresh"

	var in models.RefreshRequest
	if err := decodeStrict(r, &in); err != nil && err != io.EOF {
		gwerrors.WriteError(w, r, errInvalidArgument("malformed refresh body"))
		return
	}

	if in.Refresh == "" {
		in.Refresh, _ = session.RequestSource{R: r}.Cookie(session.RefreshCookie)
	}

	if in.Refresh == "" {
		gwerrors.WriteError(w, r, errInvalidArgument("refresh token is required"))
		return
	}

	body, _ := json.Marshal(in)
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	resp, err := h.Upstream.Do(r.Context(), http.MethodPost, upstream.RefreshPath, nil, bytes.NewReader(body), header, false)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		session.ClearSession(session.ResponseSink{W: w})
		relay(w, resp)
		return
	}

	tokens, err := decodeTokens(resp)
	if err != nil {
		gwerrors.WriteError(w, r, fmt.Errorf("%s: %w", op, err))
		return
	}

	session.WriteSession(session.ResponseSink{W: w}, session.Credentials{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		UserID:       tokens.UserID,
	})

	writeJSON(w, http.StatusOK, tokens)
}

// Logout стирает cookies сессии. Внутренний API не вызывается:
// он не ведёт серверных сессий, источником истины остаются cookies.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session.ClearSession(session.ResponseSink{W: w})
	writeJSON(w, http.StatusOK, models.LogoutResponse{Ok: true})
}

// decodeTokens разбирает 2xx-ответ login/refresh и требует полную тройку.
func decodeTokens(resp *http.Response) (models.TokenResponse, error) {
	defer resp.Body.Close()

	var tokens models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return models.TokenResponse{}, fmt.Errorf("decode token response: %w", gwerrors.ErrUpstream)
	}

	if !tokens.Complete() {
		return models.TokenResponse{}, fmt.Errorf("incomplete token response: %w", gwerrors.ErrUpstream)
	}

	return tokens, nil
}
