package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pribylovaa/go-event-manager/pkg/session"
)

var (
	// ErrExchangeRejected — эндпойнт обновления ответил не-2xx статусом.
	// Причина ("бэкенд недоступен" или "refresh-токен отозван") вызывающему
	// не различается: любой отказ завершает сессию.
	ErrExchangeRejected = errors.New("refresh exchange rejected")

	// ErrIncompleteCredentials — 2xx-ответ без одного из трёх обязательных
	// полей. Частичный набор учётных данных никогда не применяется.
	ErrIncompleteCredentials = errors.New("incomplete credentials in refresh response")
)

// refreshRequest — тело запроса обмена. Имя поля согласовано со всеми
// участниками: и edge-гейт, и клиентский рантайм шлют {"refresh": ...}.
type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse — успешный ответ обмена.
type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userID"`
}

// ExchangeRefresh меняет refresh-токен на новую пару токенов.
//
// Единственная реализация обмена для обоих периметров аутентификации:
// edge-гейт и координатор тихого обновления различаются только способом
// сохранения результата (cookie ответа против cookie-хранилища клиента).
func ExchangeRefresh(ctx context.Context, hc *http.Client, endpoint, refreshToken string) (session.Credentials, error) {
	const op = "authclient.ExchangeRefresh"

	body, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return session.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return session.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return session.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return session.Credentials{}, fmt.Errorf("%s: %w: status %d", op, ErrExchangeRejected, resp.StatusCode)
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return session.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	creds := session.Credentials{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		UserID:       out.UserID,
	}

	if !creds.Complete() {
		return session.Credentials{}, fmt.Errorf("%s: %w", op, ErrIncompleteCredentials)
	}

	return creds, nil
}
