package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Event — событие каталога в представлении backend API.
type Event struct {
	ID             string   `json:"id"`
	State          string   `json:"state"`
	Title          string   `json:"title"`
	Cover          string   `json:"cover"`
	Pictures       []string `json:"pictures"`
	Description    string   `json:"description"`
	Start          int64    `json:"start,omitempty"`
	End            int64    `json:"end,omitempty"`
	Location       string   `json:"location"`
	Capacity       int      `json:"capacity"`
	Categories     []string `json:"categories"`
	OrganizationID string   `json:"organizationID"`
	Subscribed     bool     `json:"subscribed"`
}

// EventDraft — поля создания/правки события. Пустые поля не отправляются:
// PATCH несёт только изменённое.
type EventDraft struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Start       int64    `json:"start,omitempty"`
	End         int64    `json:"end,omitempty"`
	Location    string   `json:"location,omitempty"`
	Cover       string   `json:"cover,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// Category — тег-категория события.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Organization — организатор события.
type Organization struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// APIError — ошибка backend API, донесённая до вызывающего после не более
// чем одного тихого обновления токенов.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// loginRequest/loginResponse — контракт эндпойнта входа.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userID"`
}

// LoginWithPassword выполняет вход по паре email/пароль и сохраняет
// полученную тройку учётных данных в сессии.
func (c *Client) LoginWithPassword(ctx context.Context, email, password string) error {
	const op = "authclient.LoginWithPassword"

	var out loginResponse
	if err := c.call(ctx, c.rawHC, http.MethodPost, loginPath, nil,
		loginRequest{Email: email, Password: password}, &out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if out.AccessToken == "" || out.RefreshToken == "" || out.UserID == "" {
		return fmt.Errorf("%s: %w", op, ErrIncompleteCredentials)
	}

	if err := c.store.Login(out.AccessToken, out.RefreshToken, out.UserID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListEvents возвращает каталог событий; query пробрасывается как есть
// (пагинация, фильтры по категориям и т.п.).
func (c *Client) ListEvents(ctx context.Context, query url.Values) ([]Event, error) {
	const op = "authclient.ListEvents"

	var out []Event
	if err := c.call(ctx, c.hc, http.MethodGet, "/api/events", query, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// EventByID возвращает событие по идентификатору.
func (c *Client) EventByID(ctx context.Context, id string) (*Event, error) {
	const op = "authclient.EventByID"

	var out Event
	if err := c.call(ctx, c.hc, http.MethodGet, "/api/events/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// CreateEvent создаёт событие и возвращает его серверное представление.
func (c *Client) CreateEvent(ctx context.Context, draft EventDraft) (*Event, error) {
	const op = "authclient.CreateEvent"

	var out Event
	if err := c.call(ctx, c.hc, http.MethodPost, "/api/events", nil, draft, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// UpdateEvent частично обновляет событие.
func (c *Client) UpdateEvent(ctx context.Context, id string, draft EventDraft) (*Event, error) {
	const op = "authclient.UpdateEvent"

	var out Event
	if err := c.call(ctx, c.hc, http.MethodPatch, "/api/events/"+url.PathEscape(id), nil, draft, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// DeleteEvent удаляет событие.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	const op = "authclient.DeleteEvent"

	if err := c.call(ctx, c.hc, http.MethodDelete, "/api/events/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListCategories возвращает справочник категорий.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	const op = "authclient.ListCategories"

	var out []Category
	if err := c.call(ctx, c.hc, http.MethodGet, "/api/categories", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// CategoryByID возвращает категорию по идентификатору.
func (c *Client) CategoryByID(ctx context.Context, id string) (*Category, error) {
	const op = "authclient.CategoryByID"

	var out Category
	if err := c.call(ctx, c.hc, http.MethodGet, "/api/categories/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// OrganizationByID возвращает организатора по идентификатору.
func (c *Client) OrganizationByID(ctx context.Context, id string) (*Organization, error) {
	const op = "authclient.OrganizationByID"

	var out Organization
	if err := c.call(ctx, c.hc, http.MethodGet, "/api/organizations/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// call — общий JSON-вызов API шлюза: собирает запрос, разбирает ответ,
// переводит не-2xx статусы в *APIError c кодом из унифицированного
// конверта ошибок {"error": {...}}.
func (c *Client) call(ctx context.Context, hc *http.Client, method, path string, query url.Values, in, out any) error {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}

		body = bytes.NewReader(raw)
	}

	// bytes.Reader даёт http.NewRequest заполнить GetBody: тело
	// воспроизводимо, интерсептор сможет повторить запрос после 401.
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeAPIError разбирает конверт {"error":{code,message}}; если тело не в
// этом формате, возвращает APIError только со статусом.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}

	return apiErr
}
