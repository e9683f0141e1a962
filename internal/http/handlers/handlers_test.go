package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-event-manager/internal/models"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
	"github.com/pribylovaa/go-event-manager/pkg/session"
)

// upstreamCall — одна запись фиксируемого фейкового API.
type upstreamCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
	CT     string
}

// fakeUpstream — внутренний API для тестов: записывает запросы и
// отвечает по подготовленному сценарию per-path.
type fakeUpstream struct {
	t       *testing.T
	calls   []upstreamCall
	status  map[string]int
	payload map[string]string
	ct      map[string]string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	return &fakeUpstream{
		t:       t,
		status:  map[string]int{},
		payload: map[string]string{},
		ct:      map[string]string{},
	}
}

func (f *fakeUpstream) respond(path string, status int, payload string) {
	f.status[path] = status
	f.payload[path] = payload
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.calls = append(f.calls, upstreamCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
		CT:     r.Header.Get("Content-Type"),
	})

	status, ok := f.status[r.URL.Path]
	if !ok {
		status = http.StatusOK
	}

	if ct, ok := f.ct[r.URL.Path]; ok {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.payload[r.URL.Path])
}

// testRouter собирает минимальный chi-роутер вокруг обработчиков,
// чтобы работали URL-параметры.
func testRouter(t *testing.T, f *fakeUpstream) chi.Router {
	t.Helper()

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	up, err := upstream.New(srv.URL, 2*time.Second)
	require.NoError(t, err)

	h := New(up)

	r := chi.NewRouter()
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/refresh", h.Refresh)
	r.Post("/api/auth/logout", h.Logout)
	r.Get("/api/events", h.ListEvents)
	r.Get("/api/events/{event_id}", h.EventByID)
	r.Post("/api/events", h.CreateEvent)
	r.Patch("/api/events/{event_id}", h.UpdateEvent)
	r.Delete("/api/events/{event_id}", h.DeleteEvent)
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/categories/{category_id}", h.CategoryByID)
	r.Get("/api/organizations/{organization_id}", h.OrganizationByID)
	r.Post("/api/files", h.UploadFiles)
	r.Get("/api/files/{file_id}", h.FileByID)

	return r
}

func cookieByName(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

const tokenTriple = `{"accessToken":"a-1","refreshToken":"r-1","userID":"u-1"}`

func TestLogin_Success_SetsCookiesAndRelaysTokens(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.LoginPath, http.StatusOK, tokenTriple)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"alice@example.com","password":"secret"}`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, f.calls, 1)
	require.Equal(t, http.MethodPost, f.calls[0].Method)
	require.Equal(t, upstream.LoginPath, f.calls[0].Path)
	// Имя поля уходит на upstream без переименования.
	require.JSONEq(t, `{"email":"alice@example.com","password":"secret"}`, string(f.calls[0].Body))
	require.Empty(t, f.calls[0].Auth)

	var out models.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "a-1", out.AccessToken)

	require.Equal(t, "a-1", cookieByName(rr, session.AccessCookie).Value)
	require.Equal(t, "r-1", cookieByName(rr, session.RefreshCookie).Value)
	require.Equal(t, "u-1", cookieByName(rr, session.UserIDCookie).Value)
}

func TestLogin_UpstreamRejection_PassthroughWithoutCookies(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.LoginPath, http.StatusUnauthorized, `{"error":{"code":"unauthenticated","message":"bad creds"}}`)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"alice@example.com","password":"wrong"}`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "bad creds")
	require.Empty(t, rr.Result().Cookies())
}

func TestLogin_StrictDecoder_RejectsUnknownFields(t *testing.T) {
	f := newFakeUpstream(t)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"login":"alice","password":"secret"}`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, f.calls)
}

func TestLogin_MalformedBody_BadRequestWithoutUpstreamCall(t *testing.T) {
	f := newFakeUpstream(t)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, f.calls)
}

func TestLogin_IncompleteUpstreamTriple_BadGateway(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.LoginPath, http.StatusOK, `{"accessToken":"a-1"}`)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"alice@example.com","password":"secret"}`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.Nil(t, cookieByName(rr, session.AccessCookie))
}

func TestRefresh_BodyToken_CanonicalFieldForwarded(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.RefreshPath, http.StatusOK, tokenTriple)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh",
		bytes.NewBufferString(`{"refresh":"r-old"}`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, f.calls, 1)
	require.JSONEq(t, `{"refresh":"r-old"}`, string(f.calls[0].Body))
	require.Equal(t, "r-1", cookieByName(rr, session.RefreshCookie).Value)
}

func TestRefresh_FallsBackToCookie(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.RefreshPath, http.StatusOK, tokenTriple)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: session.RefreshCookie, Value: "r-cookie"})
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"refresh":"r-cookie"}`, string(f.calls[0].Body))
}

func TestRefresh_NoToken_BadRequest(t *testing.T) {
	f := newFakeUpstream(t)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, f.calls)
}

func TestRefresh_UpstreamRejection_ClearsCookies(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.RefreshPath, http.StatusUnauthorized, `{"error":{"code":"unauthenticated","message":"stale"}}`)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh",
		bytes.NewBufferString(`{"refresh":"r-stale"}`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)

	for _, name := range []string{session.AccessCookie, session.RefreshCookie, session.UserIDCookie} {
		c := cookieByName(rr, name)
		require.NotNil(t, c, name)
		require.Less(t, c.MaxAge, 0, name)
	}
}

func TestLogout_ClearsCookies(t *testing.T) {
	f := newFakeUpstream(t)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"ok":true}`, rr.Body.String())
	require.Empty(t, f.calls)

	for _, name := range []string{session.AccessCookie, session.RefreshCookie, session.UserIDCookie} {
		c := cookieByName(rr, name)
		require.NotNil(t, c, name)
		require.Less(t, c.MaxAge, 0, name)
	}
}

func TestListEvents_RelaysQueryBearerAndBody(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.EventsPath, http.StatusOK, `[{"id":"e-1"}]`)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/events?page=2&category=music", nil)
	req = req.WithContext(upstream.WithAuthToken(req.Context(), "tok-1"))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[{"id":"e-1"}]`, rr.Body.String())

	require.Len(t, f.calls, 1)
	require.Equal(t, "/events", f.calls[0].Path)
	require.Equal(t, "Bearer tok-1", f.calls[0].Auth)
	require.Contains(t, f.calls[0].Query, "page=2")
	require.Contains(t, f.calls[0].Query, "category=music")
}

func TestEventByID_UpstreamErrorStatusPassthrough(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.EventsPath+"/e-404", http.StatusNotFound, `{"error":{"code":"not_found","message":"no event"}}`)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/events/e-404", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "no event")
}

func TestCreateEvent_ForwardsBodyAndContentType(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.EventsPath, http.StatusCreated, `{"id":"e-new"}`)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events",
		bytes.NewBufferString(`{"title":"Concert"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.JSONEq(t, `{"title":"Concert"}`, string(f.calls[0].Body))
	require.Equal(t, "application/json", f.calls[0].CT)
}

func TestDeleteEvent_ForwardsMethodAndPath(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.EventsPath+"/e-9", http.StatusNoContent, "")
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/events/e-9", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, http.MethodDelete, f.calls[0].Method)
	require.Equal(t, "/events/e-9", f.calls[0].Path)
}

func TestCategoriesAndOrganizations_Relay(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.CategoriesPath, http.StatusOK, `[{"id":"c-1"}]`)
	f.respond(upstream.OrganizationsPath+"/o-1", http.StatusOK, `{"id":"o-1"}`)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[{"id":"c-1"}]`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/organizations/o-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"id":"o-1"}`, rr.Body.String())
}

func TestUploadFiles_TwoFiles_CollectsIDsInOrder(t *testing.T) {
	f := newFakeUpstream(t)
	router := testRouter(t, f)

	// Фейк выдаёт id по порядку обращений.
	n := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		_, fh, err := r.FormFile("file")
		require.NoError(t, err)
		require.NotEmpty(t, fh.Filename)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			_, _ = io.WriteString(w, `{"id":"f-1"}`)
		} else {
			_, _ = io.WriteString(w, `{"id":"f-2"}`)
		}
	}))
	t.Cleanup(srv.Close)

	up, err := upstream.New(srv.URL, 2*time.Second)
	require.NoError(t, err)
	h := New(up)
	r := chi.NewRouter()
	r.Post("/api/files", h.UploadFiles)
	router = r

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "a.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes-a"))
	fw, err = mw.CreateFormFile("files", "b.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes-b"))
	require.NoError(t, mw.Close())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"id":["f-1","f-2"]}`, rr.Body.String())
	require.Equal(t, 2, n)
}

func TestUploadFiles_NotMultipart_BadRequest(t *testing.T) {
	f := newFakeUpstream(t)
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/files", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, f.calls)
}

func TestFileByID_AddsDayLongCache(t *testing.T) {
	f := newFakeUpstream(t)
	f.respond(upstream.FilesPath+"/f-1", http.StatusOK, "binary")
	f.ct[upstream.FilesPath+"/f-1"] = "image/png"
	router := testRouter(t, f)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files/f-1", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "binary", rr.Body.String())
	require.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	require.Equal(t, "public, max-age=86400", rr.Header().Get("Cache-Control"))
}

func TestPages_ServeShellWithNoStore(t *testing.T) {
	h := New(nil)

	rr := httptest.NewRecorder()
	h.AppShell(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Contains(t, rr.Body.String(), `data-page="events"`)

	rr = httptest.NewRecorder()
	h.AuthPage(rr, httptest.NewRequest(http.MethodGet, "/auth", nil))
	require.Contains(t, rr.Body.String(), `data-page="auth"`)
}
