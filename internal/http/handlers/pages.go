package handlers

import (
	"net/http"
)

// Страницы шлюз отдаёт как минимальную оболочку: данные подтягивает
// клиентский код через /api. Защита главной страницы — на EdgeGate.

const appShellHTML = `<!doctype html>
<html lang="ru">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Events</title>
</head>
<body>
  <div id="root" data-page="events"></div>
  <script src="/static/app.js" defer></script>
</body>
</html>
`

const authPageHTML = `<!doctype html>
<html lang="ru">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Вход</title>
</head>
<body>
  <div id="root" data-page="auth"></div>
  <script src="/static/app.js" defer></script>
</body>
</html>
`

func serveHTML(w http.ResponseWriter, markup string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Страницы зависят от сессии — кэшировать нельзя.
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

// AppShell — GET /: защищённая оболочка приложения.
func (h *Handlers) AppShell(w http.ResponseWriter, r *http.Request) {
	serveHTML(w, appShellHTML)
}

// AuthPage — GET /auth: страница входа, доступна анониму.
func (h *Handlers) AuthPage(w http.ResponseWriter, r *http.Request) {
	serveHTML(w, authPageHTML)
}
