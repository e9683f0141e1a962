package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/pribylovaa/go-event-manager/internal/http/handlers"
	"github.com/pribylovaa/go-event-manager/internal/http/middleware"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger    *slog.Logger
	Timeout   time.Duration
	LoginPath string
	// CORSOrigins — разрешённые Origin для /api; пусто — CORS выключен.
	CORSOrigins []string
	// Exchange — обмен refresh-токена для EdgeGate.
	Exchange middleware.ExchangeFunc
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(up *upstream.Client, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(up)

	// Страницы. Главная — за краевой проверкой сессии; страница входа
	// остаётся вне EdgeGate, иначе редирект зациклится.
	root.Group(func(r chi.Router) {
		r.Use(middleware.EdgeGate(middleware.EdgeGateOptions{
			Exchange:  opts.Exchange,
			LoginPath: opts.LoginPath,
		}))
		r.Get("/", h.AppShell)
	})
	root.Get(opts.LoginPath, h.AuthPage)

	// API. Access-токен достаётся из Authorization или cookie; ресурсные
	// маршруты без токена отклоняются ещё на шлюзе.
	api := chi.NewRouter()
	api.Use(middleware.SessionToken())
	registerAPIRoutes(api, h)

	var apiHandler http.Handler = api
	if len(opts.CORSOrigins) > 0 {
		apiHandler = cors.New(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
			AllowCredentials: true,
		}).Handler(api)
	}

	root.Mount("/api", apiHandler)

	return root
}

// registerAPIRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerAPIRoutes(r chi.Router, h *handlers.Handlers) {
	// auth — открыт: login/refresh создают сессию, logout её стирает.
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)

	// Ресурсные маршруты требуют access-токен.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession())

		// events
		r.Get("/events", h.ListEvents)
		r.Post("/events", h.CreateEvent)
		r.Get("/events/{event_id}", h.EventByID)
		r.Patch("/events/{event_id}", h.UpdateEvent)
		r.Delete("/events/{event_id}", h.DeleteEvent)

		// categories
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{category_id}", h.CategoryByID)

		// organizations
		r.Get("/organizations/{organization_id}", h.OrganizationByID)

		// files
		r.Post("/files", h.UploadFiles)
		r.Get("/files/{file_id}", h.FileByID)
	})
}
