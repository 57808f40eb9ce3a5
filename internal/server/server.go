// Пакет server — HTTP-сервер task-tracker с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/api/errors"
	apihandlers "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/api/handlers"
	apimiddleware "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/api/middleware"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/config"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/service"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
	uihandlers "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/handlers"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/i18n"
	uimiddleware "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/middleware"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/navigation"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/static"
)

// Deps — зависимости маршрутов, собранные в main.
type Deps struct {
	// Health — обработчик /health/* и /metrics.
	Health *apihandlers.HealthHandler
	// Slots — хранилище слота сессии (cookie или PostgreSQL).
	Slots auth.SlotProvider
	// Authenticator — проверка учётных данных при входе.
	Authenticator auth.Authenticator
	// Stores — коллекции активностей пользователей.
	Stores *service.ActivityStores
	// Routes — таблица маршрутов UI (nil — navigation.DefaultTable()).
	Routes *navigation.Table
}

// Server — HTTP-сервер task-tracker.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, deps),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер: служебные endpoints, статику,
// страницы UI под guard навигации, формы и JSON API /api/v1.
func NewRouter(cfg *config.Config, logger *slog.Logger, deps Deps) http.Handler {
	table := deps.Routes
	if table == nil {
		table = navigation.DefaultTable()
	}

	navigator := uimiddleware.NewNavigator(navigation.NewGuard(table), logger)
	uiAuth := uimiddleware.NewUIAuth(deps.Slots, deps.Authenticator, logger)
	loginLimiter := uimiddleware.NewRateLimiter(cfg.LoginRateRequests, cfg.LoginRateWindow, logger)

	authHandler := uihandlers.NewAuthHandler(deps.Stores, logger)
	dashboardHandler := uihandlers.NewDashboardHandler(deps.Stores, logger)
	activityForms := uihandlers.NewActivityHandler(deps.Stores, logger)
	activityAPI := apihandlers.NewActivityHandler(deps.Stores, logger)

	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(apimiddleware.MetricsMiddleware())
	router.Use(apimiddleware.RequestLogger(logger))

	// Health и metrics — без сессии
	router.Get("/health/live", deps.Health.HealthLive)
	router.Get("/health/ready", deps.Health.HealthReady)
	router.Get("/metrics", deps.Health.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static", http.FileServer(static.FileSystem())))

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware(cfg.DefaultLang))
		r.Use(uiAuth.Middleware())

		// Страницы из таблицы маршрутов
		pages := map[string]http.HandlerFunc{
			navigation.NameLogin:      authHandler.HandleLoginPage,
			navigation.NameStudent:    dashboardHandler.HandleDashboard,
			navigation.NameClub:       dashboardHandler.HandleDashboard,
			navigation.NameSupervisor: dashboardHandler.HandleDashboard,
		}
		for _, route := range table.Routes() {
			r.With(navigator.Navigate(route)).Get(route.Path, pageHandler(route, pages).ServeHTTP)
		}
		r.NotFound(navigator.NavigatePath(func(route navigation.Route) http.Handler {
			return pageHandler(route, pages)
		}).ServeHTTP)

		// Формы
		r.With(loginLimiter.Middleware()).Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Post("/set-language", uihandlers.HandleSetLanguage)

		r.Group(func(r chi.Router) {
			r.Use(uimiddleware.RequireSession)
			r.Post("/activities", activityForms.HandleCreate)
			r.Post("/filter", activityForms.HandleFilter)
			r.Post("/activities/{id}", activityForms.HandleUpdate)
			r.Post("/activities/{id}/toggle", activityForms.HandleToggle)
			r.Post("/activities/{id}/delete", activityForms.HandleDelete)
		})

		// JSON API
		r.Route("/api/v1", func(r chi.Router) {
			r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
				apierrors.NotFound(w, "Маршрут не найден")
			})
			r.Get("/session", apihandlers.GetSession)

			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.RequireSession)
				r.Get("/activities", activityAPI.ListActivities)
				r.Post("/activities", activityAPI.CreateActivity)
				r.Put("/filter", activityAPI.SetFilter)
				r.Put("/activities/{id}", activityAPI.UpdateActivity)
				r.Delete("/activities/{id}", activityAPI.DeleteActivity)
				r.Post("/activities/{id}/toggle", activityAPI.ToggleActivity)
			})
		})
	})

	return router
}

// pageHandler возвращает обработчик страницы маршрута. Маршрут-redirect
// и маршрут без страницы ведут на RedirectTo или страницу входа.
func pageHandler(route navigation.Route, pages map[string]http.HandlerFunc) http.Handler {
	if h, ok := pages[route.Name]; ok && !route.IsRedirect() {
		return h
	}
	target := route.RedirectTo
	if target == "" {
		if login, ok := pages[navigation.NameLogin]; ok {
			return login
		}
		return http.NotFoundHandler()
	}
	return http.RedirectHandler(target, http.StatusFound)
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM)
// или отмены ctx. После этого выполняется graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case <-ctx.Done():
		s.logger.Info("Контекст сервера отменён")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
