// Точка входа task-tracker — веб-интерфейс учёта активностей
// студентов, клубов и кураторов.
// Загружает конфигурацию, выбирает хранилище слотов сессий (cookie или
// PostgreSQL с миграциями), создаёт клиент REST-бэкенда активностей,
// коллекции пользователей, мониторинг зависимостей и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/activityclient"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/api/handlers"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/config"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/database"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/repository"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/server"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/service"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/i18n"
)

// Очистка слотов сессий в PostgreSQL: слот живёт не дольше cookie с его ключом.
const (
	slotMaxAge          = time.Duration(auth.SessionCookieMaxAge) * time.Second
	slotCleanupInterval = time.Hour
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("task-tracker запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend_url", cfg.BackendURL),
		slog.String("session_backend", cfg.SessionBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Каталоги переводов UI
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Хранилище слотов сессий
	var (
		slots       auth.SlotProvider
		pool        *pgxpool.Pool
		pgChecker   handlers.ReadinessChecker
		slotCleanup *service.SlotCleanupService
	)

	if cfg.UsesPostgres() {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pool, err = database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		slotRepo := repository.NewSessionSlotRepository(pool)
		slots = auth.NewStoreSlots(&slotRepositoryAdapter{repo: slotRepo}, cfg.SessionSecure)
		pgChecker = database.NewReadinessChecker(pool)

		slotCleanup = service.NewSlotCleanupService(slotRepo, slotMaxAge, slotCleanupInterval, logger)
		slotCleanup.Start(ctx)
	} else {
		sessionMgr, sessionErr := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionSecure)
		if sessionErr != nil {
			logger.Error("Ошибка создания Session Manager", slog.String("error", sessionErr.Error()))
			os.Exit(1)
		}
		if cfg.SessionSecret == "" {
			logger.Warn("TT_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
		}
		slots = sessionMgr
	}

	// 5. Bearer-токены для бэкенда (опционально)
	var tokenProvider activityclient.TokenProvider
	if cfg.BackendTokenSecret != "" {
		issuer, issuerErr := auth.NewTokenIssuer(cfg.BackendTokenSecret, cfg.BackendTokenTTL)
		if issuerErr != nil {
			logger.Error("Ошибка создания TokenIssuer", slog.String("error", issuerErr.Error()))
			os.Exit(1)
		}
		tokenProvider = issuer.TokenProvider()
		logger.Info("Запросы к бэкенду подписываются bearer-токенами",
			slog.String("ttl", cfg.BackendTokenTTL.String()),
		)
	}

	// 6. Клиент REST-бэкенда активностей
	backend, err := activityclient.New(cfg.BackendURL, cfg.BackendTimeout, cfg.BackendCACertPath, tokenProvider, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента бэкенда", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Коллекции активностей пользователей
	stores := service.NewActivityStores(backend, cfg.StoreCacheSize, cfg.StoreTTL, logger)

	// 8. topologymetrics — мониторинг зависимостей (бэкенд + PostgreSQL)
	dephealthCfg := service.DephealthConfig{
		ServiceID:         "task-tracker",
		Group:             cfg.DephealthGroup,
		BackendURL:        cfg.BackendURL,
		BackendHealthPath: cfg.BackendHealthPath,
		CheckInterval:     cfg.DephealthCheckInterval,
	}
	if pool != nil {
		// Адаптер pgxpool → *sql.DB: проверка идёт через существующий пул
		pgDB := stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()
		dephealthCfg.DB = pgDB
		dephealthCfg.PGConnURL = cfg.DatabaseURL()
	}

	var deps handlers.DependencyHealth
	dephealthSvc, dephealthErr := service.NewDephealthService(dephealthCfg, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		dephealthSvc = nil
	} else {
		deps = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, server.Deps{
		Health:        handlers.NewHealthHandler(pgChecker, deps),
		Slots:         slots,
		Authenticator: auth.NewMockAuthenticator(cfg.LoginDelay, logger),
		Stores:        stores,
	})
	runErr := srv.Run(ctx)

	// 10. Остановка фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	if slotCleanup != nil {
		slotCleanup.Stop()
	}

	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
	logger.Info("task-tracker остановлен")
}

// slotRepositoryAdapter — адаптер repository.SessionSlotRepository → auth.SlotRepository.
// Отсутствующий слот — nil, nil вместо repository.ErrNotFound.
type slotRepositoryAdapter struct {
	repo repository.SessionSlotRepository
}

func (a *slotRepositoryAdapter) Get(ctx context.Context, key string) (*model.Identity, error) {
	identity, err := a.repo.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return identity, err
}

func (a *slotRepositoryAdapter) Put(ctx context.Context, key string, identity *model.Identity) error {
	return a.repo.Put(ctx, key, identity)
}

func (a *slotRepositoryAdapter) Delete(ctx context.Context, key string) error {
	return a.repo.Delete(ctx, key)
}
