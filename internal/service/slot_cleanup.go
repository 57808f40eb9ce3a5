// slot_cleanup.go — периодическая очистка устаревших слотов сессий в PostgreSQL.
package service

import (
	"context"
	"log/slog"
	"time"
)

// StaleSlotDeleter удаляет слоты, не обновлявшиеся дольше maxAge
// (реализует repository.SessionSlotRepository).
type StaleSlotDeleter interface {
	DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// SlotCleanupService — фоновая очистка слотов сессий.
type SlotCleanupService struct {
	repo     StaleSlotDeleter
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSlotCleanupService создаёт сервис очистки.
// maxAge — возраст, после которого слот считается брошенным.
func NewSlotCleanupService(repo StaleSlotDeleter, maxAge, interval time.Duration, logger *slog.Logger) *SlotCleanupService {
	return &SlotCleanupService{
		repo:     repo,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger.With(slog.String("component", "slot_cleanup")),
	}
}

// Start запускает фоновую горутину с периодической очисткой.
func (s *SlotCleanupService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.logger.Info("Периодическая очистка слотов сессий запущена",
			slog.String("interval", s.interval.String()),
			slog.String("max_age", s.maxAge.String()),
		)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Периодическая очистка слотов сессий остановлена")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce удаляет устаревшие слоты один раз.
func (s *SlotCleanupService) RunOnce(ctx context.Context) {
	n, err := s.repo.DeleteStale(ctx, s.maxAge)
	if err != nil {
		s.logger.Error("Ошибка очистки слотов сессий", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		s.logger.Info("Устаревшие слоты сессий удалены", slog.Int64("count", n))
	}
}

// Stop останавливает фоновую горутину и ждёт завершения.
func (s *SlotCleanupService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}
