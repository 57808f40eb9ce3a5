// stores.go — коллекции активностей по пользователям.
// Обёртка над hashicorp/golang-lru/v2/expirable: коллекция живёт в памяти
// экземпляра до выхода пользователя, вытеснения или истечения TTL.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша коллекций.
var (
	storeCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tt_activity_store_cache_hits_total",
		Help: "Общее количество обращений к существующей коллекции активностей.",
	})
	storeCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tt_activity_store_cache_misses_total",
		Help: "Общее количество созданий новой коллекции активностей.",
	})
)

// ActivityStores — LRU коллекций активностей с TTL, ключ — Identity.ID.
type ActivityStores struct {
	backend ActivityBackend
	logger  *slog.Logger

	// mu исключает двойное создание коллекции одного пользователя.
	mu    sync.Mutex
	cache *expirable.LRU[string, *ActivityStore]
}

// NewActivityStores создаёт хранилище коллекций.
// maxSize — максимальное количество пользователей в памяти.
// ttl — время жизни коллекции после создания.
func NewActivityStores(backend ActivityBackend, maxSize int, ttl time.Duration, logger *slog.Logger) *ActivityStores {
	l := logger.With(slog.String("component", "activity_stores"))
	onEvict := func(identityID string, _ *ActivityStore) {
		l.Debug("Коллекция активностей вытеснена", slog.String("identity_id", identityID))
	}
	return &ActivityStores{
		backend: backend,
		logger:  l,
		cache:   expirable.NewLRU[string, *ActivityStore](maxSize, onEvict, ttl),
	}
}

// For возвращает коллекцию пользователя, создавая пустую при отсутствии.
func (s *ActivityStores) For(identityID string) *ActivityStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.cache.Get(identityID); ok {
		storeCacheHitsTotal.Inc()
		return store
	}
	storeCacheMissesTotal.Inc()

	store := NewActivityStore(s.backend, s.logger.With(slog.String("identity_id", identityID)))
	s.cache.Add(identityID, store)
	return store
}

// Drop удаляет коллекцию пользователя (выход из системы).
func (s *ActivityStores) Drop(identityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(identityID)
}

// Len возвращает количество коллекций в памяти.
func (s *ActivityStores) Len() int {
	return s.cache.Len()
}
