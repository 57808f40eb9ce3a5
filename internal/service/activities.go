// Пакет service — бизнес-логика task-tracker.
// ActivityStore — коллекция активностей одного пользователя, синхронизируемая
// с REST-бэкендом: каждая успешная операция переносит ответ бэкенда в
// коллекцию, ошибки записываются в состояние; create, update и delete
// также возвращают их вызывающему.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
)

// Prometheus-метрики операций над активностями.
var activityOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tt_activity_operations_total",
	Help: "Общее количество операций над активностями по результату.",
}, []string{"op", "result"})

// ActivityBackend — REST-бэкенд активностей (реализует activityclient.Client).
type ActivityBackend interface {
	List(ctx context.Context) ([]model.Activity, error)
	Create(ctx context.Context, input model.ActivityInput) (model.Activity, error)
	Update(ctx context.Context, id string, input model.ActivityInput) (model.Activity, error)
	Delete(ctx context.Context, id string) error
}

// ActivityStore — коллекция активностей в памяти.
// Сетевые вызовы выполняются без блокировки: операции чередуются свободно,
// изменение применяется целиком по приходу ответа, последний ответ побеждает.
type ActivityStore struct {
	backend ActivityBackend
	logger  *slog.Logger

	mu       sync.RWMutex
	items    []model.Activity
	filter   model.FilterMode
	inFlight int
	lastErr  *OpError
}

// NewActivityStore создаёт пустую коллекцию с фильтром all.
func NewActivityStore(backend ActivityBackend, logger *slog.Logger) *ActivityStore {
	return &ActivityStore{
		backend: backend,
		logger:  logger.With(slog.String("component", "activity_store")),
		filter:  model.FilterAll,
	}
}

// begin отмечает начало сетевой операции и сбрасывает последнюю ошибку.
func (s *ActivityStore) begin() {
	s.mu.Lock()
	s.inFlight++
	s.lastErr = nil
	s.mu.Unlock()
}

// finish снимает отметку операции; при ошибке записывает OpError.
// Вызывается под s.mu.
func (s *ActivityStore) finish(op string, err error) *OpError {
	s.inFlight--
	if err == nil {
		activityOperationsTotal.WithLabelValues(op, "success").Inc()
		return nil
	}
	activityOperationsTotal.WithLabelValues(op, "error").Inc()
	opErr := newOpError(op, err)
	s.lastErr = opErr
	s.logger.Warn("Ошибка операции над активностями",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return opErr
}

// FetchAll заменяет коллекцию ответом бэкенда и возвращает её снимок.
// При ошибке коллекция не меняется, ошибка только записывается в LastError.
func (s *ActivityStore) FetchAll(ctx context.Context) []model.Activity {
	s.begin()
	activities, err := s.backend.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finish(OpFetch, err) != nil {
		return cloneActivities(s.items)
	}

	s.items = s.uniqueByID(activities)
	return cloneActivities(s.items)
}

// uniqueByID отбрасывает записи без идентификатора и повторы id,
// сохраняя порядок первых вхождений.
func (s *ActivityStore) uniqueByID(activities []model.Activity) []model.Activity {
	seen := make(map[string]struct{}, len(activities))
	result := make([]model.Activity, 0, len(activities))
	for _, a := range activities {
		if a.ID == "" {
			s.logger.Warn("Бэкенд вернул активность без идентификатора", slog.String("title", a.Title))
			continue
		}
		if _, dup := seen[a.ID]; dup {
			s.logger.Warn("Бэкенд вернул повторяющийся идентификатор", slog.String("id", a.ID))
			continue
		}
		seen[a.ID] = struct{}{}
		result = append(result, a)
	}
	return result
}

// Create создаёт активность и добавляет ответ бэкенда в конец коллекции.
func (s *ActivityStore) Create(ctx context.Context, input model.ActivityInput) (model.Activity, error) {
	s.begin()
	created, err := s.backend.Create(ctx, input)
	if err == nil && created.ID == "" {
		err = ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if opErr := s.finish(OpCreate, err); opErr != nil {
		return model.Activity{}, opErr
	}

	// Бэкенд мог вернуть уже известный id: заменяем на месте, id уникальны
	if i := s.indexOf(created.ID); i >= 0 {
		s.items[i] = created
	} else {
		s.items = append(s.items, created)
	}
	return created, nil
}

// Update полностью заменяет активность id. Если локальной записи с таким
// id нет, коллекция не меняется, хотя вызов бэкенда выполнен.
// Запись сохраняет id из запроса, даже если бэкенд ответил другим.
func (s *ActivityStore) Update(ctx context.Context, id string, input model.ActivityInput) (model.Activity, error) {
	if id == "" {
		s.begin()
		s.mu.Lock()
		defer s.mu.Unlock()
		return model.Activity{}, s.finish(OpUpdate, ErrMissingID)
	}

	s.begin()
	updated, err := s.backend.Update(ctx, id, input)

	s.mu.Lock()
	defer s.mu.Unlock()

	if opErr := s.finish(OpUpdate, err); opErr != nil {
		return model.Activity{}, opErr
	}

	if updated.ID != "" && updated.ID != id {
		s.logger.Warn("Бэкенд вернул другой идентификатор обновлённой активности",
			slog.String("id", id),
			slog.String("response_id", updated.ID),
		)
	}
	updated.ID = id

	i := s.indexOf(id)
	if i < 0 {
		s.logger.Debug("Обновлённая активность отсутствует в локальной коллекции",
			slog.String("id", id),
		)
		return updated, nil
	}
	s.items[i] = updated
	return updated, nil
}

// ToggleCompletion инвертирует completed у активности id через Update.
// Для неизвестного или пустого id вызова бэкенда нет. Ошибка бэкенда
// записывается в LastError и вызывающему не возвращается.
func (s *ActivityStore) ToggleCompletion(ctx context.Context, id string) {
	if id == "" {
		s.logger.Warn("Переключение активности без идентификатора пропущено")
		return
	}

	s.mu.RLock()
	i := s.indexOf(id)
	var current model.Activity
	if i >= 0 {
		current = s.items[i]
	}
	s.mu.RUnlock()

	if i < 0 {
		s.logger.Warn("Активность для переключения не найдена", slog.String("id", id))
		return
	}

	input := current.Input()
	input.Completed = !input.Completed

	_, _ = s.Update(ctx, id, input)
}

// Delete удаляет активность на бэкенде, затем все локальные записи с этим id.
// Пустой id пропускается без вызова бэкенда.
func (s *ActivityStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		s.logger.Warn("Удаление активности без идентификатора пропущено")
		return nil
	}

	s.begin()
	err := s.backend.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if opErr := s.finish(OpDelete, err); opErr != nil {
		return opErr
	}

	kept := s.items[:0]
	for _, a := range s.items {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	// Обнуляем хвост, чтобы не держать удалённые записи
	clear(s.items[len(kept):])
	s.items = kept
	return nil
}

// SetFilter меняет режим фильтрации. Только локально.
func (s *ActivityStore) SetFilter(mode model.FilterMode) error {
	parsed, err := model.ParseFilterMode(string(mode))
	if err != nil {
		return errors.Join(ErrInvalidFilter, err)
	}

	s.mu.Lock()
	s.filter = parsed
	s.mu.Unlock()
	return nil
}

// Filter возвращает текущий режим фильтрации.
func (s *ActivityStore) Filter() model.FilterMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Items возвращает копию всей коллекции.
func (s *ActivityStore) Items() []model.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneActivities(s.items)
}

// Filtered возвращает записи, подходящие под текущий фильтр, в порядке коллекции.
func (s *ActivityStore) Filtered() []model.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Activity, 0, len(s.items))
	for _, a := range s.items {
		if s.filter.Matches(a) {
			result = append(result, a)
		}
	}
	return result
}

// ActiveCount — количество незавершённых активностей.
func (s *ActivityStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.items {
		if !a.Completed {
			n++
		}
	}
	return n
}

// CompletedCount — количество завершённых активностей.
func (s *ActivityStore) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.items {
		if a.Completed {
			n++
		}
	}
	return n
}

// IsLoading сообщает, есть ли незавершённые сетевые операции.
func (s *ActivityStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// LastError возвращает последнюю ошибку операции или nil.
func (s *ActivityStore) LastError() *OpError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastErr == nil {
		return nil
	}
	cp := *s.lastErr
	return &cp
}

// indexOf ищет позицию активности по каноническому id. Вызывается под s.mu.
func (s *ActivityStore) indexOf(id string) int {
	for i, a := range s.items {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func cloneActivities(items []model.Activity) []model.Activity {
	result := make([]model.Activity, len(items))
	copy(result, items)
	return result
}
