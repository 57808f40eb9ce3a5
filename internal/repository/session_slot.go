package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
)

// SessionSlotRepository — интерфейс для таблицы session_slots.
// Ключ слота — UUID из cookie браузера.
type SessionSlotRepository interface {
	// Get возвращает Identity слота. Если не найден — ErrNotFound.
	Get(ctx context.Context, key string) (*model.Identity, error)
	// Put создаёт или заменяет слот (upsert).
	Put(ctx context.Context, key string, identity *model.Identity) error
	// Delete удаляет слот. Отсутствующий слот — не ошибка.
	Delete(ctx context.Context, key string) error
	// DeleteStale удаляет слоты, не обновлявшиеся дольше maxAge.
	DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// sessionSlotRepo — реализация SessionSlotRepository.
type sessionSlotRepo struct {
	db DBTX
}

// NewSessionSlotRepository создаёт репозиторий слотов сессий.
func NewSessionSlotRepository(db DBTX) SessionSlotRepository {
	return &sessionSlotRepo{db: db}
}

// Get возвращает Identity слота по ключу.
func (r *sessionSlotRepo) Get(ctx context.Context, key string) (*model.Identity, error) {
	query := `
		SELECT identity_id, username, display_name, role
		FROM session_slots
		WHERE slot_key = $1`

	var (
		identity model.Identity
		role     string
	)
	err := r.db.QueryRow(ctx, query, key).Scan(
		&identity.ID, &identity.Username, &identity.DisplayName, &role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения session_slots[%s]: %w", key, err)
	}
	identity.Role = rbac.Role(role)
	return &identity, nil
}

// Put создаёт или заменяет слот (INSERT ... ON CONFLICT DO UPDATE).
func (r *sessionSlotRepo) Put(ctx context.Context, key string, identity *model.Identity) error {
	query := `
		INSERT INTO session_slots (slot_key, identity_id, username, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slot_key) DO UPDATE
		SET identity_id = EXCLUDED.identity_id,
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			role = EXCLUDED.role,
			updated_at = NOW()`

	_, err := r.db.Exec(ctx, query,
		key, identity.ID, identity.Username, identity.DisplayName, string(identity.Role),
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения session_slots[%s]: %w", key, err)
	}
	return nil
}

// Delete удаляет слот по ключу.
func (r *sessionSlotRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM session_slots WHERE slot_key = $1`, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления session_slots[%s]: %w", key, err)
	}
	return nil
}

// DeleteStale удаляет слоты старше maxAge и возвращает их количество.
func (r *sessionSlotRepo) DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM session_slots WHERE updated_at < $1`,
		time.Now().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки session_slots: %w", err)
	}
	return tag.RowsAffected(), nil
}
