package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
)

// Slot — долговременное хранилище одной Identity на браузер.
// Отсутствие записи означает «нет сессии».
type Slot interface {
	// Load возвращает сохранённую Identity или nil, nil если слот пуст.
	Load(ctx context.Context) (*model.Identity, error)
	// Save записывает Identity, заменяя предыдущую.
	Save(ctx context.Context, identity *model.Identity) error
	// Clear удаляет запись из слота.
	Clear(ctx context.Context) error
}

// SlotProvider выдаёт слот сессии для конкретного HTTP-запроса.
type SlotProvider interface {
	Slot(w http.ResponseWriter, r *http.Request) Slot
}

// SlotRepository — серверное хранилище слотов по непрозрачному ключу.
// Get возвращает nil, nil если ключ не найден.
type SlotRepository interface {
	Get(ctx context.Context, key string) (*model.Identity, error)
	Put(ctx context.Context, key string, identity *model.Identity) error
	Delete(ctx context.Context, key string) error
}

// Имя cookie с ключом серверного слота.
const SlotKeyCookieName = "tt_session_key"

// StoreSlots — SlotProvider поверх SlotRepository (например, PostgreSQL).
// В cookie хранится только случайный ключ слота.
type StoreSlots struct {
	repo   SlotRepository
	secure bool
}

// NewStoreSlots создаёт провайдер серверных слотов.
func NewStoreSlots(repo SlotRepository, secure bool) *StoreSlots {
	return &StoreSlots{repo: repo, secure: secure}
}

// Slot возвращает слот, привязанный к cookie ключа запроса.
func (p *StoreSlots) Slot(w http.ResponseWriter, r *http.Request) Slot {
	return &storeSlot{provider: p, w: w, r: r}
}

type storeSlot struct {
	provider *StoreSlots
	w        http.ResponseWriter
	r        *http.Request
	// key — ключ, выданный в этом запросе (после Save).
	key string
}

func (s *storeSlot) requestKey() string {
	if s.key != "" {
		return s.key
	}
	cookie, err := s.r.Cookie(SlotKeyCookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

func (s *storeSlot) Load(ctx context.Context) (*model.Identity, error) {
	key := s.requestKey()
	if key == "" {
		return nil, nil
	}
	identity, err := s.provider.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("чтение слота сессии: %w", err)
	}
	return identity, nil
}

func (s *storeSlot) Save(ctx context.Context, identity *model.Identity) error {
	if identity == nil {
		return errors.New("пустая identity")
	}

	// Новый ключ на каждый вход: старый ключ не переживает смену пользователя.
	if old := s.requestKey(); old != "" {
		if err := s.provider.repo.Delete(ctx, old); err != nil {
			return fmt.Errorf("удаление предыдущего слота: %w", err)
		}
	}

	key := uuid.NewString()
	if err := s.provider.repo.Put(ctx, key, identity); err != nil {
		return fmt.Errorf("запись слота сессии: %w", err)
	}
	s.key = key

	http.SetCookie(s.w, &http.Cookie{
		Name:     SlotKeyCookieName,
		Value:    key,
		Path:     "/",
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   s.provider.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *storeSlot) Clear(ctx context.Context) error {
	key := s.requestKey()
	s.key = ""

	http.SetCookie(s.w, &http.Cookie{
		Name:     SlotKeyCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.provider.secure,
		SameSite: http.SameSiteLaxMode,
	})

	if key == "" {
		return nil
	}
	if err := s.provider.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("удаление слота сессии: %w", err)
	}
	return nil
}

// MemorySlot — слот в памяти процесса. Используется в тестах
// и как слот для одиночного клиента.
type MemorySlot struct {
	identity *model.Identity
	// SaveErr — ошибка, возвращаемая Save (для тестов путей отказа).
	SaveErr error
}

// NewMemorySlot создаёт слот с начальным содержимым (может быть nil).
func NewMemorySlot(identity *model.Identity) *MemorySlot {
	return &MemorySlot{identity: identity}
}

func (s *MemorySlot) Load(_ context.Context) (*model.Identity, error) {
	if s.identity == nil {
		return nil, nil
	}
	cp := *s.identity
	return &cp, nil
}

func (s *MemorySlot) Save(_ context.Context, identity *model.Identity) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	cp := *identity
	s.identity = &cp
	return nil
}

func (s *MemorySlot) Clear(_ context.Context) error {
	s.identity = nil
	return nil
}
