package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
)

// State — состояние сессии.
type State int

const (
	// StateAnonymous — пользователь не вошёл.
	StateAnonymous State = iota
	// StateAuthenticating — вход выполняется.
	StateAuthenticating
	// StateAuthenticated — пользователь вошёл.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// ErrLoginFailed — вход не выполнен.
var ErrLoginFailed = errors.New("вход не выполнен")

// MsgLoginFailed — ключ i18n сообщения об ошибке входа для пользователя.
const MsgLoginFailed = "auth.error.login_failed"

// Credentials — данные формы входа.
type Credentials struct {
	Username string
	Password string
	Role     rbac.Role
}

// Session — состояние сессии одного браузера.
// Создаётся на каждый запрос из слота; все изменения идут только через
// Login и Logout.
type Session struct {
	mu            sync.RWMutex
	slot          Slot
	authenticator Authenticator
	logger        *slog.Logger

	identity  *model.Identity
	state     State
	loading   bool
	lastError string
}

// NewSession создаёт сессию, синхронно восстанавливая Identity из слота.
// Повреждённый слот очищается, сессия начинается как анонимная.
func NewSession(ctx context.Context, slot Slot, authenticator Authenticator, logger *slog.Logger) *Session {
	s := &Session{
		slot:          slot,
		authenticator: authenticator,
		logger:        logger.With(slog.String("component", "session")),
		state:         StateAnonymous,
	}

	identity, err := slot.Load(ctx)
	if err != nil {
		s.logger.Debug("Слот сессии не прочитан, сессия анонимная",
			slog.String("error", err.Error()),
		)
		if clearErr := slot.Clear(ctx); clearErr != nil {
			s.logger.Warn("Ошибка очистки слота сессии", slog.String("error", clearErr.Error()))
		}
		return s
	}

	if identity != nil {
		s.identity = identity
		s.state = StateAuthenticated
	}
	return s
}

// Login выполняет вход. Anonymous → Authenticating → Authenticated.
// При ошибке аутентификации или записи слота Identity не меняется,
// LastError содержит сообщение для пользователя, ошибка оборачивает ErrLoginFailed.
func (s *Session) Login(ctx context.Context, creds Credentials) (*model.Identity, error) {
	s.mu.Lock()
	prev := s.state
	s.state = StateAuthenticating
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()

	identity, err := s.authenticator.Authenticate(ctx, creds)
	if err == nil && identity == nil {
		err = errors.New("аутентификатор не вернул identity")
	}
	if err == nil {
		err = s.slot.Save(ctx, identity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.state = prev
		if prev == StateAuthenticating {
			s.state = StateAnonymous
		}
		s.lastError = MsgLoginFailed
		s.logger.Warn("Ошибка входа",
			slog.String("username", creds.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	s.identity = identity
	s.state = StateAuthenticated

	s.logger.Info("Пользователь вошёл",
		slog.String("username", identity.Username),
		slog.String("role", string(identity.Role)),
	)

	cp := *identity
	return &cp, nil
}

// Logout очищает Identity и слот. Ошибки слота только логируются.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	username := ""
	if s.identity != nil {
		username = s.identity.Username
	}
	s.identity = nil
	s.state = StateAnonymous
	s.lastError = ""
	s.mu.Unlock()

	if err := s.slot.Clear(ctx); err != nil {
		s.logger.Warn("Ошибка очистки слота сессии при выходе",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Пользователь вышел", slog.String("username", username))
}

// Identity возвращает копию текущей Identity или nil.
func (s *Session) Identity() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// IsAuthenticated — ровно identity != nil.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// IsLoading сообщает, выполняется ли вход.
func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError возвращает ключ сообщения последней ошибки или "".
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// State возвращает текущее состояние автомата.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Role возвращает роль пользователя или "" для анонимной сессии.
func (s *Session) Role() rbac.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Role
}

func (s *Session) IsStudent() bool    { return s.Role() == rbac.RoleStudent }
func (s *Session) IsClub() bool       { return s.Role() == rbac.RoleClub }
func (s *Session) IsSupervisor() bool { return s.Role() == rbac.RoleSupervisor }

// DisplayName возвращает отображаемое имя или "" для анонимной сессии.
func (s *Session) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.DisplayName
}
