package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
)

// DefaultLoginDelay — имитация сетевой задержки входа.
const DefaultLoginDelay = 800 * time.Millisecond

// Authenticator проверяет учётные данные и возвращает Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*model.Identity, error)
}

// AuthenticatorFunc — адаптер функции к Authenticator.
type AuthenticatorFunc func(ctx context.Context, creds Credentials) (*model.Identity, error)

// Authenticate вызывает f(ctx, creds).
func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials) (*model.Identity, error) {
	return f(ctx, creds)
}

// MockAuthenticator принимает любые учётные данные после задержки.
// Пароль не проверяется, роль берётся из запроса без изменений.
//
// TODO: заменить на проверку учётных данных, когда у бэкенда появится
// endpoint аутентификации.
type MockAuthenticator struct {
	delay  time.Duration
	newID  func() string
	logger *slog.Logger
}

// NewMockAuthenticator создаёт имитацию аутентификации с задержкой delay.
func NewMockAuthenticator(delay time.Duration, logger *slog.Logger) *MockAuthenticator {
	return &MockAuthenticator{
		delay:  delay,
		newID:  uuid.NewString,
		logger: logger.With(slog.String("component", "mock_authenticator")),
	}
}

// Authenticate ждёт delay (или отмены ctx) и возвращает новую Identity.
func (a *MockAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*model.Identity, error) {
	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	// Роль сохраняется как есть: для неизвестной роли guard ведёт на страницу входа
	if !creds.Role.Valid() {
		a.logger.Warn("Вход с неизвестной ролью", slog.String("role", string(creds.Role)))
	}

	identity := model.NewIdentity(a.newID(), creds.Username, creds.Role)

	a.logger.Debug("Имитация входа выполнена",
		slog.String("username", creds.Username),
		slog.String("role", string(creds.Role)),
		slog.String("id", identity.ID),
	)

	return identity, nil
}
