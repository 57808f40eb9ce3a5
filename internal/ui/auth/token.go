package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
)

// TokenIssuerName — значение iss выпускаемых токенов.
const TokenIssuerName = "task-tracker"

// ErrNoIdentity — в контексте запроса нет аутентифицированной сессии.
var ErrNoIdentity = errors.New("нет аутентифицированной сессии")

// IdentityClaims — claims bearer-токена для бэкенда активностей.
type IdentityClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	Role              string `json:"role"`
}

// TokenIssuer выпускает короткоживущие HS256-токены с данными Identity.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт выпускающего токены. secret не должен быть пустым.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("пустой секрет подписи токенов")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("некорректный TTL токена: %s", ttl)
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue подписывает токен для identity.
func (ti *TokenIssuer) Issue(identity *model.Identity) (string, error) {
	now := ti.now()
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    TokenIssuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		PreferredUsername: identity.Username,
		Name:              identity.DisplayName,
		Role:              string(identity.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// TokenProvider возвращает функцию, выпускающую токен для сессии из контекста.
// Сигнатура совпадает с activityclient.TokenProvider.
func (ti *TokenIssuer) TokenProvider() func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		s := SessionFromContext(ctx)
		if s == nil {
			return "", ErrNoIdentity
		}
		identity := s.Identity()
		if identity == nil {
			return "", ErrNoIdentity
		}
		return ti.Issue(identity)
	}
}
