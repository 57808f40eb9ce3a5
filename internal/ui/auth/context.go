package auth

import "context"

type contextKey string

const contextKeySession contextKey = "tt_session"

// WithSession помещает сессию в контекст запроса.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKeySession, s)
}

// SessionFromContext извлекает сессию из контекста.
// Возвращает nil если запрос не прошёл через middleware сессии.
func SessionFromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return s
}
