// Пакет middleware — HTTP middleware для UI task-tracker.
// auth.go — восстановление сессии из слота на каждый запрос.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
)

// UIAuth — middleware сессии. Для каждого запроса создаёт auth.Session
// из слота браузера и помещает её в контекст. Сам по себе запрос не
// отклоняет: решение принимает guard навигации или RequireSession.
type UIAuth struct {
	slots         auth.SlotProvider
	authenticator auth.Authenticator
	logger        *slog.Logger
}

// NewUIAuth создаёт новый UIAuth middleware.
func NewUIAuth(slots auth.SlotProvider, authenticator auth.Authenticator, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		slots:         slots,
		authenticator: authenticator,
		logger:        logger,
	}
}

// Middleware возвращает HTTP middleware, помещающий сессию в контекст.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slot := ua.slots.Slot(w, r)
			session := auth.NewSession(r.Context(), slot, ua.authenticator, ua.logger)
			ctx := auth.WithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession пропускает только аутентифицированные запросы,
// остальные перенаправляет на страницу входа (303 для форм).
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := auth.SessionFromContext(r.Context())
		if session == nil || !session.IsAuthenticated() {
			http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
