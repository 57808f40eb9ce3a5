// Пакет middleware — HTTP middleware JSON API task-tracker.
// session.go — проверка сессии для /api/v1.
package middleware

import (
	"net/http"

	apierrors "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/api/errors"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
)

// RequireSession пропускает только запросы с аутентифицированной сессией
// (восстановленной UIAuth middleware), иначе 401 UNAUTHORIZED.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := auth.SessionFromContext(r.Context())
		if session == nil || !session.IsAuthenticated() {
			apierrors.Unauthorized(w, "Требуется вход в систему")
			return
		}
		next.ServeHTTP(w, r)
	})
}
