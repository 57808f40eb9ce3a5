// Пакет handlers — HTTP-обработчики UI task-tracker.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/service"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
)

// render отдаёт страницу с кодом status. Ошибка рендеринга — 500.
func render(w http.ResponseWriter, r *http.Request, status int, page templ.Component, logger *slog.Logger) {
	templ.Handler(page,
		templ.WithStatus(status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			logger.Error("Ошибка рендеринга страницы",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
			})
		}),
	).ServeHTTP(w, r)
}

// currentIdentity возвращает сессию и Identity запроса.
// Для анонимного запроса identity == nil.
func currentIdentity(r *http.Request) (*auth.Session, *model.Identity) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		return nil, nil
	}
	return session, session.Identity()
}

// storeFor возвращает коллекцию активностей пользователя запроса.
func storeFor(stores *service.ActivityStores, r *http.Request) (*service.ActivityStore, *model.Identity) {
	_, identity := currentIdentity(r)
	if identity == nil {
		return nil, nil
	}
	return stores.For(identity.ID), identity
}
