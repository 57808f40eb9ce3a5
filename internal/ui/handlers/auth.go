// auth.go — вход и выход (имитация, любые учётные данные).
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/service"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/pages"
)

// AuthHandler — обработчики входа и выхода UI.
type AuthHandler struct {
	stores *service.ActivityStores
	logger *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(stores *service.ActivityStores, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		stores: stores,
		logger: logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage — GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pages.Login(pages.LoginData{}), h.logger)
}

// HandleLogin — POST /login
// Роль берётся из формы как есть. Успех — 303 на дашборд роли,
// ошибка — форма входа заново с кодом 401.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	session, previous := currentIdentity(r)
	if session == nil {
		h.logger.Error("Сессия отсутствует в контексте запроса")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	creds := auth.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Role:     rbac.Role(r.PostFormValue("role")),
	}

	identity, err := session.Login(r.Context(), creds)
	if err != nil {
		render(w, r, http.StatusUnauthorized, pages.Login(pages.LoginData{
			Username: creds.Username,
			Role:     creds.Role,
			ErrorKey: session.LastError(),
		}), h.logger)
		return
	}

	// Новый вход заменяет прежнего пользователя в слоте
	if previous != nil && previous.ID != identity.ID {
		h.stores.Drop(previous.ID)
	}

	http.Redirect(w, r, rbac.DashboardPath(identity.Role), http.StatusSeeOther)
}

// HandleLogout — POST /logout
// Очищает сессию и коллекцию пользователя, redirect на страницу входа.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session, identity := currentIdentity(r)
	if identity != nil {
		h.stores.Drop(identity.ID)
	}
	if session != nil {
		session.Logout(r.Context())
	}
	http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
}
