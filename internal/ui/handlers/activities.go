// activities.go — формы изменения коллекции активностей.
// Все действия отвечают 303 на дашборд роли; ошибка бэкенда остаётся
// в состоянии коллекции и показывается дашбордом.
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/service"
)

// Некорректный ввод формы передаётся дашборду через query-параметр.
const (
	errorQueryParam   = "error"
	errorInvalidInput = "invalid_input"
	msgInvalidInput   = "activities.error.invalid_input"
)

// ActivityHandler — обработчики форм активностей.
type ActivityHandler struct {
	stores *service.ActivityStores
	logger *slog.Logger
}

// NewActivityHandler создаёт новый ActivityHandler.
func NewActivityHandler(stores *service.ActivityStores, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		stores: stores,
		logger: logger.With(slog.String("component", "ui.activities")),
	}
}

// HandleCreate — POST /activities
func (h *ActivityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	store, identity := storeFor(h.stores, r)
	if store == nil {
		http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
		return
	}

	input, ok := parseActivityForm(r)
	if !ok {
		h.backToDashboard(w, r, identity.Role, true)
		return
	}

	if _, err := store.Create(r.Context(), input); err != nil {
		h.logger.Warn("Ошибка создания активности", slog.String("error", err.Error()))
	}
	h.backToDashboard(w, r, identity.Role, false)
}

// HandleUpdate — POST /activities/{id}
// Полная замена: title, description, completed из формы.
func (h *ActivityHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	store, identity := storeFor(h.stores, r)
	if store == nil {
		http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
		return
	}

	input, ok := parseActivityForm(r)
	if !ok {
		h.backToDashboard(w, r, identity.Role, true)
		return
	}

	id := activityID(r)
	if _, err := store.Update(r.Context(), id, input); err != nil {
		h.logger.Warn("Ошибка обновления активности",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	h.backToDashboard(w, r, identity.Role, false)
}

// HandleToggle — POST /activities/{id}/toggle
func (h *ActivityHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	store, identity := storeFor(h.stores, r)
	if store == nil {
		http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
		return
	}

	// Ошибка бэкенда остаётся в LastError и показывается дашбордом
	store.ToggleCompletion(r.Context(), activityID(r))
	h.backToDashboard(w, r, identity.Role, false)
}

// HandleDelete — POST /activities/{id}/delete
func (h *ActivityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	store, identity := storeFor(h.stores, r)
	if store == nil {
		http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
		return
	}

	id := activityID(r)
	if err := store.Delete(r.Context(), id); err != nil {
		h.logger.Warn("Ошибка удаления активности",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	h.backToDashboard(w, r, identity.Role, false)
}

// HandleFilter — POST /filter
func (h *ActivityHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	store, identity := storeFor(h.stores, r)
	if store == nil {
		http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
		return
	}

	if err := store.SetFilter(model.FilterMode(r.PostFormValue("filter"))); err != nil {
		h.logger.Debug("Некорректный режим фильтра", slog.String("error", err.Error()))
		h.backToDashboard(w, r, identity.Role, true)
		return
	}
	h.backToDashboard(w, r, identity.Role, false)
}

// backToDashboard отвечает 303 на дашборд роли.
func (h *ActivityHandler) backToDashboard(w http.ResponseWriter, r *http.Request, role rbac.Role, invalidInput bool) {
	target := rbac.DashboardPath(role)
	if invalidInput {
		target += "?" + errorQueryParam + "=" + errorInvalidInput
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// activityID возвращает идентификатор активности из пути.
func activityID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// parseActivityForm читает поля активности. Пустой title — некорректный ввод.
func parseActivityForm(r *http.Request) (model.ActivityInput, bool) {
	input := model.ActivityInput{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if raw := r.PostFormValue("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return model.ActivityInput{}, false
		}
		input.Completed = completed
	}
	return input, input.Title != ""
}
