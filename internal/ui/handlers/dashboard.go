package handlers

import (
	"log/slog"
	"net/http"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/service"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/pages"
)

// DashboardHandler — дашборды ролей.
type DashboardHandler struct {
	stores *service.ActivityStores
	logger *slog.Logger
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(stores *service.ActivityStores, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		stores: stores,
		logger: logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard — GET /student, /club, /supervisor
// Каждый показ заново загружает коллекцию с бэкенда. Ошибка предыдущей
// операции формы показывается один раз: следующая загрузка её сбрасывает.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	store, identity := storeFor(h.stores, r)
	if store == nil {
		http.Redirect(w, r, rbac.LoginPath, http.StatusFound)
		return
	}

	previous := store.LastError()
	store.FetchAll(r.Context())

	errorKey := ""
	switch opErr := store.LastError(); {
	case opErr != nil:
		errorKey = opErr.Message
	case previous != nil && previous.Op != service.OpFetch:
		errorKey = previous.Message
	case r.URL.Query().Get(errorQueryParam) == errorInvalidInput:
		errorKey = msgInvalidInput
	}

	data := pages.DashboardData{
		DisplayName:    identity.DisplayName,
		Role:           identity.Role,
		Activities:     store.Filtered(),
		Filter:         store.Filter(),
		ActiveCount:    store.ActiveCount(),
		CompletedCount: store.CompletedCount(),
		ErrorKey:       errorKey,
	}

	render(w, r, http.StatusOK, pages.Dashboard(data), h.logger)
}
