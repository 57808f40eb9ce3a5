// activities.go — JSON API коллекции активностей пользователя.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/api/errors"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/service"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
)

// maxBodyBytes — ограничение тела запроса.
const maxBodyBytes = 64 << 10

// ActivityHandler — JSON API активностей. Работает с той же коллекцией
// пользователя, что и UI.
type ActivityHandler struct {
	stores *service.ActivityStores
	logger *slog.Logger
}

// NewActivityHandler создаёт новый ActivityHandler.
func NewActivityHandler(stores *service.ActivityStores, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		stores: stores,
		logger: logger.With(slog.String("component", "api.activities")),
	}
}

// activityListResponse — ответ GET /api/v1/activities.
type activityListResponse struct {
	Items          []model.Activity `json:"items"`
	Filter         model.FilterMode `json:"filter"`
	Total          int              `json:"total"`
	ActiveCount    int              `json:"active_count"`
	CompletedCount int              `json:"completed_count"`
}

// filterRequest — тело PUT /api/v1/filter.
type filterRequest struct {
	Filter string `json:"filter"`
}

// store возвращает коллекцию пользователя запроса.
// Без сессии отвечает 401 и возвращает nil.
func (h *ActivityHandler) store(w http.ResponseWriter, r *http.Request) *service.ActivityStore {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "Требуется вход в систему")
		return nil
	}
	identity := session.Identity()
	if identity == nil {
		apierrors.Unauthorized(w, "Требуется вход в систему")
		return nil
	}
	return h.stores.For(identity.ID)
}

// ListActivities — GET /api/v1/activities
// Перезагружает коллекцию и возвращает записи под текущим фильтром.
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	all := store.FetchAll(r.Context())
	if opErr := store.LastError(); opErr != nil {
		h.writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, listResponse(store, len(all)))
}

// CreateActivity — POST /api/v1/activities
func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	created, err := store.Create(r.Context(), input)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateActivity — PUT /api/v1/activities/{id}
func (h *ActivityHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	updated, err := store.Update(r.Context(), activityID(r), input)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ToggleActivity — POST /api/v1/activities/{id}/toggle
// Активность ищется в загруженной коллекции; неизвестный id — 404.
func (h *ActivityHandler) ToggleActivity(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	id := activityID(r)
	if _, found := findActivity(store.Items(), id); !found {
		apierrors.NotFound(w, "Активность не найдена в загруженной коллекции")
		return
	}

	store.ToggleCompletion(r.Context(), id)
	if opErr := store.LastError(); opErr != nil && opErr.Op == service.OpUpdate {
		h.writeOpError(w, opErr)
		return
	}

	toggled, found := findActivity(store.Items(), id)
	if !found {
		apierrors.NotFound(w, "Активность не найдена в загруженной коллекции")
		return
	}
	writeJSON(w, http.StatusOK, toggled)
}

// DeleteActivity — DELETE /api/v1/activities/{id}
func (h *ActivityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	if err := store.Delete(r.Context(), activityID(r)); err != nil {
		h.writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFilter — PUT /api/v1/filter
func (h *ActivityHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	var req filterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return
	}

	if err := store.SetFilter(model.FilterMode(req.Filter)); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, listResponse(store, len(store.Items())))
}

// decodeInput читает тело активности. Пустой title — 400.
func (h *ActivityHandler) decodeInput(w http.ResponseWriter, r *http.Request) (model.ActivityInput, bool) {
	var input model.ActivityInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return model.ActivityInput{}, false
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		apierrors.ValidationError(w, "Поле title обязательно")
		return model.ActivityInput{}, false
	}
	return input, true
}

// writeOpError переводит ошибку операции коллекции в ответ API.
// Ошибки бэкенда — 502 с ключом сообщения операции.
func (h *ActivityHandler) writeOpError(w http.ResponseWriter, err error) {
	var opErr *service.OpError
	if !errors.As(err, &opErr) {
		h.logger.Error("Необработанная ошибка операции", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	if opErr.Op == service.OpUpdate && errors.Is(opErr, service.ErrMissingID) {
		apierrors.ValidationError(w, "Не указан идентификатор активности")
		return
	}

	h.logger.Warn("Ошибка операции над активностями",
		slog.String("op", opErr.Op),
		slog.String("error", opErr.Err.Error()),
	)
	apierrors.BackendUnavailable(w, opErr.Message)
}

func listResponse(store *service.ActivityStore, total int) activityListResponse {
	items := store.Filtered()
	return activityListResponse{
		Items:          items,
		Filter:         store.Filter(),
		Total:          total,
		ActiveCount:    store.ActiveCount(),
		CompletedCount: store.CompletedCount(),
	}
}

// activityID возвращает идентификатор активности из пути.
// chi отдаёт параметр из RawPath, поэтому "a%2Fb" раскодируется в "a/b".
func activityID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

func findActivity(items []model.Activity, id string) (model.Activity, bool) {
	for _, a := range items {
		if a.ID == id {
			return a, true
		}
	}
	return model.Activity{}, false
}
