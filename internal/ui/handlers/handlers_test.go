package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/service"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/i18n"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBackendDown = errors.New("бэкенд недоступен")

// memoryBackend — service.ActivityBackend в памяти.
type memoryBackend struct {
	mu      sync.Mutex
	records []model.Activity
	nextID  int
	calls   int
	err     error
}

func (b *memoryBackend) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *memoryBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *memoryBackend) List(context.Context) ([]model.Activity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return append([]model.Activity(nil), b.records...), nil
}

func (b *memoryBackend) Create(_ context.Context, in model.ActivityInput) (model.Activity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return model.Activity{}, b.err
	}
	b.nextID++
	a := model.Activity{ID: strconv.Itoa(b.nextID), Title: in.Title, Description: in.Description, Completed: in.Completed}
	b.records = append(b.records, a)
	return a, nil
}

func (b *memoryBackend) Update(_ context.Context, id string, in model.ActivityInput) (model.Activity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return model.Activity{}, b.err
	}
	a := model.Activity{ID: id, Title: in.Title, Description: in.Description, Completed: in.Completed}
	for i := range b.records {
		if b.records[i].ID == id {
			b.records[i] = a
		}
	}
	return a, nil
}

func (b *memoryBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return b.err
	}
	kept := b.records[:0]
	for _, a := range b.records {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	b.records = kept
	return nil
}

// testEnv — роутер UI с сессией из одного слота.
type testEnv struct {
	slot    *auth.MemorySlot
	backend *memoryBackend
	stores  *service.ActivityStores
	router  http.Handler
}

func newTestEnv(t *testing.T, identity *model.Identity, authn auth.Authenticator) *testEnv {
	t.Helper()
	if authn == nil {
		authn = auth.NewMockAuthenticator(0, testLogger())
	}

	env := &testEnv{
		slot:    auth.NewMemorySlot(identity),
		backend: &memoryBackend{},
	}
	env.stores = service.NewActivityStores(env.backend, 10, time.Hour, testLogger())

	authHandler := NewAuthHandler(env.stores, testLogger())
	dashboard := NewDashboardHandler(env.stores, testLogger())
	activities := NewActivityHandler(env.stores, testLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := auth.NewSession(req.Context(), env.slot, authn, testLogger())
			next.ServeHTTP(w, req.WithContext(auth.WithSession(req.Context(), session)))
		})
	})
	r.Get("/login", authHandler.HandleLoginPage)
	r.Post("/login", authHandler.HandleLogin)
	r.Post("/logout", authHandler.HandleLogout)
	r.Get("/student", dashboard.HandleDashboard)
	r.Get("/club", dashboard.HandleDashboard)
	r.Post("/activities", activities.HandleCreate)
	r.Post("/filter", activities.HandleFilter)
	r.Post("/activities/{id}", activities.HandleUpdate)
	r.Post("/activities/{id}/toggle", activities.HandleToggle)
	r.Post("/activities/{id}/delete", activities.HandleDelete)
	r.Post("/set-language", HandleSetLanguage)
	env.router = r
	return env
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (e *testEnv) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.get("/login")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `action="/login"`)
	for _, role := range rbac.Roles() {
		assert.Contains(t, body, `value="`+string(role)+`"`)
	}
}

func TestLogin_RedirectsToRoleDashboard(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.post("/login", url.Values{
		"username": {"noor"},
		"password": {"anything"},
		"role":     {"club"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/club", rec.Header().Get("Location"))

	stored, err := env.slot.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "noor", stored.Username)
	assert.Equal(t, rbac.RoleClub, stored.Role)
}

func TestLogin_Failure(t *testing.T) {
	failing := auth.AuthenticatorFunc(func(context.Context, auth.Credentials) (*model.Identity, error) {
		return nil, errBackendDown
	})
	env := newTestEnv(t, nil, failing)

	rec := env.post("/login", url.Values{"username": {"noor"}, "role": {"student"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, auth.MsgLoginFailed)
	assert.Contains(t, body, `value="noor"`)

	stored, err := env.slot.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestLogout(t *testing.T) {
	identity := model.NewIdentity("u1", "sami", rbac.RoleStudent)
	env := newTestEnv(t, identity, nil)
	env.stores.For(identity.ID)

	rec := env.post("/logout", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, rbac.LoginPath, rec.Header().Get("Location"))
	assert.Equal(t, 0, env.stores.Len())

	stored, err := env.slot.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDashboard_ListsActivities(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)
	env.backend.records = []model.Activity{
		{ID: "1", Title: "Chess <club>"},
		{ID: "2", Title: "Debate", Completed: true},
	}

	rec := env.get("/student")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "dashboard.student.title")
	assert.Contains(t, body, "Chess &lt;club&gt;")
	assert.NotContains(t, body, "Chess <club>")
	assert.Contains(t, body, `data-id="2"`)
	assert.NotContains(t, body, `role="alert"`)
}

func TestDashboard_FetchError(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)
	env.backend.setErr(errBackendDown)

	rec := env.get("/student")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "activities.error.fetch")
}

func TestDashboard_Anonymous(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.get("/student")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, rbac.LoginPath, rec.Header().Get("Location"))
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)

	rec := env.post("/activities", url.Values{"title": {"  Robotics  "}, "description": {"lab"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/student", rec.Header().Get("Location"))

	items := env.stores.For("u1").Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Robotics", items[0].Title)
	assert.NotEmpty(t, items[0].ID)
}

func TestCreate_EmptyTitle(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)

	rec := env.post("/activities", url.Values{"title": {"   "}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/student?error=invalid_input", rec.Header().Get("Location"))
	assert.Equal(t, 0, env.backend.callCount())

	page := env.get("/student?error=invalid_input")
	assert.Contains(t, page.Body.String(), msgInvalidInput)
}

func TestCreate_ErrorShownOnce(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)
	env.backend.setErr(errBackendDown)

	rec := env.post("/activities", url.Values{"title": {"Robotics"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	env.backend.setErr(nil)

	first := env.get("/student")
	assert.Contains(t, first.Body.String(), "activities.error.create")

	second := env.get("/student")
	assert.NotContains(t, second.Body.String(), "activities.error.create")
}

func TestToggleAndDelete(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)
	env.backend.records = []model.Activity{
		{ID: "1", Title: "Chess"},
		{ID: "2", Title: "Debate"},
	}
	env.get("/student")

	rec := env.post("/activities/1/toggle", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	store := env.stores.For("u1")
	require.Len(t, store.Items(), 2)
	assert.True(t, store.Items()[0].Completed)
	assert.Equal(t, "Chess", store.Items()[0].Title)

	rec = env.post("/activities/2/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, store.Items(), 1)
	assert.Equal(t, "1", store.Items()[0].ID)
}

func TestToggle_ErrorShownOnDashboard(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)
	env.backend.records = []model.Activity{{ID: "1", Title: "Chess"}}
	env.get("/student")
	env.backend.setErr(errBackendDown)

	rec := env.post("/activities/1/toggle", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, env.stores.For("u1").Items()[0].Completed)

	env.backend.setErr(nil)
	page := env.get("/student")
	assert.Contains(t, page.Body.String(), "activities.error.update")
}

func TestToggle_UnknownID(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)

	rec := env.post("/activities/missing/toggle", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, env.backend.callCount())
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleClub), nil)
	env.backend.records = []model.Activity{{ID: "7", Title: "Chess"}}
	env.get("/club")

	rec := env.post("/activities/7", url.Values{
		"title":       {"Chess finals"},
		"description": {"hall B"},
		"completed":   {"true"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/club", rec.Header().Get("Location"))
	items := env.stores.For("u1").Items()
	require.Len(t, items, 1)
	assert.Equal(t, model.Activity{ID: "7", Title: "Chess finals", Description: "hall B", Completed: true}, items[0])
}

func TestFilter(t *testing.T) {
	env := newTestEnv(t, model.NewIdentity("u1", "sami", rbac.RoleStudent), nil)
	env.backend.records = []model.Activity{
		{ID: "1", Title: "Chess"},
		{ID: "2", Title: "Debate", Completed: true},
	}

	rec := env.post("/filter", url.Values{"filter": {"completed"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, model.FilterCompleted, env.stores.For("u1").Filter())

	body := env.get("/student").Body.String()
	assert.Contains(t, body, `data-id="2"`)
	assert.NotContains(t, body, `data-id="1"`)

	rec = env.post("/filter", url.Values{"filter": {"done"}})
	assert.Equal(t, "/student?error=invalid_input", rec.Header().Get("Location"))
	assert.Equal(t, model.FilterCompleted, env.stores.For("u1").Filter())
}

func TestSetLanguage(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/set-language", strings.NewReader("lang=ar"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://example.com/club")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/club", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, i18n.LangCookieName, cookies[0].Name)
	assert.Equal(t, i18n.LangArabic, cookies[0].Value)
}

func TestSetLanguage_Unsupported(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.post("/set-language", url.Values{"lang": {"ru"}})

	assert.Equal(t, rbac.LoginPath, rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, i18n.LangEnglish, cookies[0].Value)
}
