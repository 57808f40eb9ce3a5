package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	status, message string
}

func (f fakeChecker) CheckReady() (string, string) {
	return f.status, f.message
}

type fakeDeps map[string]bool

func (f fakeDeps) Health() map[string]bool {
	return f
}

func decodeReady(t *testing.T, rec *httptest.ResponseRecorder) healthReadyResponse {
	t.Helper()
	var resp healthReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()

	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp healthLiveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, statusOK, resp.Status)
	assert.Equal(t, serviceName, resp.Service)
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		pg         ReadinessChecker
		deps       DependencyHealth
		wantCode   int
		wantStatus string
		wantPG     bool
	}{
		{
			name:       "бэкенд доступен, без PostgreSQL",
			deps:       fakeDeps{"activity-backend:api.local:443": true},
			wantCode:   http.StatusOK,
			wantStatus: statusOK,
		},
		{
			name:       "бэкенд недоступен",
			deps:       fakeDeps{"activity-backend:api.local:443": false},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusFail,
		},
		{
			name:       "проверка ещё не выполнялась",
			deps:       fakeDeps{},
			wantCode:   http.StatusOK,
			wantStatus: statusDegraded,
		},
		{
			name:       "PostgreSQL недоступен",
			pg:         fakeChecker{status: statusFail, message: "нет соединения"},
			deps:       fakeDeps{"activity-backend:api.local:443": true, "postgres:db:5432": true},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusFail,
			wantPG:     true,
		},
		{
			name:       "dephealth не инициализирован",
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pg, tt.deps)
			rec := httptest.NewRecorder()

			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decodeReady(t, rec)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantPG, resp.Checks.PostgreSQL != nil)
		})
	}
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, statusOK, overallStatus(statusOK, statusOK))
	assert.Equal(t, statusDegraded, overallStatus(statusOK, statusDegraded))
	assert.Equal(t, statusFail, overallStatus(statusDegraded, statusFail))
	assert.Equal(t, statusOK, overallStatus())
}
