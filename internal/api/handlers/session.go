// session.go — состояние сессии для клиентского кода.
package handlers

import (
	"net/http"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
)

// sessionResponse — ответ GET /api/v1/session.
type sessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	Identity      *model.Identity `json:"identity,omitempty"`
	Dashboard     string          `json:"dashboard"`
}

// GetSession — GET /api/v1/session
func GetSession(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{Dashboard: rbac.LoginPath}
	if session := auth.SessionFromContext(r.Context()); session != nil {
		if identity := session.Identity(); identity != nil {
			resp.Authenticated = true
			resp.Identity = identity
			resp.Dashboard = rbac.DashboardPath(identity.Role)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
