// navigation.go — применение guard навигации к страницам UI.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/auth"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/navigation"
)

// navigationDecisionsTotal — решения guard по маршрутам.
var navigationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tt_navigation_decisions_total",
		Help: "Общее количество решений guard навигации по маршрутам и исходам.",
	},
	[]string{"route", "outcome"},
)

// Navigator — middleware guard навигации.
type Navigator struct {
	guard  *navigation.Guard
	logger *slog.Logger
}

// NewNavigator создаёт middleware guard навигации.
func NewNavigator(guard *navigation.Guard, logger *slog.Logger) *Navigator {
	return &Navigator{
		guard:  guard,
		logger: logger.With(slog.String("component", "navigation_guard")),
	}
}

// Navigate возвращает middleware для страницы target: при решении
// Redirect отвечает 302 на путь решения, иначе вызывает next.
// Сессия берётся из контекста (UIAuth), её отсутствие — анонимный доступ.
func (n *Navigator) Navigate(target navigation.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			from := n.guard.Table().Resolve(refererPath(r))
			decision := n.guard.Decide(target, from, sessionView(r))
			if n.redirect(w, r, target, from, decision) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NavigatePath — guard для пути, которому в роутере нет отдельного
// маршрута: маршрут определяется по таблице, страница берётся из view.
func (n *Navigator) NavigatePath(view func(navigation.Route) http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromPath := refererPath(r)
		target, decision := n.guard.DecidePath(r.URL.Path, fromPath, sessionView(r))
		if n.redirect(w, r, target, n.guard.Table().Resolve(fromPath), decision) {
			return
		}
		view(target).ServeHTTP(w, r)
	})
}

// redirect учитывает решение в метрике и при Redirect отвечает 302.
// Возвращает true, если ответ уже записан.
func (n *Navigator) redirect(w http.ResponseWriter, r *http.Request, target, from navigation.Route, decision navigation.Decision) bool {
	navigationDecisionsTotal.WithLabelValues(target.Name, decision.Outcome.String()).Inc()
	if decision.Outcome != navigation.Redirect {
		return false
	}

	n.logger.Debug("Навигация перенаправлена",
		slog.String("route", target.Name),
		slog.String("path", r.URL.Path),
		slog.String("from", from.Name),
		slog.String("redirect_to", decision.Path),
	)
	http.Redirect(w, r, decision.Path, http.StatusFound)
	return true
}

// sessionView возвращает сессию из контекста как SessionView.
// Явная проверка nil: *auth.Session(nil) в интерфейсе не равен nil.
func sessionView(r *http.Request) navigation.SessionView {
	if session := auth.SessionFromContext(r.Context()); session != nil {
		return session
	}
	return nil
}

// refererPath возвращает путь из заголовка Referer того же хоста или "".
func refererPath(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return ""
	}
	return u.Path
}
