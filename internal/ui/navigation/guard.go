package navigation

import "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"

// SessionView — то, что guard читает из сессии.
// Реализуется auth.Session; чтение синхронное, без сетевых вызовов.
type SessionView interface {
	IsAuthenticated() bool
	Role() rbac.Role
}

// Outcome — результат проверки навигации.
type Outcome int

const (
	// Proceed — навигация разрешена.
	Proceed Outcome = iota
	// Redirect — навигация перенаправлена на Decision.Path.
	Redirect
)

// String возвращает имя исхода (используется в лейблах метрик).
func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "proceed"
}

// Decision — решение guard-а по одной попытке навигации.
type Decision struct {
	Outcome Outcome
	// Path — куда перенаправить (только для Redirect).
	Path string
}

// ProceedDecision — разрешение навигации.
func ProceedDecision() Decision {
	return Decision{Outcome: Proceed}
}

// RedirectDecision — перенаправление на path.
func RedirectDecision(path string) Decision {
	return Decision{Outcome: Redirect, Path: path}
}

// Guard — проверка навигации по таблице маршрутов.
type Guard struct {
	table *Table
}

// NewGuard создаёт guard для таблицы маршрутов.
func NewGuard(table *Table) *Guard {
	return &Guard{table: table}
}

// Table возвращает таблицу маршрутов guard-а.
func (g *Guard) Table() *Table {
	return g.table
}

// Decide принимает решение по попытке навигации target ← from.
//
// Порядок правил:
//  1. статический redirect маршрута;
//  2. RequiresAuth без аутентификации → страница входа;
//  3. RequiredRole не совпадает с ролью сессии → дашборд фактической роли,
//     для неизвестной роли → страница входа;
//  4. иначе навигация разрешена.
//
// Второй аргумент (маршрут, с которого идёт навигация) на решение не влияет.
func (g *Guard) Decide(target, _ Route, session SessionView) Decision {
	if target.IsRedirect() {
		return RedirectDecision(target.RedirectTo)
	}

	authenticated := session != nil && session.IsAuthenticated()

	if target.RequiresAuth && !authenticated {
		return RedirectDecision(rbac.LoginPath)
	}

	if target.RequiredRole != "" {
		var role rbac.Role
		if authenticated {
			role = session.Role()
		}
		if role != target.RequiredRole {
			return RedirectDecision(rbac.DashboardPath(role))
		}
	}

	return ProceedDecision()
}

// DecidePath — Decide по путям запроса (разрешаются через таблицу).
func (g *Guard) DecidePath(targetPath, fromPath string, session SessionView) (Route, Decision) {
	target := g.table.Resolve(targetPath)
	from := g.table.Resolve(fromPath)
	return target, g.Decide(target, from, session)
}
