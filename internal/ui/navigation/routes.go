// Пакет navigation — таблица маршрутов UI и guard навигации.
//
// Таблица статическая и создаётся один раз при старте. Guard — чистая
// функция: по целевому маршруту и состоянию сессии решает, пропустить
// навигацию или перенаправить.
package navigation

import "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"

// Имена маршрутов. Сервер связывает по ним маршрут с обработчиком страницы.
const (
	NameRoot       = "root"
	NameLogin      = "login"
	NameStudent    = "student"
	NameClub       = "club"
	NameSupervisor = "supervisor"
	NameNotFound   = "not_found"
)

// CatchAllPath — шаблон маршрута для всех неизвестных путей.
const CatchAllPath = "*"

// Route — описание маршрута UI.
type Route struct {
	// Path — путь (точное совпадение) или CatchAllPath.
	Path string
	// Name — идентификатор маршрута.
	Name string
	// RequiresAuth — маршрут доступен только аутентифицированным.
	RequiresAuth bool
	// RequiredRole — роль, которой разрешён маршрут (пусто — любая).
	RequiredRole rbac.Role
	// RedirectTo — статический redirect вместо страницы.
	RedirectTo string
}

// IsRedirect сообщает, что маршрут не имеет страницы и всегда перенаправляет.
func (r Route) IsRedirect() bool {
	return r.RedirectTo != ""
}

// Table — неизменяемая таблица маршрутов.
type Table struct {
	routes   []Route
	byPath   map[string]Route
	catchAll Route
}

// NewTable строит таблицу из описаний маршрутов.
// Маршрут с Path == CatchAllPath становится маршрутом по умолчанию;
// если его нет, неизвестные пути ведут на страницу входа.
func NewTable(routes ...Route) *Table {
	t := &Table{
		routes: make([]Route, 0, len(routes)),
		byPath: make(map[string]Route, len(routes)),
		catchAll: Route{
			Path:       CatchAllPath,
			Name:       NameNotFound,
			RedirectTo: rbac.LoginPath,
		},
	}
	for _, r := range routes {
		if r.Path == CatchAllPath {
			t.catchAll = r
			continue
		}
		t.routes = append(t.routes, r)
		t.byPath[r.Path] = r
	}
	return t
}

// DefaultTable возвращает таблицу маршрутов приложения.
func DefaultTable() *Table {
	return NewTable(
		Route{Path: "/", Name: NameRoot, RedirectTo: rbac.LoginPath},
		Route{Path: rbac.LoginPath, Name: NameLogin},
		Route{Path: "/student", Name: NameStudent, RequiresAuth: true, RequiredRole: rbac.RoleStudent},
		Route{Path: "/club", Name: NameClub, RequiresAuth: true, RequiredRole: rbac.RoleClub},
		Route{Path: "/supervisor", Name: NameSupervisor, RequiresAuth: true, RequiredRole: rbac.RoleSupervisor},
		Route{Path: CatchAllPath, Name: NameNotFound, RedirectTo: rbac.LoginPath},
	)
}

// Routes возвращает маршруты с точными путями в порядке объявления
// (без маршрута по умолчанию).
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// CatchAll возвращает маршрут для неизвестных путей.
func (t *Table) CatchAll() Route {
	return t.catchAll
}

// Resolve находит маршрут по пути запроса (точное совпадение, как в роутере).
// Для остальных путей, включая "/club/", возвращает маршрут по умолчанию.
func (t *Table) Resolve(path string) Route {
	if r, ok := t.byPath[path]; ok {
		return r
	}
	return t.catchAll
}
