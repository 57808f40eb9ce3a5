// Пакет rbac — роли пользователей task-tracker и маршруты их дашбордов.
// Роль выбирается при входе и не меняется до следующего входа.
package rbac

// Role — роль пользователя.
type Role string

// Допустимые роли.
const (
	RoleStudent    Role = "student"
	RoleClub       Role = "club"
	RoleSupervisor Role = "supervisor"
)

// LoginPath — путь страницы входа. Сюда ведут все отказы guard-а,
// для которых нет более подходящего дашборда.
const LoginPath = "/login"

// dashboardPaths — фиксированная таблица роль → путь дашборда.
var dashboardPaths = map[Role]string{
	RoleStudent:    "/student",
	RoleClub:       "/club",
	RoleSupervisor: "/supervisor",
}

// Roles возвращает все допустимые роли в порядке отображения на форме входа.
func Roles() []Role {
	return []Role{RoleStudent, RoleClub, RoleSupervisor}
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := dashboardPaths[Role(role)]
	return ok
}

// Valid — то же, что IsValidRole, для типизированной роли.
func (r Role) Valid() bool {
	return IsValidRole(string(r))
}

// DashboardPath возвращает путь дашборда для роли.
// Для пустой или неизвестной роли возвращает LoginPath.
func DashboardPath(role Role) string {
	if path, ok := dashboardPaths[role]; ok {
		return path
	}
	return LoginPath
}
