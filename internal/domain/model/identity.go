// Пакет model — доменные модели task-tracker.
package model

import "github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"

// DefaultDisplayName — отображаемое имя, если username пустой.
const DefaultDisplayName = "user"

// Identity — профиль аутентифицированного пользователя, хранящийся
// в слоте сессии браузера.
type Identity struct {
	// ID — непрозрачный идентификатор, генерируется при входе.
	ID string `json:"id"`
	// Username — имя, введённое на форме входа.
	Username string `json:"username"`
	// DisplayName — отображаемое имя (по умолчанию Username).
	DisplayName string `json:"display_name"`
	// Role — роль, выбранная при входе.
	Role rbac.Role `json:"role"`
}

// NewIdentity создаёт Identity, подставляя отображаемое имя по умолчанию.
func NewIdentity(id, username string, role rbac.Role) *Identity {
	displayName := username
	if displayName == "" {
		displayName = DefaultDisplayName
	}
	return &Identity{
		ID:          id,
		Username:    username,
		DisplayName: displayName,
		Role:        role,
	}
}
