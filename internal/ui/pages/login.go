package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/i18n"
)

// LoginData — данные страницы входа.
type LoginData struct {
	// Username — ранее введённое имя (после ошибки).
	Username string
	// Role — выбранная роль.
	Role rbac.Role
	// ErrorKey — ключ i18n сообщения об ошибке (пусто — нет ошибки).
	ErrorKey string
}

// Login — страница входа с выбором роли.
func Login(data LoginData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.raw(`<section class="card"><h1>`)
		h.text(i18n.T(ctx, "login.title"))
		h.raw(`</h1><p class="muted">`)
		h.text(i18n.T(ctx, "login.subtitle"))
		h.raw(`</p>`)

		if data.ErrorKey != "" {
			h.raw(`<div class="card error" role="alert">`)
			h.text(i18n.T(ctx, data.ErrorKey))
			h.raw(`</div>`)
		}

		h.raw(`<form method="post" action="/login">`)
		h.raw(`<label for="username">`)
		h.text(i18n.T(ctx, "login.username"))
		h.raw(`</label><input type="text" id="username" name="username" autocomplete="username" value="`)
		h.text(data.Username)
		h.raw(`">`)

		h.raw(`<label for="password">`)
		h.text(i18n.T(ctx, "login.password"))
		h.raw(`</label><input type="password" id="password" name="password" autocomplete="current-password">`)

		h.raw(`<label for="role">`)
		h.text(i18n.T(ctx, "login.role"))
		h.raw(`</label><select id="role" name="role">`)
		selected := data.Role
		if selected == "" {
			selected = rbac.RoleStudent
		}
		for _, role := range rbac.Roles() {
			h.raw(`<option value="`)
			h.text(string(role))
			h.raw(`"`)
			if role == selected {
				h.raw(` selected`)
			}
			h.raw(`>`)
			h.text(i18n.T(ctx, "role."+string(role)))
			h.raw(`</option>`)
		}
		h.raw(`</select><p><button type="submit">`)
		h.text(i18n.T(ctx, "login.submit"))
		h.raw(`</button></p></form></section>`)

		return h.err
	})

	return Layout(LayoutData{TitleKey: "login.title"}, body)
}
