package pages

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/i18n"
)

// DashboardData — данные дашборда роли.
type DashboardData struct {
	DisplayName string
	Role        rbac.Role
	// Activities — записи под текущим фильтром.
	Activities     []model.Activity
	Filter         model.FilterMode
	ActiveCount    int
	CompletedCount int
	// ErrorKey — ключ i18n последней ошибки (пусто — нет ошибки).
	ErrorKey string
}

// Dashboard — дашборд роли со списком активностей.
func Dashboard(data DashboardData) templ.Component {
	titleKey := "dashboard." + string(data.Role) + ".title"

	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.raw(`<h1>`)
		h.text(i18n.T(ctx, titleKey))
		h.raw(`</h1><p class="muted">`)
		h.text(i18n.Tf(ctx, "dashboard.welcome", data.DisplayName))
		h.raw(`</p>`)

		if data.ErrorKey != "" {
			h.raw(`<div class="card error" role="alert">`)
			h.text(i18n.T(ctx, data.ErrorKey))
			h.raw(`</div>`)
		}

		// Новая активность
		h.raw(`<section class="card"><h2>`)
		h.text(i18n.T(ctx, "activities.new"))
		h.raw(`</h2><form method="post" action="/activities"><label for="new-title">`)
		h.text(i18n.T(ctx, "activities.field.title"))
		h.raw(`</label><input type="text" id="new-title" name="title" required><label for="new-description">`)
		h.text(i18n.T(ctx, "activities.field.description"))
		h.raw(`</label><textarea id="new-description" name="description" rows="2"></textarea><p><button type="submit">`)
		h.text(i18n.T(ctx, "activities.create"))
		h.raw(`</button></p></form></section>`)

		// Список
		h.raw(`<section class="card"><h2>`)
		h.text(i18n.T(ctx, "activities.title"))
		h.raw(`</h2><p class="muted">`)
		h.text(i18n.Tf(ctx, "activities.counts", data.ActiveCount, data.CompletedCount))
		h.raw(`</p>`)

		h.raw(`<form method="post" action="/filter"><label for="filter">`)
		h.text(i18n.T(ctx, "filter.label"))
		h.raw(`</label><select id="filter" name="filter">`)
		for _, mode := range []model.FilterMode{model.FilterAll, model.FilterActive, model.FilterCompleted} {
			h.raw(`<option value="`)
			h.text(string(mode))
			h.raw(`"`)
			if mode == data.Filter {
				h.raw(` selected`)
			}
			h.raw(`>`)
			h.text(i18n.T(ctx, "filter."+string(mode)))
			h.raw(`</option>`)
		}
		h.raw(`</select> <button type="submit" class="secondary">`)
		h.text(i18n.T(ctx, "filter.apply"))
		h.raw(`</button></form>`)

		if len(data.Activities) == 0 {
			h.raw(`<p class="muted">`)
			h.text(i18n.T(ctx, "activities.empty"))
			h.raw(`</p>`)
		} else {
			h.raw(`<ul class="activities">`)
			for _, a := range data.Activities {
				activityItem(ctx, h, a)
			}
			h.raw(`</ul>`)
		}
		h.raw(`</section>`)

		return h.err
	})

	return Layout(LayoutData{TitleKey: titleKey, DisplayName: data.DisplayName}, body)
}

// activityItem выводит одну активность с формами действий.
func activityItem(ctx context.Context, h *htmlWriter, a model.Activity) {
	base := templ.EscapeString("/activities/" + url.PathEscape(a.ID))

	h.raw(`<li`)
	if a.Completed {
		h.raw(` class="completed"`)
	}
	h.raw(` data-id="`)
	h.text(a.ID)
	h.raw(`">`)

	// Редактирование: полная замена title/description, completed сохраняется
	h.raw(`<form method="post" action="` + base + `">`)
	h.raw(`<input type="text" class="title" name="title" required value="`)
	h.text(a.Title)
	h.raw(`" aria-label="`)
	h.text(i18n.T(ctx, "activities.field.title"))
	h.raw(`"><input type="text" name="description" value="`)
	h.text(a.Description)
	h.raw(`" aria-label="`)
	h.text(i18n.T(ctx, "activities.field.description"))
	h.raw(`"><input type="hidden" name="completed" value="`)
	if a.Completed {
		h.raw(`true`)
	} else {
		h.raw(`false`)
	}
	h.raw(`"> <button type="submit" class="secondary">`)
	h.text(i18n.T(ctx, "activities.save"))
	h.raw(`</button></form>`)

	h.raw(`<span><form method="post" action="` + base + `/toggle"><button type="submit">`)
	if a.Completed {
		h.text(i18n.T(ctx, "activities.reopen"))
	} else {
		h.text(i18n.T(ctx, "activities.complete"))
	}
	h.raw(`</button></form> <form method="post" action="` + base + `/delete"><button type="submit" class="danger">`)
	h.text(i18n.T(ctx, "activities.delete"))
	h.raw(`</button></form></span></li>`)
}
