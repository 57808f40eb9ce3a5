package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/i18n"
)

// LayoutData — данные общей обёртки страницы.
type LayoutData struct {
	// TitleKey — ключ i18n заголовка страницы.
	TitleKey string
	// DisplayName — имя пользователя (пусто — не вошёл).
	DisplayName string
}

// Layout — общая HTML-обёртка: заголовок, переключатель языка, выход.
func Layout(data LayoutData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		lang := i18n.LangFromContext(ctx)

		h.raw(`<!DOCTYPE html><html lang="`)
		h.text(lang)
		h.raw(`" dir="`)
		h.text(i18n.Dir(ctx))
		h.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(i18n.T(ctx, data.TitleKey))
		h.raw(` · `)
		h.text(i18n.T(ctx, "app.title"))
		h.raw(`</title><link rel="stylesheet" href="/static/css/app.css"></head><body>`)

		h.raw(`<header class="topbar"><strong>`)
		h.text(i18n.T(ctx, "app.title"))
		h.raw(`</strong><div>`)

		h.raw(`<form method="post" action="/set-language"><label class="muted" for="lang">`)
		h.text(i18n.T(ctx, "lang.label"))
		h.raw(`</label> <select id="lang" name="lang">`)
		for _, code := range []string{i18n.LangEnglish, i18n.LangArabic} {
			h.raw(`<option value="`)
			h.text(code)
			h.raw(`"`)
			if code == lang {
				h.raw(` selected`)
			}
			h.raw(`>`)
			h.text(i18n.T(ctx, "lang."+code))
			h.raw(`</option>`)
		}
		h.raw(`</select> <button type="submit" class="secondary">`)
		h.text(i18n.T(ctx, "lang.switch"))
		h.raw(`</button></form>`)

		if data.DisplayName != "" {
			h.raw(` <span class="muted">`)
			h.text(i18n.Tf(ctx, "nav.signed_in_as", data.DisplayName))
			h.raw(`</span> <form method="post" action="/logout"><button type="submit" class="secondary">`)
			h.text(i18n.T(ctx, "nav.logout"))
			h.raw(`</button></form>`)
		}
		h.raw(`</div></header><main>`)

		h.component(body, func(c templ.Component) error { return c.Render(ctx, w) })

		h.raw(`</main></body></html>`)
		return h.err
	})
}
