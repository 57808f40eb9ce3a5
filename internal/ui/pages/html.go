// Пакет pages — HTML-страницы UI (a-h/templ компоненты).
package pages

import (
	"io"

	"github.com/a-h/templ"
)

// htmlWriter пишет HTML в w, запоминая первую ошибку записи.
type htmlWriter struct {
	w   io.Writer
	err error
}

// raw пишет строку без экранирования (разметка).
func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// text пишет экранированный текст или значение атрибута.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// component выводит вложенный компонент.
func (h *htmlWriter) component(c templ.Component, render func(templ.Component) error) {
	if h.err != nil {
		return
	}
	h.err = render(c)
}
