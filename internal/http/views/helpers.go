package views

import (
	"fmt"
	"html"
	"io"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/http/viewmodels"
)

func esc(s string) string {
	return html.EscapeString(s)
}

func writeHead(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s | memberdesk</title><link rel="stylesheet" href="/static/app.css"></head><body>`, esc(title))
	return err
}

func writeFoot(w io.Writer) error {
	_, err := fmt.Fprint(w, `</body></html>`)
	return err
}

func writeToast(w io.Writer, t *viewmodels.ToastViewData) {
	if t == nil {
		return
	}
	fmt.Fprintf(w, `<div class="toast toast-%s" role="status"><strong>%s</strong>`, esc(t.Category), esc(t.Title))
	if t.Description != "" {
		fmt.Fprintf(w, `<p>%s</p>`, esc(t.Description))
	}
	fmt.Fprint(w, `</div>`)
}

func writeHidden(w io.Writer, name, value string) {
	fmt.Fprintf(w, `<input type="hidden" name="%s" value="%s">`, esc(name), esc(value))
}

func writeField(w io.Writer, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(w, `<dt>%s</dt><dd>%s</dd>`, esc(label), esc(value))
}

func writeNavLink(w io.Writer, href, label, active string) {
	cls := ""
	if href == active {
		cls = ` class="active"`
	}
	fmt.Fprintf(w, `<a href="%s"%s>%s</a>`, esc(href), cls, esc(label))
}

func writePasswordInput(w io.Writer, name, label, errorField string) {
	cls := ""
	if name == errorField {
		cls = ` class="invalid"`
	}
	fmt.Fprintf(w, `<label for="%s">%s</label>`, esc(name), esc(label))
	fmt.Fprintf(w, `<input id="%s" name="%s" type="password"%s autocomplete="off" required>`, esc(name), esc(name), cls)
}

func roleBadgeClass(role auth.Role) string {
	switch role {
	case auth.RoleAdmin:
		return "admin"
	case auth.RoleCollector:
		return "collector"
	default:
		return "member"
	}
}

func roleBadgeLabel(role auth.Role) string {
	switch role {
	case auth.RoleAdmin:
		return "Administrator"
	case auth.RoleCollector:
		return "Collector"
	default:
		return "Member"
	}
}
