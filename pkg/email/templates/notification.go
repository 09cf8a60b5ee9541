package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// NotificationEmail is the data behind a single notification email.
type NotificationEmail struct {
	AppName   string
	TypeLabel string
	Title     string
	Body      string
	// Link is absolute; empty hides the call to action.
	Link string
}

// Notification renders a minimal transactional layout. All text is escaped.
func Notification(n NotificationEmail) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		parts := []string{
			`<!doctype html><html><head><meta charset="utf-8"><title>`,
			templ.EscapeString(n.Title),
			`</title></head><body style="font-family:sans-serif;background:#f5f5f5;padding:24px">`,
			`<div style="max-width:560px;margin:0 auto;background:#fff;padding:24px;border-radius:8px">`,
		}
		if n.TypeLabel != "" {
			parts = append(parts,
				`<p style="color:#888;font-size:12px;text-transform:uppercase;margin:0 0 8px">`,
				templ.EscapeString(n.TypeLabel), `</p>`)
		}
		parts = append(parts, `<h1 style="font-size:20px;margin:0 0 16px">`, templ.EscapeString(n.Title), `</h1>`)
		if n.Body != "" {
			parts = append(parts, `<p style="line-height:1.5">`, templ.EscapeString(n.Body), `</p>`)
		}
		if n.Link != "" {
			parts = append(parts,
				`<p><a href="`, templ.EscapeString(string(templ.URL(n.Link))), `" style="display:inline-block;padding:10px 16px;background:#2563eb;color:#fff;text-decoration:none;border-radius:6px">Open</a></p>`)
		}
		parts = append(parts, `<p style="color:#aaa;font-size:12px;margin-top:24px">`,
			templ.EscapeString(n.AppName),
			` &middot; You can change which emails you receive in your notification settings.</p></div></body></html>`)

		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}
