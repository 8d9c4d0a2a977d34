package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"minutes": func(p Params) int { return int(p.ExpiresIn.Minutes()) },
}).Parse(`
{{define "list-links"}}<!DOCTYPE html>
<html><head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; line-height: 1.6; color: #374151; max-width: 600px; margin: 0 auto; padding: 20px;">
<h1 style="color: #111827;">BlindList</h1>
<p>Here {{if gt (len .Lists) 1}}are your lists{{else}}is your list{{end}}:</p>
{{range .Lists}}<div style="margin: 20px 0; padding: 20px; border: 1px solid #e5e7eb; border-radius: 8px;">
<h3 style="margin: 0 0 12px 0;">{{.Name}}</h3>
<p><strong>Your Creator Link:</strong><br><a href="{{.CreatorURL}}">{{.CreatorURL}}</a></p>
<p><strong>Buyer Link (share this):</strong><br><a href="{{.BuyerURL}}">{{.BuyerURL}}</a></p>
</div>{{end}}
<p><strong>Remember:</strong> use your Creator Link to manage items. Share the Buyer Link with friends and family so they can mark items as purchased. You stay blind to what they choose.</p>
<p style="color: #9ca3af; font-size: 12px;">If you didn't request this, you can safely ignore it. <a href="{{.HomeURL}}">Visit BlindList</a></p>
</body></html>{{end}}

{{define "recovery-link"}}<!DOCTYPE html>
<html><head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; line-height: 1.6; color: #374151; max-width: 600px; margin: 0 auto; padding: 20px;">
<h1 style="color: #111827;">BlindList</h1>
<p>Follow the link below to access all your BlindLists associated with this email:</p>
<p><a href="{{.RecoveryURL}}" style="display: inline-block; padding: 14px 28px; background-color: #4f46e5; color: white; text-decoration: none; border-radius: 8px;">Access My Lists</a></p>
<p>Or copy and paste this link into your browser:<br><a href="{{.RecoveryURL}}">{{.RecoveryURL}}</a></p>
<p><strong>Note:</strong> this link expires in {{minutes .}} minutes and can only be used once.</p>
<p style="color: #9ca3af; font-size: 12px;">If you didn't request this, you can safely ignore it. <a href="{{.HomeURL}}">Visit BlindList</a></p>
</body></html>{{end}}
`))

// Render returns the subject and HTML body for kind.
func Render(kind Kind, p Params) (subject, body string, err error) {
	switch kind {
	case KindListLinks:
		subject = "Your BlindList List"
		if len(p.Lists) > 1 {
			subject = "Your BlindList Lists"
		}
	case KindRecoveryLink:
		subject = "Access Your BlindLists"
	default:
		return "", "", fmt.Errorf("unknown template %q", kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(kind), p); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return subject, buf.String(), nil
}
