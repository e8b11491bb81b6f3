package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/thorsignia/backend/internal/model"
)

var contactTemplate = template.Must(template.New("contact").Funcs(template.FuncMap{
	"nl2br": func(s string) template.HTML {
		return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
	},
}).Parse(`<h2>New Contact Form Submission</h2>
<p><strong>Date:</strong> {{.Date}}</p>
<hr>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{if .Phone}}{{.Phone}}{{else}}Not provided{{end}}</p>
<p><strong>Company:</strong> {{.Company}}</p>
<h3>Message:</h3>
<p>{{nl2br .Message}}</p>
`))

// RenderContactNotification builds the notification for a submission. All
// submitted fields are HTML-escaped.
func RenderContactNotification(from, to string, in model.ContactInput, now time.Time) (Message, error) {
	var body bytes.Buffer
	err := contactTemplate.Execute(&body, struct {
		model.ContactInput
		Date string
	}{in, now.Format("2006-01-02 15:04:05 MST")})
	if err != nil {
		return Message{}, fmt.Errorf("notify: render: %w", err)
	}
	return Message{
		From:    from,
		To:      to,
		Subject: fmt.Sprintf("New Contact Form Submission: %s from %s", in.Name, in.Company),
		HTML:    body.String(),
	}, nil
}
