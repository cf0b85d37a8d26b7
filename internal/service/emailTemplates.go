package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ds124wfegd/eshikshan/internal/entity"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type emailData struct {
	RecipientName string
	Heading       string
	Intro         string
	PostingTitle  string
	Status        string
	Message       string
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
<h2>{{.Heading}}</h2>
<p>Hello {{.RecipientName}},</p>
<p>{{.Intro}}</p>
<table cellpadding="4">
<tr><td><strong>Posting</strong></td><td>{{.PostingTitle}}</td></tr>
{{- if .Status}}
<tr><td><strong>Status</strong></td><td>{{.Status}}</td></tr>
{{- end}}
</table>
{{- if .Message}}
<p><strong>Message from the instructor:</strong></p>
<blockquote>{{.Message}}</blockquote>
{{- end}}
<p>eShikshan</p>
</body>
</html>
`))

func renderEmail(data emailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// displayStatus turns "further_round" into "Further Round".
// A Caser keeps state, so each call builds its own.
func displayStatus(status entity.SubmissionStatus) string {
	return cases.Title(language.English).String(status.Label())
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
