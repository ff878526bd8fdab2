package dispatch

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	texttemplate "text/template"
)

// defaultSubject is used when the request does not carry a subject template.
const defaultSubject = "{{.EVENT_SEVERITY}}: {{.EVENT_NAME}}"

// templateSet holds the three parsed templates for one run: html body, plain
// body, and the subject line.
type templateSet struct {
	html    *htmltemplate.Template
	plain   *texttemplate.Template
	subject *texttemplate.Template
}

// loadTemplates parses html.template and plain.template from dir and the
// subject template from the request (or the built-in default). Missing or
// unparsable templates are configuration errors and fatal for the run.
func loadTemplates(dir, subject string) (*templateSet, error) {
	htmlSrc, err := os.ReadFile(filepath.Join(dir, "html.template"))
	if err != nil {
		return nil, fmt.Errorf("HTML template missing: %w", err)
	}
	plainSrc, err := os.ReadFile(filepath.Join(dir, "plain.template"))
	if err != nil {
		return nil, fmt.Errorf("PLAIN template missing: %w", err)
	}
	if subject == "" {
		subject = defaultSubject
	}

	set := &templateSet{}
	if set.html, err = htmltemplate.New("html").Parse(string(htmlSrc)); err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	if set.plain, err = texttemplate.New("plain").Parse(string(plainSrc)); err != nil {
		return nil, fmt.Errorf("parse plain template: %w", err)
	}
	if set.subject, err = texttemplate.New("subject").Parse(subject); err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	return set, nil
}

func (t *templateSet) render(fields map[string]any) (html, plain, subject string, err error) {
	var buf bytes.Buffer
	if err = t.html.Execute(&buf, fields); err != nil {
		return "", "", "", fmt.Errorf("render html template: %w", err)
	}
	html = buf.String()

	buf.Reset()
	if err = t.plain.Execute(&buf, fields); err != nil {
		return "", "", "", fmt.Errorf("render plain template: %w", err)
	}
	plain = buf.String()

	buf.Reset()
	if err = t.subject.Execute(&buf, fields); err != nil {
		return "", "", "", fmt.Errorf("render subject template: %w", err)
	}
	subject = buf.String()

	return html, plain, subject, nil
}
