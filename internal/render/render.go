// Package render merges the documentation-data payload into a text
// template and writes the result atomically, so a failed render never
// leaves a half-written document behind.
package render

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"text/template"
	"time"
)

// dockerLinkRe parses Docker-link style values such as
// "tcp://172.17.0.5:5432" into proto/addr/port parts.
var dockerLinkRe = regexp.MustCompile(`^(.+)://(.+):(.+)$`)

// Funcs returns the helper functions available inside templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"env": os.Getenv,
		"now": func() string { return time.Now().UTC().Format(time.RFC3339) },
		"dockerLink": func(value string) (map[string]string, error) {
			m := dockerLinkRe.FindStringSubmatch(value)
			if m == nil {
				return nil, fmt.Errorf("not a docker link value: %s", value)
			}
			return map[string]string{"proto": m[1], "addr": m[2], "port": m[3]}, nil
		},
	}
}

// RenderFile renders the template at templatePath against data.
// Missing keys are errors: templates must not silently swallow a
// payload mismatch.
func RenderFile(templatePath string, data map[string]any) ([]byte, error) {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Render(string(raw), data)
}

// Render renders template source against data.
func Render(source string, data map[string]any) ([]byte, error) {
	tpl, err := template.New("doc").Funcs(Funcs()).Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return buf.Bytes(), nil
}
