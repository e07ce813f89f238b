package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/go-sprout/sprout"
	"github.com/go-sprout/sprout/group/all"
	"github.com/go-sprout/sprout/registry/crypto"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

// DefaultSummary is the template used for the one paragraph summary after a
// resolution
const DefaultSummary = `{{ if .Targets }}Targets: {{ range $i, $t := .Targets }}{{ if $i }}, {{ end }}{{ $t }}{{ end }}
{{ end }}{{ len .Changes }} changes, {{ len .PretendJobs }} pretend jobs, {{ len .ExecuteJobs }} execute jobs
{{- if .Untaken }}, {{ len .Untaken }} untaken{{ end }}
{{- if .CycleBreaks }}, {{ len .CycleBreaks }} cycle breaks{{ end }}
{{ if .HasErrors }}Errors: {{ len .UnableToMake }} unable to make, {{ len .Unconfirmed }} unconfirmed, {{ len .Unorderable }} unorderable
{{ end }}`

// NewTemplate returns a template with the sprout function registries plus
// toYaml, uuidv7 and tpl
func NewTemplate() *template.Template {
	handler := sprout.New()
	handler.AddGroups(all.RegistryGroup())
	handler.AddRegistry(crypto.NewRegistry())
	tfs := handler.Build()
	tfs["toYaml"] = func(i interface{}) (string, error) {
		buf := new(bytes.Buffer)
		enc := yaml.NewEncoder(buf)
		if err := enc.Encode(i); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	tfs["uuidv7"] = func() string {
		return uuid.Must(uuid.NewV7()).String()
	}

	tpl := template.New("report")
	tfs["tpl"] = tplFun(tpl)
	tpl.Funcs(tfs)

	return tpl
}

// ParseTemplate parses text, or the named file when text starts with '@'
func ParseTemplate(text string) (*template.Template, error) {
	if path, ok := strings.CutPrefix(text, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", path, err)
		}
		text = string(data)
	}
	tmpl, err := NewTemplate().Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl, nil
}

// WriteTemplate renders a report through a template
func WriteTemplate(w io.Writer, tmpl *template.Template, r *Report) error {
	if err := tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func tplFun(parent *template.Template) func(string) (string, error) {
	return func(tpl string) (string, error) {
		if strings.TrimSpace(tpl) == "" {
			return "", nil
		}
		t, err := parent.Clone()
		if err != nil {
			return "", fmt.Errorf("%w: cannot clone template", err)
		}
		t, err = t.Parse(tpl)
		if err != nil {
			return "", fmt.Errorf("%w: cannot parse template", err)
		}

		var buf strings.Builder
		if err = t.Execute(&buf, nil); err != nil {
			return "", fmt.Errorf("%w: error during tpl function execution for %q", err, tpl)
		}

		return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
	}
}
