package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

// Formats lists the values accepted by Write
var Formats = []string{"table", "json", "yaml", "summary"}

// Write renders a report in the named format
func Write(w io.Writer, format string, r *Report) error {
	switch strings.ToLower(format) {
	case "table", "":
		return WriteTable(w, r)
	case "json":
		return WriteJSON(w, r)
	case "yaml":
		return WriteYAML(w, r)
	case "summary":
		tmpl, err := ParseTemplate(DefaultSummary)
		if err != nil {
			return err
		}
		return WriteTemplate(w, tmpl, r)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, r *Report) error {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err := w.Write(buffer.Bytes())
	return err
}

// WriteYAML writes the report as YAML
func WriteYAML(w io.Writer, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteTable writes one table per non-empty section. Sections that stop the
// plan from going ahead get a red heading.
func WriteTable(w io.Writer, r *Report) error {
	sections := []struct {
		title   string
		entries []Entry
		heading *color.Color
	}{
		{"These are the actions I will take, in order", r.Changes, headingColor},
		{"I cannot proceed without being permitted to do the following", r.Unconfirmed, errorColor},
		{"I could not find a suitable candidate for", r.UnableToMake, errorColor},
		{"I could not find an order for", r.Unorderable, errorColor},
		{"I did not take the following suggestions", r.Untaken, warnColor},
		{"I could not have taken the following suggestions anyway", r.UntakenUnable, warnColor},
	}

	wrote := false
	for _, s := range sections {
		if len(s.entries) == 0 {
			continue
		}
		if wrote {
			fmt.Fprintln(w)
		}
		wrote = true
		s.heading.Fprintln(w, s.title+":")
		if err := entryTable(w, s.entries); err != nil {
			return err
		}
	}

	if len(r.CycleBreaks) > 0 {
		if wrote {
			fmt.Fprintln(w)
		}
		wrote = true
		warnColor.Fprintln(w, "I had to break the following cycles:")
		table := newTable(w)
		table.Header("REQUIRER", "REQUIRED", "EDGE")
		data := [][]any{}
		for _, cb := range r.CycleBreaks {
			data = append(data, []any{cb.Requirer, cb.Required, cb.Properties})
		}
		table.Bulk(data)
		if err := table.Render(); err != nil {
			return err
		}
	}

	if len(r.ExecuteJobs) > 0 {
		if wrote {
			fmt.Fprintln(w)
		}
		wrote = true
		headingColor.Fprintln(w, "Jobs:")
		if err := JobTable(w, r.ExecuteJobs); err != nil {
			return err
		}
	}

	if !wrote {
		fmt.Fprintln(w, "Nothing to do.")
	}
	return nil
}

// JobTable writes execute jobs with their requirements
func JobTable(w io.Writer, jobs []JobEntry) error {
	table := newTable(w)
	table.Header("#", "JOB", "REQUIRES", "STATE")
	data := [][]any{}
	for _, j := range jobs {
		data = append(data, []any{j.Number, j.Job, strings.Join(j.Requires, ", "), j.State})
	}
	table.Bulk(data)
	return table.Render()
}

func entryTable(w io.Writer, entries []Entry) error {
	table := newTable(w)
	table.Header("RESOLVENT", "DECISION", "REASONS", "NOTES")
	data := [][]any{}
	for _, e := range entries {
		notes := append(append([]string{}, e.Confirmations...), e.Unsuitable...)
		data = append(data, []any{e.Resolvent, e.Decision, strings.Join(e.Reasons, "\n"), strings.Join(notes, "\n")})
	}
	table.Bulk(data)
	return table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewTable(w)
	table.Configure(func(config *tablewriter.Config) {
		config.Row.Alignment.Global = tw.AlignLeft
	})
	return table
}
