package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"text/tabwriter"

	"catalog/selector/internal/domain"
)

const noDataMessage = "No data submitted yet."

// RenderJSON returns the result as a two-space indented JSON object in label order.
func RenderJSON(result *domain.SubmissionResult) ([]byte, error) {
	if result == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("failed to encode submission result: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// RenderTable writes a plain-text Key/Value table.
func RenderTable(w io.Writer, result *domain.SubmissionResult) error {
	if result == nil {
		_, err := fmt.Fprintln(w, noDataMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Key\tValue")
	fmt.Fprintln(tw, "---\t-----")
	for _, f := range result.Fields() {
		fmt.Fprintf(tw, "%s\t%s\n", f.Label, f.Value)
	}
	return tw.Flush()
}

var htmlView = template.Must(template.New("result").Parse(`<section class="submitted-data">
{{- if .}}
<h3>Submitted Data</h3>
<table>
<thead><tr><th>Key</th><th>Value</th></tr></thead>
<tbody>
{{- range .}}
<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{- end}}
</tbody>
</table>
{{- else}}
<p class="empty">` + noDataMessage + `</p>
{{- end}}
</section>
`))

// RenderHTML writes the result as an HTML table, or a placeholder when result is nil.
func RenderHTML(w io.Writer, result *domain.SubmissionResult) error {
	if err := htmlView.Execute(w, result.Fields()); err != nil {
		return fmt.Errorf("failed to render submission table: %w", err)
	}
	return nil
}
