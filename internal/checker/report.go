package checker

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// WriteText renders diagnostics one per line: file:line:col: [severity] check: message.
func WriteText(w io.Writer, diags []Diagnostic) error {
	for _, d := range diags {
		if _, err := fmt.Fprintf(w, "%s:%d:%d: [%s] %s: %s\n",
			d.File, d.Line, d.Col, d.Severity, d.Check, d.Message); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON renders diagnostics as a JSON array.
func WriteJSON(w io.Writer, diags []Diagnostic) error {
	if diags == nil {
		diags = []Diagnostic{}
	}
	raw, err := json.MarshalIndent(diags, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
