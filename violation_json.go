package constraint

import (
	json "github.com/goccy/go-json"
)

// violationJSON is the wire shape of a Violation. Cause is reduced to its
// message.
type violationJSON struct {
	Path       string         `json:"path"`
	Constraint string         `json:"constraint"`
	Message    string         `json:"message"`
	Group      Group          `json:"group,omitempty"`
	Value      any            `json:"value,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
	Cause      string         `json:"cause,omitempty"`
}

// MarshalJSON renders the violation for API responses and logs.
func (v Violation) MarshalJSON() ([]byte, error) {
	out := violationJSON{
		Path:       v.Path,
		Constraint: v.Constraint,
		Message:    v.Message,
		Group:      v.Group,
		Value:      v.Value,
		Params:     v.Params,
	}
	if v.Cause != nil {
		out.Cause = v.Cause.Error()
	}
	return json.Marshal(out)
}
