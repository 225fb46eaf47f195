package formatter

import (
	"encoding/json"
)

// JSONFormatter outputs reports as pretty-printed JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatRun returns the RunReport as indented JSON.
func (f *JSONFormatter) FormatRun(report RunReport) string {
	return marshal(report)
}

// FormatImage returns the ImageReport as indented JSON.
func (f *JSONFormatter) FormatImage(report ImageReport) string {
	return marshal(report)
}

func marshal(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Fallback: should never happen since the reports are fully serializable.
		return `{"error": "failed to marshal report"}`
	}
	return string(data)
}
