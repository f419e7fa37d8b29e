package output

import (
	"encoding/json"
	"io"
	"time"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	writer io.Writer
	now    func() time.Time
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w, now: time.Now}
}

// Output represents structured CLI output with a stable schema.
type Output struct {
	Success   bool                   `json:"success"`
	Timestamp string                 `json:"timestamp"`
	Command   string                 `json:"command,omitempty"`
	Data      interface{}            `json:"data,omitempty"`
	Error     *ErrorOutput           `json:"error,omitempty"`
	Summary   map[string]interface{} `json:"summary,omitempty"`
}

// ErrorOutput represents error information in JSON output.
type ErrorOutput struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Write outputs data as JSON.
func (j *JSONFormatter) Write(output Output) error {
	if output.Timestamp == "" {
		output.Timestamp = j.now().UTC().Format(time.RFC3339)
	}
	encoder := json.NewEncoder(j.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// WriteResult writes data with an optional error. A run that failed part way
// still carries its data so the timings are not lost.
func (j *JSONFormatter) WriteResult(cmd string, data interface{}, summary map[string]interface{}, errOut *ErrorOutput) error {
	return j.Write(Output{
		Success: errOut == nil,
		Command: cmd,
		Data:    data,
		Summary: summary,
		Error:   errOut,
	})
}

// WriteSuccess outputs a successful result as JSON.
func (j *JSONFormatter) WriteSuccess(cmd string, data interface{}, summary map[string]interface{}) error {
	return j.WriteResult(cmd, data, summary, nil)
}

// WriteError outputs an error as JSON.
func (j *JSONFormatter) WriteError(cmd string, err error, code, suggestion string) error {
	return j.WriteResult(cmd, nil, nil, &ErrorOutput{
		Message:    err.Error(),
		Code:       code,
		Suggestion: suggestion,
	})
}
