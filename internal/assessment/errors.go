package assessment

import "errors"

// Sentinel kinds for assessment errors.
var (
	ErrEmptySummary = errors.New("summary is empty")
	ErrCompletion   = errors.New("chat completion failed")
)

// ParseError reports model output that could not be coerced into JSON
// even after extraction. Raw carries the verbatim output for the caller.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "model output is not valid JSON"
}

// SchemaError reports JSON output that parsed but violates the expected
// shape. Parsed carries the decoded value for the caller.
type SchemaError struct {
	Parsed any
}

func (e *SchemaError) Error() string {
	return "model returned invalid schema"
}
