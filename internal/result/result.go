package result

// Diagnostic types.
const (
	TypeValidation = "validation_error"
	TypeImport     = "import_error"
	TypeLint       = "lint_error"
	TypeCatalog    = "catalog_warning"
	TypePort       = "port_warning"
	TypeName       = "name_warning"
)

// Error represents a validation or generation error.
type Error struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	NodeID     int64  `json:"node_id,omitempty"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Warning represents a non-fatal finding; the artifacts are still produced.
type Warning struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	NodeID     int64  `json:"node_id,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewWarning returns a warning with severity set.
func NewWarning(typ string, nodeID int64, message, suggestion string) Warning {
	return Warning{Type: typ, Severity: "warning", NodeID: nodeID, Message: message, Suggestion: suggestion}
}

// Report is the outcome of compiling a document: generated files by path
// plus diagnostics.
type Report struct {
	Success  bool              `json:"success"`
	Files    map[string][]byte `json:"-"`
	Errors   []Error           `json:"errors,omitempty"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// Fail records err and marks the report unsuccessful.
func (r *Report) Fail(err Error) {
	if err.Severity == "" {
		err.Severity = "error"
	}
	r.Errors = append(r.Errors, err)
	r.Success = false
}
