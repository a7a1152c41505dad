package topology

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNameRequired   = errors.New("name is required")
	ErrInvalidName    = errors.New("invalid name")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrInvalidPort    = errors.New("invalid port mapping")
	ErrInvalidType    = errors.New("invalid node type")
	ErrInvalidOS      = errors.New("invalid operating system")
	ErrUnknownService = errors.New("unknown service")
	ErrNodeNotFound   = errors.New("node not found")
)

var (
	namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)
	portPattern = regexp.MustCompile(`^\d+:\d+$`)
)

// ValidationError reports a rejected add or edit. It names the offending form
// field so the caller can show it inline.
type ValidationError struct {
	Field      string `json:"field"`
	NodeID     int64  `json:"node_id,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Err        error  `json:"-"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateName checks the trimmed name against the container naming rule.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{
			Field: "name", Message: "name is required",
			Suggestion: "Give the node a name", Err: ErrNameRequired,
		}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{
			Field:      "name",
			Message:    fmt.Sprintf("%q must start with a letter and contain only lowercase letters, digits or hyphens (max 32)", name),
			Suggestion: "Use a name like web-1",
			Err:        ErrInvalidName,
		}
	}
	return nil
}

// ValidatePort checks a "host:container" mapping. Empty strings are accepted
// as not yet filled in.
func ValidatePort(port string) error {
	if port == "" || portPattern.MatchString(port) {
		return nil
	}
	return &ValidationError{
		Field:      "ports",
		Message:    fmt.Sprintf("%q is not host:container with numeric ports", port),
		Suggestion: "Use host:container, e.g. 3307:3306",
		Err:        ErrInvalidPort,
	}
}

// ValidatePorts checks every mapping and reports the first bad one by index.
func ValidatePorts(ports []string) error {
	for i, p := range ports {
		if err := ValidatePort(p); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = fmt.Sprintf("ports[%d]", i)
			}
			return err
		}
	}
	return nil
}

// checkUnique rejects name when another node (not self) already uses it.
func checkUnique(t Topology, name string, self int64) error {
	for _, n := range t.Nodes {
		if n.ID != self && n.Name == name {
			return &ValidationError{
				Field: "name", NodeID: self,
				Message:    fmt.Sprintf("a node named %q already exists", name),
				Suggestion: "Use a unique name",
				Err:        ErrDuplicateName,
			}
		}
	}
	return nil
}
