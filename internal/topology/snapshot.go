package topology

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrMissingNodes      = errors.New("snapshot has no nodes field")
	ErrMissingLinks      = errors.New("snapshot has no links field")
	ErrDuplicateNodeID   = errors.New("duplicate node id")
	ErrSelfLink          = errors.New("link connects a node to itself")
	ErrDanglingLink      = errors.New("link references an unknown node")
	ErrDuplicateLink     = errors.New("duplicate link")
)

// ImportError reports a snapshot that could not be applied. The current
// document is never modified when it is returned.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import: %s: %v", e.Reason, e.Err)
	}
	return "import: " + e.Reason
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Marshal encodes t as the pretty-printed {nodes, links} document snapshot.
func Marshal(t Topology) ([]byte, error) {
	if t.Nodes == nil {
		t.Nodes = []Node{}
	}
	if t.Links == nil {
		t.Links = []Link{}
	}
	return json.MarshalIndent(t, "", "  ")
}

// Unmarshal decodes a document snapshot. Both nodes and links must be
// present and the document must satisfy the same rules as one built through
// Model; any violation is an *ImportError.
func Unmarshal(data []byte) (Topology, error) {
	var raw struct {
		Nodes *[]Node `json:"nodes"`
		Links *[]Link `json:"links"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Topology{}, &ImportError{Reason: "file is not a valid snapshot", Err: fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)}
	}
	if raw.Nodes == nil {
		return Topology{}, &ImportError{Reason: "missing nodes", Err: ErrMissingNodes}
	}
	if raw.Links == nil {
		return Topology{}, &ImportError{Reason: "missing links", Err: ErrMissingLinks}
	}

	t := Topology{Nodes: *raw.Nodes, Links: *raw.Links}
	if err := check(t); err != nil {
		return Topology{}, err
	}
	return t.Clone(), nil
}

// check enforces the document invariants an editor session maintains: unique
// ids, known types, unique well-formed names, well-formed ports, and links
// between two distinct existing nodes with no pair repeated. Unnamed nodes
// are allowed and get default names at compile time.
func check(t Topology) error {
	ids := make(map[int64]bool, len(t.Nodes))
	names := make(map[string]int64, len(t.Nodes))
	for _, n := range t.Nodes {
		if ids[n.ID] {
			return &ImportError{Reason: fmt.Sprintf("node id %d appears twice", n.ID), Err: ErrDuplicateNodeID}
		}
		ids[n.ID] = true

		if !n.Type.Valid() {
			return &ImportError{Reason: fmt.Sprintf("node %d has unknown type %q", n.ID, n.Type), Err: ErrInvalidType}
		}
		if n.Name != "" {
			if !namePattern.MatchString(n.Name) {
				err := ValidateName(n.Name)
				if err == nil {
					err = ErrInvalidName
				}
				return &ImportError{Reason: fmt.Sprintf("node %d has invalid name %q", n.ID, n.Name), Err: err}
			}
			if other, dup := names[n.Name]; dup {
				return &ImportError{Reason: fmt.Sprintf("nodes %d and %d are both named %q", other, n.ID, n.Name), Err: ErrDuplicateName}
			}
			names[n.Name] = n.ID
		}
		if n.ServiceConfig != nil {
			if err := ValidatePorts(n.ServiceConfig.Ports); err != nil {
				return &ImportError{Reason: fmt.Sprintf("node %d has an invalid port mapping", n.ID), Err: err}
			}
		}
	}

	for i, l := range t.Links {
		switch {
		case l.From == l.To:
			return &ImportError{Reason: fmt.Sprintf("link %d-%d connects a node to itself", l.From, l.To), Err: ErrSelfLink}
		case !ids[l.From] || !ids[l.To]:
			return &ImportError{Reason: fmt.Sprintf("link %d-%d references an unknown node", l.From, l.To), Err: ErrDanglingLink}
		}
		for _, prev := range t.Links[:i] {
			if prev.Connects(l.From, l.To) {
				return &ImportError{Reason: fmt.Sprintf("nodes %d and %d are linked twice", l.From, l.To), Err: ErrDuplicateLink}
			}
		}
	}
	return nil
}

// Read decodes a document snapshot from r.
func Read(r io.Reader) (Topology, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Topology{}, &ImportError{Reason: "read failed", Err: err}
	}
	return Unmarshal(data)
}
