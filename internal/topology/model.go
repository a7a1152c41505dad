// Package topology is the node/link document model. Every mutation returns a
// new Topology and leaves its input untouched; add and edit either fully
// succeed or fail with a *ValidationError.
package topology

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/geometry"
)

// NodeSpec carries the user-supplied attributes of a node being added or edited.
type NodeSpec struct {
	Type          NodeType
	Name          string
	OS            string
	Service       string
	ServiceConfig *ServiceConfig
}

// SpecOf returns the editable attributes of n, for pre-filling an edit dialog.
func SpecOf(n Node) NodeSpec {
	return NodeSpec{
		Type:          n.Type,
		Name:          n.Name,
		OS:            n.OS,
		Service:       n.Service,
		ServiceConfig: n.ServiceConfig.Clone(),
	}
}

// Model applies validated node mutations using an injected catalog.
type Model struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithClock overrides the clock used to derive node ids.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// NewModel returns a model validating services against cat.
func NewModel(cat *catalog.Catalog, opts ...Option) *Model {
	m := &Model{catalog: cat, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Catalog returns the catalog the model validates against.
func (m *Model) Catalog() *catalog.Catalog {
	return m.catalog
}

// DefaultConfig returns the template service configuration for a catalog key.
func (m *Model) DefaultConfig(service string) (*ServiceConfig, bool) {
	svc, ok := m.catalog.Lookup(service)
	if !ok {
		return nil, false
	}
	return &ServiceConfig{Env: svc.DefaultEnv(), Ports: svc.DefaultPorts()}, true
}

// AddNode validates spec and appends a new node at position with a fresh id.
func (m *Model) AddNode(t Topology, spec NodeSpec, at geometry.Point) (Topology, Node, error) {
	n, err := m.build(t, spec, 0)
	if err != nil {
		return t, Node{}, err
	}
	n.ID = m.nextID(t)
	n.X, n.Y = at.X, at.Y

	out := t.Clone()
	out.Nodes = append(out.Nodes, n)
	return out, n.Clone(), nil
}

// EditNode validates spec and replaces the attributes of node id, keeping its
// id and position. The node's own name does not count as a duplicate.
func (m *Model) EditNode(t Topology, id int64, spec NodeSpec) (Topology, Node, error) {
	i := t.indexOf(id)
	if i < 0 {
		return t, Node{}, &ValidationError{
			NodeID: id, Message: fmt.Sprintf("node %d does not exist", id), Err: ErrNodeNotFound,
		}
	}
	n, err := m.build(t, spec, id)
	if err != nil {
		return t, Node{}, err
	}
	n.ID = id
	n.X, n.Y = t.Nodes[i].X, t.Nodes[i].Y

	out := t.Clone()
	out.Nodes[i] = n
	return out, n.Clone(), nil
}

// build validates spec and normalizes it into node attributes: os only on
// service nodes, service and its config only on servers.
func (m *Model) build(t Topology, spec NodeSpec, self int64) (Node, error) {
	name := strings.TrimSpace(spec.Name)
	if err := ValidateName(name); err != nil {
		setNodeID(err, self)
		return Node{}, err
	}
	if err := checkUnique(t, name, self); err != nil {
		return Node{}, err
	}
	if !spec.Type.Valid() {
		return Node{}, &ValidationError{
			Field: "type", NodeID: self,
			Message:    fmt.Sprintf("unknown node type %q", spec.Type),
			Suggestion: "Use one of: server, workstation, network, disk",
			Err:        ErrInvalidType,
		}
	}

	n := Node{Type: spec.Type, Name: name}
	if !spec.Type.IsService() {
		return n, nil
	}
	if spec.OS != catalog.OSLinux && spec.OS != catalog.OSWindows {
		return Node{}, &ValidationError{
			Field: "os", NodeID: self,
			Message:    fmt.Sprintf("operating system %q is not supported", spec.OS),
			Suggestion: "Use linux or windows",
			Err:        ErrInvalidOS,
		}
	}
	n.OS = spec.OS
	if spec.Type != TypeServer || spec.Service == "" {
		return n, nil
	}

	cfg, ok := m.DefaultConfig(spec.Service)
	if !ok {
		return Node{}, &ValidationError{
			Field: "service", NodeID: self,
			Message:    fmt.Sprintf("service %q is not in the catalog", spec.Service),
			Suggestion: "Use one of: " + strings.Join(m.catalog.Keys(), ", "),
			Err:        ErrUnknownService,
		}
	}
	if spec.ServiceConfig != nil {
		maps.Copy(cfg.Env, spec.ServiceConfig.Env)
		if spec.ServiceConfig.Ports != nil {
			cfg.Ports = slices.Clone(spec.ServiceConfig.Ports)
		}
	}
	if err := ValidatePorts(cfg.Ports); err != nil {
		setNodeID(err, self)
		return Node{}, err
	}
	n.Service = spec.Service
	n.ServiceConfig = cfg
	return n, nil
}

func setNodeID(err error, id int64) {
	if ve, ok := err.(*ValidationError); ok {
		ve.NodeID = id
	}
}

// nextID derives an id from the clock, bumped past every existing id so ids
// stay unique even when two nodes are created within one millisecond.
func (m *Model) nextID(t Topology) int64 {
	id := m.now().UnixMilli()
	for _, n := range t.Nodes {
		if n.ID >= id {
			id = n.ID + 1
		}
	}
	return id
}

// DeleteNode removes node id and prunes every link referencing it.
// Unknown ids leave t unchanged.
func (t Topology) DeleteNode(id int64) (Topology, bool) {
	i := t.indexOf(id)
	if i < 0 {
		return t, false
	}
	out := Topology{Nodes: make([]Node, 0, len(t.Nodes)-1), Links: make([]Link, 0, len(t.Links))}
	for _, n := range t.Nodes {
		if n.ID != id {
			out.Nodes = append(out.Nodes, n.Clone())
		}
	}
	for _, l := range t.Links {
		if !l.Touches(id) {
			out.Links = append(out.Links, l)
		}
	}
	return out, true
}

// MoveNode sets the position of node id. It never fails; unknown ids are ignored.
func (t Topology) MoveNode(id int64, x, y float64) Topology {
	i := t.indexOf(id)
	if i < 0 {
		return t
	}
	out := Topology{Nodes: slices.Clone(t.Nodes), Links: t.Links}
	out.Nodes[i].X, out.Nodes[i].Y = x, y
	return out
}

// canLink reports whether from-to would be a valid new link.
func (t Topology) canLink(from, to int64) bool {
	if from == to || t.indexOf(from) < 0 || t.indexOf(to) < 0 {
		return false
	}
	return !t.HasLink(from, to)
}

// AddLink appends {from, to}. Self links, duplicate pairs and unknown ids are
// silently ignored; the bool reports whether anything changed.
func (t Topology) AddLink(from, to int64) (Topology, bool) {
	if !t.canLink(from, to) {
		return t, false
	}
	out := t.Clone()
	out.Links = append(out.Links, Link{From: from, To: to})
	return out, true
}

// DeleteLink removes the link joining a and b in either direction.
func (t Topology) DeleteLink(a, b int64) (Topology, bool) {
	i := slices.IndexFunc(t.Links, func(l Link) bool { return l.Connects(a, b) })
	if i < 0 {
		return t, false
	}
	out := t.Clone()
	out.Links = slices.Delete(out.Links, i, i+1)
	return out, true
}

// EditLink replaces the endpoints of the link matching old (unordered). The
// new pair must satisfy the same rules as AddLink, apart from the link being
// edited itself; otherwise nothing changes.
func (t Topology) EditLink(old Link, from, to int64) (Topology, bool) {
	i := slices.IndexFunc(t.Links, func(l Link) bool { return l.Connects(old.From, old.To) })
	if i < 0 {
		return t, false
	}
	rest, _ := t.DeleteLink(old.From, old.To)
	if !rest.canLink(from, to) {
		return t, false
	}
	out := t.Clone()
	out.Links[i] = Link{From: from, To: to}
	return out, true
}
