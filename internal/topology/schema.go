package topology

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/diagram-to-compose/composer/internal/geometry"
)

// NodeType is the kind of element a node represents.
type NodeType string

const (
	TypeServer      NodeType = "server"
	TypeWorkstation NodeType = "workstation"
	TypeNetwork     NodeType = "network"
	TypeDisk        NodeType = "disk"
)

// Valid reports whether t is one of the four known node types.
func (t NodeType) Valid() bool {
	switch t {
	case TypeServer, TypeWorkstation, TypeNetwork, TypeDisk:
		return true
	}
	return false
}

// IsService reports whether nodes of this type become deployable units.
func (t NodeType) IsService() bool {
	return t == TypeServer || t == TypeWorkstation
}

// Topology is the complete, serializable state of a document.
type Topology struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is a point in the topology.
type Node struct {
	ID            int64          `json:"id"`
	X             float64        `json:"x"`
	Y             float64        `json:"y"`
	Type          NodeType       `json:"type"`
	Name          string         `json:"name,omitempty"`
	OS            string         `json:"os,omitempty"`
	Service       string         `json:"service,omitempty"`
	ServiceConfig *ServiceConfig `json:"serviceConfig,omitempty"`
}

// ServiceConfig holds the editable environment and port mappings of a node's service.
type ServiceConfig struct {
	Env   map[string]string `json:"env"`
	Ports []string          `json:"ports"`
}

// Link is an undirected edge between two node ids.
type Link struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Empty returns a topology with no nodes and no links.
func Empty() Topology {
	return Topology{Nodes: []Node{}, Links: []Link{}}
}

// Position returns the node's canvas position.
func (n Node) Position() geometry.Point {
	return geometry.Point{X: n.X, Y: n.Y}
}

// Clone returns a deep copy of c.
func (c *ServiceConfig) Clone() *ServiceConfig {
	if c == nil {
		return nil
	}
	out := &ServiceConfig{Env: maps.Clone(c.Env), Ports: slices.Clone(c.Ports)}
	if out.Env == nil {
		out.Env = map[string]string{}
	}
	if out.Ports == nil {
		out.Ports = []string{}
	}
	return out
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.ServiceConfig = n.ServiceConfig.Clone()
	return n
}

// Touches reports whether id is one of the link's endpoints.
func (l Link) Touches(id int64) bool {
	return l.From == id || l.To == id
}

// Connects reports whether the link joins a and b in either direction.
func (l Link) Connects(a, b int64) bool {
	return (l.From == a && l.To == b) || (l.From == b && l.To == a)
}

// Other returns the endpoint opposite id.
func (l Link) Other(id int64) int64 {
	if l.From == id {
		return l.To
	}
	return l.From
}

// Clone returns a deep copy of t. The copy never aliases t's slices, maps or configs.
func (t Topology) Clone() Topology {
	out := Topology{
		Nodes: make([]Node, len(t.Nodes)),
		Links: make([]Link, len(t.Links)),
	}
	for i, n := range t.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Links, t.Links)
	return out
}

// NodeByID returns the node with the given id.
func (t Topology) NodeByID(id int64) (Node, bool) {
	if i := t.indexOf(id); i >= 0 {
		return t.Nodes[i], true
	}
	return Node{}, false
}

func (t Topology) indexOf(id int64) int {
	return slices.IndexFunc(t.Nodes, func(n Node) bool { return n.ID == id })
}

// HasLink reports whether a and b are already linked in either direction.
func (t Topology) HasLink(a, b int64) bool {
	return slices.ContainsFunc(t.Links, func(l Link) bool { return l.Connects(a, b) })
}

// LinksOf returns the links touching id, in link order.
func (t Topology) LinksOf(id int64) []Link {
	var out []Link
	for _, l := range t.Links {
		if l.Touches(id) {
			out = append(out, l)
		}
	}
	return out
}

// NodeAt returns the first node whose center is within radius of p.
func (t Topology) NodeAt(p geometry.Point, radius float64) (Node, bool) {
	i := geometry.HitTest(t.Nodes, Node.Position, p, radius)
	if i < 0 {
		return Node{}, false
	}
	return t.Nodes[i], true
}

// LinkAt returns the first link whose segment passes within tolerance of p.
// Links with a missing endpoint are skipped.
func (t Topology) LinkAt(p geometry.Point, tolerance float64) (Link, bool) {
	for _, l := range t.Links {
		from, ok1 := t.NodeByID(l.From)
		to, ok2 := t.NodeByID(l.To)
		if !ok1 || !ok2 {
			continue
		}
		if geometry.PointToSegmentDistance(p, from.Position(), to.Position()) < tolerance {
			return l, true
		}
	}
	return Link{}, false
}

// UnmarshalJSON accepts both the current node shape and the legacy one, where
// the service lived in "services" (a string or a one-element list) and its
// configuration in "serviceConfigs" keyed by service.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var aux struct {
		plain
		Services       json.RawMessage           `json:"services"`
		ServiceConfigs map[string]*ServiceConfig `json:"serviceConfigs"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = Node(aux.plain)
	if n.Service == "" && len(aux.Services) > 0 {
		var one string
		var many []string
		switch {
		case json.Unmarshal(aux.Services, &one) == nil:
			n.Service = one
		case json.Unmarshal(aux.Services, &many) == nil && len(many) > 0:
			n.Service = many[0]
		}
	}
	if n.ServiceConfig == nil && n.Service != "" && aux.ServiceConfigs != nil {
		n.ServiceConfig = aux.ServiceConfigs[n.Service].Clone()
	}
	return nil
}
