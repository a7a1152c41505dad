// Package compose renders a deployment plan as a docker-compose manifest
// and checks generated manifests with the compose-spec loader.
package compose

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/diagram-to-compose/composer/internal/plan"
)

const (
	// DefaultVersion is the manifest format version header.
	DefaultVersion = "3.8"
	// NetworkDriver is the driver declared for every network.
	NetworkDriver = "bridge"
	// FileName is the manifest file name.
	FileName = "docker-compose.yml"
	// MediaType identifies the manifest on export.
	MediaType = "text/yaml;charset=utf-8"
)

// Options controls manifest rendering.
type Options struct {
	Version string
}

// Render writes p as a compose manifest: version, services, networks,
// volumes, in that order. Entries keep plan order, so identical plans give
// byte-identical output. Empty networks and volumes sections are omitted.
func Render(p *plan.Plan, opts Options) ([]byte, error) {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}

	root := mapping()
	add(root, "version", quoted(opts.Version))

	services := mapping()
	for _, s := range p.Services {
		add(services, s.Key, serviceNode(s))
	}
	add(root, "services", services)

	if len(p.Networks) > 0 {
		networks := mapping()
		for _, n := range p.Networks {
			add(networks, n, mapping("driver", NetworkDriver))
		}
		add(root, "networks", networks)
	}

	if len(p.Volumes) > 0 {
		volumes := mapping()
		for _, v := range p.Volumes {
			add(volumes, v, null())
		}
		add(root, "volumes", volumes)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func serviceNode(s plan.Service) *yaml.Node {
	n := mapping()
	if s.Build != nil {
		add(n, "build", mapping("context", s.Build.Context, "dockerfile", s.Build.Dockerfile))
	} else {
		add(n, "image", scalar(s.Image))
	}
	add(n, "container_name", scalar(s.ContainerName))

	if len(s.Env) > 0 {
		env := sequence()
		for _, e := range s.Env {
			env.Content = append(env.Content, scalar(e.Name+"="+e.Value))
		}
		add(n, "environment", env)
	}
	if len(s.Ports) > 0 {
		ports := sequence()
		for _, p := range s.Ports {
			ports.Content = append(ports.Content, quoted(p))
		}
		add(n, "ports", ports)
	}
	if len(s.Volumes) > 0 {
		vols := sequence()
		for _, m := range s.Volumes {
			vols.Content = append(vols.Content, scalar(m.Source+":"+m.Target))
		}
		add(n, "volumes", vols)
	}
	if len(s.Networks) > 0 {
		add(n, "networks", list(s.Networks))
	}
	if len(s.DependsOn) > 0 {
		add(n, "depends_on", list(s.DependsOn))
	}
	return n
}

// mapping returns a mapping node, optionally pre-filled with string pairs.
func mapping(kv ...string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(kv); i += 2 {
		add(n, kv[i], scalar(kv[i+1]))
	}
	return n
}

func add(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar(key), value)
}

func sequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func list(items []string) *yaml.Node {
	n := sequence()
	for _, s := range items {
		n.Content = append(n.Content, scalar(s))
	}
	return n
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func quoted(s string) *yaml.Node {
	n := scalar(s)
	n.Style = yaml.DoubleQuotedStyle
	return n
}

func null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}
}
