// Package catalog holds the fixed tables of deployable services a server node
// can run: images, default environment and ports, build templates and companion
// entries. A Catalog is immutable once built and is injected into the topology
// model and the compiler, so several documents can use different catalogs in
// one process.
package catalog

import (
	"errors"
	"fmt"
	"slices"
)

// Kind classifies how a catalog service is deployed.
type Kind string

const (
	// KindDatabase services run from a fixed image.
	KindDatabase Kind = "database"
	// KindBroker services run from a fixed image and may pull in a companion entry.
	KindBroker Kind = "broker"
	// KindApplication services are built from source with a generated build file.
	KindApplication Kind = "application"
)

// Operating system identifiers used for base image selection.
const (
	OSLinux   = "linux"
	OSWindows = "windows"
)

var (
	ErrEmptyKey     = errors.New("catalog service key is empty")
	ErrDuplicateKey = errors.New("duplicate catalog service key")
	ErrInvalidKind  = errors.New("invalid catalog service kind")
	ErrNoImage      = errors.New("catalog service has no image")
)

// EnvVar is one entry of an ordered environment template.
type EnvVar struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Companion is an auxiliary manifest entry emitted once per document when at
// least one node runs the owning service.
type Companion struct {
	Name  string   `yaml:"name"`
	Image string   `yaml:"image"`
	Ports []string `yaml:"ports"`
	Env   []EnvVar `yaml:"env"`
	// ConnectVar is injected into every owning service's environment with ConnectAddress.
	ConnectVar     string `yaml:"connect_var"`
	ConnectAddress string `yaml:"connect_address"`
}

// BuildStep is one build-file instruction, e.g. {Op: "RUN", Args: "npm install"}.
type BuildStep struct {
	Op   string `yaml:"op"`
	Args string `yaml:"args"`
}

// BuildTemplate describes a build file for an application service.
type BuildTemplate struct {
	BaseImage  string      `yaml:"base_image"`
	WorkDir    string      `yaml:"workdir"`
	Steps      []BuildStep `yaml:"steps"`
	Expose     int         `yaml:"expose"`
	Entrypoint []string    `yaml:"entrypoint"`
	Cmd        []string    `yaml:"cmd"`
}

func (b BuildTemplate) clone() BuildTemplate {
	b.Steps = slices.Clone(b.Steps)
	b.Entrypoint = slices.Clone(b.Entrypoint)
	b.Cmd = slices.Clone(b.Cmd)
	return b
}

// Service is a catalog entry selectable on a server node.
type Service struct {
	Key       string         `yaml:"key"`
	Label     string         `yaml:"label"`
	Image     string         `yaml:"image"`
	Kind      Kind           `yaml:"kind"`
	Env       []EnvVar       `yaml:"env"`
	Ports     []string       `yaml:"ports"`
	Build     *BuildTemplate `yaml:"build,omitempty"`
	Companion *Companion     `yaml:"companion,omitempty"`
}

// IsApplication reports whether the service is built from source.
func (s Service) IsApplication() bool { return s.Kind == KindApplication }

// DefaultEnv returns a fresh map of the service's environment template.
func (s Service) DefaultEnv() map[string]string {
	env := make(map[string]string, len(s.Env))
	for _, e := range s.Env {
		env[e.Name] = e.Value
	}
	return env
}

// DefaultPorts returns a fresh copy of the service's default port mappings.
func (s Service) DefaultPorts() []string {
	ports := slices.Clone(s.Ports)
	if ports == nil {
		ports = []string{}
	}
	return ports
}

// EnvOrder returns the template's environment keys in declaration order.
func (s Service) EnvOrder() []string {
	keys := make([]string, len(s.Env))
	for i, e := range s.Env {
		keys[i] = e.Name
	}
	return keys
}

func (s Service) clone() Service {
	s.Env = slices.Clone(s.Env)
	s.Ports = slices.Clone(s.Ports)
	if s.Build != nil {
		b := s.Build.clone()
		s.Build = &b
	}
	if s.Companion != nil {
		c := *s.Companion
		c.Ports = slices.Clone(c.Ports)
		c.Env = slices.Clone(c.Env)
		s.Companion = &c
	}
	return s
}

// Catalog is an immutable set of services plus base-image tables.
type Catalog struct {
	services   map[string]Service
	order      []string
	baseImages map[string]string
	fallbacks  map[string]BuildTemplate
}

// New validates services and returns a catalog. Nil baseImages or fallbacks
// fall back to the built-in tables.
func New(services []Service, baseImages map[string]string, fallbacks map[string]BuildTemplate) (*Catalog, error) {
	c := &Catalog{
		services:   make(map[string]Service, len(services)),
		baseImages: defaultBaseImages(),
		fallbacks:  defaultFallbackBuilds(),
	}
	for os, img := range baseImages {
		c.baseImages[os] = img
	}
	for os, tpl := range fallbacks {
		c.fallbacks[os] = tpl.clone()
	}
	for i, s := range services {
		if s.Key == "" {
			return nil, fmt.Errorf("service at index %d: %w", i, ErrEmptyKey)
		}
		if _, dup := c.services[s.Key]; dup {
			return nil, fmt.Errorf("%s: %w", s.Key, ErrDuplicateKey)
		}
		switch s.Kind {
		case KindDatabase, KindBroker, KindApplication:
		default:
			return nil, fmt.Errorf("%s: kind %q: %w", s.Key, s.Kind, ErrInvalidKind)
		}
		if s.Image == "" && s.Kind != KindApplication {
			return nil, fmt.Errorf("%s: %w", s.Key, ErrNoImage)
		}
		c.services[s.Key] = s.clone()
		c.order = append(c.order, s.Key)
	}
	return c, nil
}

// Lookup returns a copy of the service registered under key.
func (c *Catalog) Lookup(key string) (Service, bool) {
	s, ok := c.services[key]
	if !ok {
		return Service{}, false
	}
	return s.clone(), true
}

// Keys returns service keys in catalog order.
func (c *Catalog) Keys() []string {
	return slices.Clone(c.order)
}

// Services returns copies of every service in catalog order.
func (c *Catalog) Services() []Service {
	out := make([]Service, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.services[k].clone())
	}
	return out
}

// BaseImage returns the bare OS image for os; anything but windows is linux.
func (c *Catalog) BaseImage(os string) string {
	if os == OSWindows {
		return c.baseImages[OSWindows]
	}
	return c.baseImages[OSLinux]
}

// FallbackBuild returns the minimal build template used when an application
// service has no template of its own.
func (c *Catalog) FallbackBuild(os string) BuildTemplate {
	if os == OSWindows {
		return c.fallbacks[OSWindows].clone()
	}
	return c.fallbacks[OSLinux].clone()
}

// BuildFor returns the build template for an application service key,
// falling back to the generic OS template for unknown keys.
func (c *Catalog) BuildFor(key, os string) BuildTemplate {
	if s, ok := c.services[key]; ok && s.Build != nil {
		return s.Build.clone()
	}
	return c.FallbackBuild(os)
}
