package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/editor"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// nodeValues backs the node form fields. It lives behind a pointer so the
// form keeps writing to it across model copies.
type nodeValues struct {
	Type    string
	Name    string
	OS      string
	Service string
	Env     string
	Ports   string
}

type linkValues struct {
	From int64
	To   int64
}

func nodeValuesFrom(spec topology.NodeSpec) *nodeValues {
	v := &nodeValues{
		Type:    string(spec.Type),
		Name:    spec.Name,
		OS:      spec.OS,
		Service: spec.Service,
	}
	if v.Type == "" {
		v.Type = string(topology.TypeServer)
	}
	if v.OS == "" {
		v.OS = catalog.OSLinux
	}
	if cfg := spec.ServiceConfig; cfg != nil {
		v.Env = formatEnv(cfg.Env)
		v.Ports = strings.Join(cfg.Ports, ", ")
	}
	return v
}

// spec converts the form values. Empty env and ports leave the catalog
// defaults in place.
func (v *nodeValues) spec() topology.NodeSpec {
	s := topology.NodeSpec{
		Type:    topology.NodeType(v.Type),
		Name:    strings.TrimSpace(v.Name),
		OS:      v.OS,
		Service: v.Service,
	}
	env, ports := parseEnv(v.Env), parsePorts(v.Ports)
	if len(env) > 0 || ports != nil {
		s.ServiceConfig = &topology.ServiceConfig{Env: env, Ports: ports}
	}
	return s
}

// parseEnv reads KEY=value pairs separated by newlines or commas.
func parseEnv(s string) map[string]string {
	env := map[string]string{}
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' }) {
		k, v, ok := strings.Cut(strings.TrimSpace(field), "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		env[k] = strings.TrimSpace(v)
	}
	return env
}

func formatEnv(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + env[k]
	}
	return strings.Join(lines, "\n")
}

// parsePorts splits a comma separated list. Nil means none were given.
func parsePorts(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nodeForm(d *editor.Dialog, cat *catalog.Catalog, v *nodeValues, submitErr error) *huh.Form {
	title := "New node"
	if d.Kind == editor.DialogEditNode {
		title = "Edit node"
	}

	services := []huh.Option[string]{huh.NewOption("(none)", "")}
	for _, s := range cat.Services() {
		label := s.Key
		if s.Label != "" {
			label = s.Label
		}
		services = append(services, huh.NewOption(label, s.Key))
	}

	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Type").
			Options(
				huh.NewOption("Server", string(topology.TypeServer)),
				huh.NewOption("Workstation", string(topology.TypeWorkstation)),
				huh.NewOption("Network", string(topology.TypeNetwork)),
				huh.NewOption("Disk", string(topology.TypeDisk)),
			).
			Value(&v.Type),
		huh.NewInput().
			Title("Name").
			Description("letters, digits, '.', '_' and '-'").
			Value(&v.Name).
			Validate(func(s string) error { return topology.ValidateName(strings.TrimSpace(s)) }),
		huh.NewSelect[string]().
			Title("Operating system").
			Description("Servers and workstations only").
			Options(huh.NewOption("Linux", catalog.OSLinux), huh.NewOption("Windows", catalog.OSWindows)).
			Value(&v.OS),
		huh.NewSelect[string]().
			Title("Service").
			Description("Servers only").
			Options(services...).
			Value(&v.Service),
		huh.NewText().
			Title("Environment").
			Description("KEY=value per line; empty keeps the service defaults").
			Lines(4).
			Value(&v.Env),
		huh.NewInput().
			Title("Ports").
			Description("host:container, comma separated").
			Value(&v.Ports).
			Validate(func(s string) error { return topology.ValidatePorts(parsePorts(s)) }),
	}
	if submitErr != nil {
		fields = append([]huh.Field{huh.NewNote().Title("Cannot save").Description(submitErr.Error())}, fields...)
	}
	return huh.NewForm(huh.NewGroup(fields...).Title(title)).WithShowHelp(true)
}

func linkForm(t topology.Topology, v *linkValues) *huh.Form {
	opts := make([]huh.Option[int64], 0, len(t.Nodes))
	for _, n := range t.Nodes {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", nodeLabel(n), n.Type), n.ID))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("From").Options(opts...).Value(&v.From),
			huh.NewSelect[int64]().Title("To").Options(opts...).Value(&v.To),
		).Title("Edit link"),
	).WithShowHelp(true)
}
