// Package plan resolves a topology into a deployment plan: one entry per
// service node plus catalog companions, the declared networks and volumes,
// and the build files application services need. Renderers for the compose
// manifest, build files and Terraform all consume the same Plan.
package plan

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/result"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// Role says how a service entry gets its image.
type Role string

const (
	RoleOS        Role = "os"        // bare OS base image
	RoleImage     Role = "image"     // fixed catalog image
	RoleBuild     Role = "build"     // built from a per-service context
	RoleCompanion Role = "companion" // injected by a catalog service
)

// DataDir is the mount root for disk volumes inside containers.
const DataDir = "/data"

// Plan is the resolved deployment of a topology.
type Plan struct {
	Services []Service
	Networks []string
	Volumes  []string
	Builds   []Build
	Warnings []result.Warning
}

// Service is one manifest entry.
type Service struct {
	Key           string
	ContainerName string
	NodeID        int64
	Role          Role
	Image         string
	Build         *BuildContext
	Env           []catalog.EnvVar
	Ports         []string
	Volumes       []Mount
	Networks      []string
	DependsOn     []string
}

// BuildContext points a build entry at its generated build file.
type BuildContext struct {
	Context    string
	Dockerfile string
}

// Mount attaches a named volume.
type Mount struct {
	Source string
	Target string
}

// Build is a build-file artifact for one application entry.
type Build struct {
	Dir      string
	Service  string
	NodeID   int64
	Template catalog.BuildTemplate
}

// Dockerfile is the build file name inside each build context.
const Dockerfile = "Dockerfile"

// Path returns the build file's path relative to the manifest.
func (b Build) Path() string {
	return b.Dir + "/" + Dockerfile
}

// VolumeName is the synthesized volume for a service/disk pair.
func VolumeName(serviceName string, diskID int64) string {
	return fmt.Sprintf("vol_%s_%d", serviceName, diskID)
}

// names holds display names for the three node groups.
type names struct {
	service map[int64]string
	network map[int64]string
}

// displayNames assigns every node its name, or a type-and-ordinal default
// counted within its group. A default that another node already uses as its
// name gets a numeric suffix.
func displayNames(t topology.Topology) names {
	n := names{service: map[int64]string{}, network: map[int64]string{}}
	taken := keys{}
	for _, node := range t.Nodes {
		if node.Name != "" {
			taken[node.Name] = true
		}
	}
	svc, net := 0, 0
	for _, node := range t.Nodes {
		switch {
		case node.Type.IsService():
			svc++
			if node.Name == "" {
				n.service[node.ID] = taken.claim(fmt.Sprintf("%s%d", node.Type, svc))
			} else {
				n.service[node.ID] = node.Name
			}
		case node.Type == topology.TypeNetwork:
			net++
			if node.Name == "" {
				n.network[node.ID] = taken.claim(fmt.Sprintf("net%d", net))
			} else {
				n.network[node.ID] = node.Name
			}
		}
	}
	return n
}

// keys is a set of names already in use.
type keys map[string]bool

// claim marks and returns base, or base-2, base-3 and so on when base is
// already in use.
func (k keys) claim(base string) string {
	name := base
	for i := 2; k[name]; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	k[name] = true
	return name
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// adjacency returns the distinct networks and volumes linked to a service
// node, in link order.
func adjacency(t topology.Topology, byID map[int64]topology.Node, nm names, node topology.Node) (networks []string, volumes []string) {
	self := nm.service[node.ID]
	for _, l := range t.LinksOf(node.ID) {
		other, ok := byID[l.Other(node.ID)]
		if !ok {
			continue
		}
		switch other.Type {
		case topology.TypeNetwork:
			if name := nm.network[other.ID]; !slices.Contains(networks, name) {
				networks = append(networks, name)
			}
		case topology.TypeDisk:
			if vol := VolumeName(self, other.ID); !slices.Contains(volumes, vol) {
				volumes = append(volumes, vol)
			}
		}
	}
	return networks, volumes
}

func mounts(volumes []string) []Mount {
	if len(volumes) == 0 {
		return nil
	}
	out := make([]Mount, len(volumes))
	for i, v := range volumes {
		out[i] = Mount{Source: v, Target: DataDir + "/" + v}
	}
	return out
}

// environment orders env by the catalog template first, then remaining keys
// sorted, so output is stable regardless of map iteration.
func environment(svc catalog.Service, env map[string]string) []catalog.EnvVar {
	if len(env) == 0 {
		return nil
	}
	out := make([]catalog.EnvVar, 0, len(env))
	seen := make(map[string]bool, len(env))
	for _, k := range svc.EnvOrder() {
		if v, ok := env[k]; ok {
			out = append(out, catalog.EnvVar{Name: k, Value: v})
			seen[k] = true
		}
	}
	var extra []string
	for k := range env {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, catalog.EnvVar{Name: k, Value: env[k]})
	}
	return out
}

// setEnv overrides or appends name.
func setEnv(env []catalog.EnvVar, name, value string) []catalog.EnvVar {
	for i := range env {
		if env[i].Name == name {
			env[i].Value = value
			return env
		}
	}
	return append(env, catalog.EnvVar{Name: name, Value: value})
}

// nonEmpty drops blank port mappings, which mean "not filled in yet".
func nonEmpty(ports []string) []string {
	var out []string
	for _, p := range ports {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

type companionUse struct {
	spec     catalog.Companion
	networks []string
}

// Resolve builds the plan for t. It is pure: the same topology, including
// node order, always yields the same plan.
func Resolve(cat *catalog.Catalog, t topology.Topology) *Plan {
	p := &Plan{}
	nm := displayNames(t)
	byID := make(map[int64]topology.Node, len(t.Nodes))
	for _, n := range t.Nodes {
		byID[n.ID] = n
	}

	var companions []*companionUse
	usedVolumes := map[string]bool{}
	used := reservedKeys(cat, t)
	claim := func(node topology.Node, key string) string {
		got := used.claim(key)
		if got != key {
			p.Warnings = append(p.Warnings, result.NewWarning(result.TypeName, node.ID,
				fmt.Sprintf("service key %q is already used; emitting %q", key, got),
				"Rename the node so its service key is unique"))
		}
		return got
	}

	for _, node := range t.Nodes {
		if !node.Type.IsService() {
			continue
		}
		name := nm.service[node.ID]
		networks, volumes := adjacency(t, byID, nm, node)
		for _, v := range volumes {
			if !usedVolumes[v] {
				usedVolumes[v] = true
				p.Volumes = append(p.Volumes, v)
			}
		}

		svc, known := catalog.Service{}, false
		if node.Type == topology.TypeServer && node.Service != "" {
			svc, known = cat.Lookup(node.Service)
			if !known {
				p.Warnings = append(p.Warnings, result.NewWarning(result.TypeCatalog, node.ID,
					fmt.Sprintf("service %q is not in the catalog; emitting a bare %s image", node.Service, orDefault(node.OS, catalog.OSLinux)),
					"Pick a service from the catalog or clear it"))
			}
		}

		if !known {
			key := claim(node, name)
			p.Services = append(p.Services, Service{
				Key: key, ContainerName: key, NodeID: node.ID, Role: RoleOS,
				Image:    cat.BaseImage(node.OS),
				Volumes:  mounts(volumes),
				Networks: networks,
			})
			continue
		}

		key := claim(node, name+"-"+svc.Key)
		entry := Service{
			Key: key, ContainerName: key, NodeID: node.ID, Role: RoleImage,
			Image:    svc.Image,
			Volumes:  mounts(volumes),
			Networks: networks,
		}
		if cfg := node.ServiceConfig; cfg != nil {
			entry.Env = environment(svc, cfg.Env)
			entry.Ports = nonEmpty(cfg.Ports)
		}

		if svc.IsApplication() {
			entry.Role = RoleBuild
			entry.Image = ""
			entry.Build = &BuildContext{Context: "./" + key, Dockerfile: Dockerfile}
			p.Builds = append(p.Builds, Build{
				Dir: key, Service: svc.Key, NodeID: node.ID,
				Template: cat.BuildFor(svc.Key, node.OS),
			})
		}

		if c := svc.Companion; c != nil {
			use := findCompanion(companions, c.Name)
			if use == nil {
				use = &companionUse{spec: *c}
				companions = append(companions, use)
			}
			for _, n := range networks {
				if !slices.Contains(use.networks, n) {
					use.networks = append(use.networks, n)
				}
			}
			if c.ConnectVar != "" {
				entry.Env = setEnv(entry.Env, c.ConnectVar, c.ConnectAddress)
			}
			entry.DependsOn = append(entry.DependsOn, c.Name)
		}

		p.Services = append(p.Services, entry)
	}

	for _, c := range companions {
		p.Services = append(p.Services, Service{
			Key: c.spec.Name, ContainerName: c.spec.Name, Role: RoleCompanion,
			Image:    c.spec.Image,
			Env:      slices.Clone(c.spec.Env),
			Ports:    slices.Clone(c.spec.Ports),
			Networks: c.networks,
		})
	}

	for _, node := range t.Nodes {
		if node.Type == topology.TypeNetwork {
			p.Networks = append(p.Networks, nm.network[node.ID])
		}
	}
	return p
}

// reservedKeys returns the companion names the topology will emit, so no
// node-derived key can take them.
func reservedKeys(cat *catalog.Catalog, t topology.Topology) keys {
	k := keys{}
	for _, node := range t.Nodes {
		if node.Type != topology.TypeServer || node.Service == "" {
			continue
		}
		if svc, ok := cat.Lookup(node.Service); ok && svc.Companion != nil {
			k[svc.Companion.Name] = true
		}
	}
	return k
}

func findCompanion(cs []*companionUse, name string) *companionUse {
	for _, c := range cs {
		if c.spec.Name == name {
			return c
		}
	}
	return nil
}

// Service returns the entry with the given key.
func (p *Plan) Service(key string) (Service, bool) {
	for _, s := range p.Services {
		if s.Key == key {
			return s, true
		}
	}
	return Service{}, false
}
