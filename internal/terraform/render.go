// Package terraform renders a deployment plan as a Terraform configuration
// for the kreuzwerker/docker provider, an alternative to the compose manifest.
package terraform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diagram-to-compose/composer/internal/plan"
	"github.com/diagram-to-compose/composer/internal/result"
)

// Dir is the folder Terraform files are exported under.
const Dir = "terraform"

// Options configures Render.
type Options struct {
	// EmitTfvars generates terraform.tfvars when true.
	EmitTfvars bool
	// DockerHost is written to terraform.tfvars.
	DockerHost string
}

// Render generates versions.tf, variables.tf, main.tf and outputs.tf for p.
// Port mappings that are not host:container integers are skipped with a warning.
func Render(p *plan.Plan, opts Options) (map[string][]byte, []result.Warning) {
	var warns []result.Warning
	b := NewBuilder(opts.EmitTfvars)
	b.set(VersionsFile, VersionsTF())
	b.set(VariablesFile, VariablesTF())

	for _, n := range p.Networks {
		block := ResourceBlock("docker_network", SanitizeName(n))
		body := block.Body()
		SetAttributeStr(body, "name", n)
		SetAttributeStr(body, "driver", "bridge")
		b.add(sectionNetworks, BlockToBytes(block))
	}
	for _, v := range p.Volumes {
		block := ResourceBlock("docker_volume", SanitizeName(v))
		SetAttributeStr(block.Body(), "name", v)
		b.add(sectionVolumes, BlockToBytes(block))
	}

	containers := make([]string, 0, len(p.Services))
	for _, s := range p.Services {
		name := SanitizeName(s.Key)
		b.add(sectionImages, imageBlock(s, name))

		block, w := containerBlock(s, name)
		warns = append(warns, w...)
		b.add(sectionContainers, block)
		containers = append(containers, name)
	}

	b.set(OutputsFile, OutputsTF(containers))
	b.set(TfvarsFile, Tfvars(opts.DockerHost))
	return b.Build(), warns
}

func imageBlock(s plan.Service, name string) []byte {
	block := ResourceBlock("docker_image", name)
	body := block.Body()
	if s.Build == nil {
		SetAttributeStr(body, "name", s.Image)
		return BlockToBytes(block)
	}
	SetAttributeStr(body, "name", s.Key+":latest")
	build := body.AppendNewBlock("build", nil).Body()
	SetAttributeStr(build, "context", "../"+strings.TrimPrefix(s.Build.Context, "./"))
	SetAttributeStr(build, "dockerfile", s.Build.Dockerfile)
	return BlockToBytes(block)
}

func containerBlock(s plan.Service, name string) ([]byte, []result.Warning) {
	var warns []result.Warning
	block := ResourceBlock("docker_container", name)
	body := block.Body()
	SetAttributeStr(body, "name", s.ContainerName)
	body.SetAttributeTraversal("image", refTraversal("docker_image."+name, "image_id"))

	env := make([]string, len(s.Env))
	for i, e := range s.Env {
		env[i] = e.Name + "=" + e.Value
	}
	SetAttributeList(body, "env", env)

	for _, p := range s.Ports {
		external, internal, err := splitPort(p)
		if err != nil {
			warns = append(warns, result.NewWarning(result.TypePort, s.NodeID,
				fmt.Sprintf("%s: port %q skipped: %v", s.Key, p, err), "Use host:container, e.g. 8080:80"))
			continue
		}
		ports := body.AppendNewBlock("ports", nil).Body()
		SetAttributeInt(ports, "internal", internal)
		SetAttributeInt(ports, "external", external)
	}
	for _, m := range s.Volumes {
		vol := body.AppendNewBlock("volumes", nil).Body()
		vol.SetAttributeTraversal("volume_name", refTraversal("docker_volume."+SanitizeName(m.Source), "name"))
		SetAttributeStr(vol, "container_path", m.Target)
	}
	for _, n := range s.Networks {
		net := body.AppendNewBlock("networks_advanced", nil).Body()
		net.SetAttributeTraversal("name", refTraversal("docker_network."+SanitizeName(n), "name"))
	}
	if len(s.DependsOn) > 0 {
		deps := make([]string, len(s.DependsOn))
		for i, d := range s.DependsOn {
			deps[i] = "docker_container." + SanitizeName(d)
		}
		SetAttributeRefs(body, "depends_on", deps)
	}
	return BlockToBytes(block), warns
}

// splitPort parses "host:container".
func splitPort(p string) (host, container int, err error) {
	h, c, ok := strings.Cut(p, ":")
	if !ok {
		return 0, 0, fmt.Errorf("missing ':'")
	}
	if host, err = strconv.Atoi(h); err != nil {
		return 0, 0, fmt.Errorf("host port: %w", err)
	}
	if container, err = strconv.Atoi(c); err != nil {
		return 0, 0, fmt.Errorf("container port: %w", err)
	}
	return host, container, nil
}
