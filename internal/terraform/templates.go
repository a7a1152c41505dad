package terraform

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// DefaultDockerHost is the daemon address used when none is configured.
const DefaultDockerHost = "unix:///var/run/docker.sock"

// VersionsTF returns content for versions.tf (terraform block + docker provider).
func VersionsTF() []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	tfBlock := body.AppendNewBlock("terraform", nil)
	tfBody := tfBlock.Body()
	tfBody.SetAttributeValue("required_version", cty.StringVal(">= 1.0"))
	reqProv := tfBody.AppendNewBlock("required_providers", nil)
	reqProv.Body().SetAttributeValue("docker", cty.ObjectVal(map[string]cty.Value{
		"source":  cty.StringVal("kreuzwerker/docker"),
		"version": cty.StringVal("~> 3.0"),
	}))

	body.AppendNewline()
	provBlock := body.AppendNewBlock("provider", []string{"docker"})
	provBlock.Body().SetAttributeTraversal("host", varTraversal("docker_host"))

	return f.Bytes()
}

// VariablesTF returns content for variables.tf.
func VariablesTF() []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	hostBlock := body.AppendNewBlock("variable", []string{"docker_host"})
	hostBlock.Body().SetAttributeValue("description", cty.StringVal("Docker daemon address"))
	hostBlock.Body().SetAttributeTraversal("type", varTypeTraversal("string"))
	hostBlock.Body().SetAttributeValue("default", cty.StringVal(DefaultDockerHost))

	return f.Bytes()
}

// OutputsTF lists the names of every container.
func OutputsTF(containers []string) []byte {
	f := hclwrite.NewEmptyFile()
	if len(containers) == 0 {
		return f.Bytes()
	}
	tokens := make([]hclwrite.Tokens, len(containers))
	for i, name := range containers {
		tokens[i] = hclwrite.TokensForTraversal(refTraversal("docker_container."+name, "name"))
	}
	out := f.Body().AppendNewBlock("output", []string{"container_names"})
	out.Body().SetAttributeRaw("value", hclwrite.TokensForTuple(tokens))
	return f.Bytes()
}

// Tfvars returns terraform.tfvars pinning the docker host.
func Tfvars(host string) []byte {
	if host == "" {
		host = DefaultDockerHost
	}
	f := hclwrite.NewEmptyFile()
	f.Body().SetAttributeValue("docker_host", cty.StringVal(host))
	return f.Bytes()
}
