package compiler

import "github.com/diagram-to-compose/composer/internal/compose"

// Options configures the compiler behavior.
type Options struct {
	// ComposeVersion is the manifest version header.
	ComposeVersion string
	// Terraform also renders the docker-provider Terraform configuration.
	Terraform bool
	// EmitTfvars generates terraform.tfvars alongside the Terraform files.
	EmitTfvars bool
	// DockerHost is written to terraform.tfvars.
	DockerHost string
	// Lint loads the generated manifest with the compose-spec loader.
	Lint bool
}

// DefaultOptions returns default compiler options.
func DefaultOptions() Options {
	return Options{
		ComposeVersion: compose.DefaultVersion,
		EmitTfvars:     true,
		Lint:           true,
	}
}
