package terraform

import (
	"bytes"
)

// File names written by Render.
const (
	VersionsFile  = "versions.tf"
	VariablesFile = "variables.tf"
	MainFile      = "main.tf"
	OutputsFile   = "outputs.tf"
	TfvarsFile    = "terraform.tfvars"
)

// section groups main.tf resources; sections are written in declaration order.
type section int

const (
	sectionNetworks section = iota
	sectionVolumes
	sectionImages
	sectionContainers
	numSections
)

var sectionTitles = [numSections]string{
	"# Networks\n",
	"# Volumes\n",
	"# Images\n",
	"# Containers\n",
}

// Builder collects resource blocks per section plus the fixed files.
type Builder struct {
	sections   [numSections][][]byte
	files      map[string][]byte
	emitTfvars bool
}

// NewBuilder returns a Builder. terraform.tfvars is dropped unless emitTfvars.
func NewBuilder(emitTfvars bool) *Builder {
	return &Builder{files: map[string][]byte{}, emitTfvars: emitTfvars}
}

func (b *Builder) add(s section, block []byte) {
	if len(block) > 0 {
		b.sections[s] = append(b.sections[s], block)
	}
}

// set stores a whole file; empty content is skipped.
func (b *Builder) set(name string, content []byte) {
	if len(content) == 0 {
		return
	}
	if name == TfvarsFile && !b.emitTfvars {
		return
	}
	b.files[name] = content
}

// Build assembles main.tf and returns every file by name.
func (b *Builder) Build() map[string][]byte {
	var main bytes.Buffer
	for s, blocks := range b.sections {
		if len(blocks) == 0 {
			continue
		}
		if main.Len() > 0 {
			main.WriteString("\n")
		}
		main.WriteString(sectionTitles[s])
		for i, block := range blocks {
			if i > 0 {
				main.WriteString("\n")
			}
			main.Write(block)
		}
	}

	out := make(map[string][]byte, len(b.files)+1)
	for name, content := range b.files {
		out[name] = content
	}
	if main.Len() > 0 {
		out[MainFile] = main.Bytes()
	}
	return out
}
