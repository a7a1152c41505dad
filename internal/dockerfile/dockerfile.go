// Package dockerfile renders build templates as Dockerfiles.
package dockerfile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/plan"
)

// File is one generated build file.
type File struct {
	Path    string
	Content []byte
}

// Render writes t as a Dockerfile. Lists use the exec (JSON array) form.
func Render(t catalog.BuildTemplate) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", t.BaseImage)
	if t.WorkDir != "" {
		fmt.Fprintf(&b, "WORKDIR %s\n", t.WorkDir)
	}
	for _, s := range t.Steps {
		fmt.Fprintf(&b, "%s %s\n", strings.ToUpper(s.Op), s.Args)
	}
	if t.Expose > 0 {
		fmt.Fprintf(&b, "EXPOSE %d\n", t.Expose)
	}
	if len(t.Entrypoint) > 0 {
		fmt.Fprintf(&b, "ENTRYPOINT %s\n", execForm(t.Entrypoint))
	}
	if len(t.Cmd) > 0 {
		fmt.Fprintf(&b, "CMD %s\n", execForm(t.Cmd))
	}
	return []byte(b.String())
}

func execForm(args []string) string {
	// Marshalling a []string cannot fail.
	out, _ := json.Marshal(args)
	return string(out)
}

// Files renders every build in p, in plan order.
func Files(p *plan.Plan) []File {
	files := make([]File, 0, len(p.Builds))
	for _, b := range p.Builds {
		files = append(files, File{Path: b.Path(), Content: Render(b.Template)})
	}
	return files
}
