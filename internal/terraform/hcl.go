package terraform

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// SanitizeName converts a manifest key to a Terraform-safe resource name (e.g. db1-mysql -> db1_mysql).
func SanitizeName(key string) string {
	return strings.ReplaceAll(key, "-", "_")
}

// ResourceBlock creates a resource "type" "name" { } block; body can be filled by the caller.
func ResourceBlock(resourceType, name string) *hclwrite.Block {
	return hclwrite.NewBlock("resource", []string{resourceType, name})
}

// SetAttributeStr sets a string attribute on a block body.
func SetAttributeStr(body *hclwrite.Body, name, value string) {
	if value != "" {
		body.SetAttributeValue(name, cty.StringVal(value))
	}
}

// SetAttributeInt sets an int attribute.
func SetAttributeInt(body *hclwrite.Body, name string, value int) {
	body.SetAttributeValue(name, cty.NumberIntVal(int64(value)))
}

// SetAttributeList sets a list(string) attribute; empty lists are skipped.
func SetAttributeList(body *hclwrite.Body, name string, values []string) {
	if len(values) == 0 {
		return
	}
	vals := make([]cty.Value, len(values))
	for i, v := range values {
		vals[i] = cty.StringVal(v)
	}
	body.SetAttributeValue(name, cty.ListVal(vals))
}

// SetAttributeRefs sets a tuple of bare resource references, e.g. depends_on.
func SetAttributeRefs(body *hclwrite.Body, name string, addrs []string) {
	if len(addrs) == 0 {
		return
	}
	tokens := make([]hclwrite.Tokens, len(addrs))
	for i, addr := range addrs {
		tokens[i] = hclwrite.TokensForTraversal(refTraversal(addr, ""))
	}
	body.SetAttributeRaw(name, hclwrite.TokensForTuple(tokens))
}

// BlockToBytes formats a block and returns its bytes (with newline).
func BlockToBytes(block *hclwrite.Block) []byte {
	f := hclwrite.NewEmptyFile()
	f.Body().AppendBlock(block)
	return f.Bytes()
}

// refTraversal builds hcl.Traversal for a resource address and attribute (e.g. docker_network.net1.name).
func refTraversal(addr, attr string) hcl.Traversal {
	var t hcl.Traversal
	for _, part := range strings.Split(addr, ".") {
		if len(t) == 0 {
			t = append(t, hcl.TraverseRoot{Name: part})
		} else {
			t = append(t, hcl.TraverseAttr{Name: part})
		}
	}
	if attr != "" {
		t = append(t, hcl.TraverseAttr{Name: attr})
	}
	return t
}

// varTraversal builds hcl.Traversal for var.name (e.g. var.docker_host).
func varTraversal(name string) hcl.Traversal {
	return hcl.Traversal{
		hcl.TraverseRoot{Name: "var"},
		hcl.TraverseAttr{Name: name},
	}
}

// varTypeTraversal builds a bare type keyword such as string.
func varTypeTraversal(name string) hcl.Traversal {
	return hcl.Traversal{hcl.TraverseRoot{Name: name}}
}
