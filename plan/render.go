package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/alexchoi0/blueprint/internal/invariant"
)

// Tree renders the plan as a box-drawing tree rooted at each entry in
// Roots, following each node's data and order deps depth-first. Nodes reachable
// from more than one root are rendered once per reachable path, matching
// the teacher pack's dry-run display convention.
func (p *Plan) Tree() string {
	var b strings.Builder
	for i, root := range p.Roots {
		last := i == len(p.Roots)-1
		p.writeNode(&b, root, "", last)
	}
	return b.String()
}

func (p *Plan) writeNode(b *strings.Builder, id NodeID, prefix string, last bool) {
	n := p.NodeByID(id)
	connector := "├─ "
	nextPrefix := prefix + "│  "
	if last {
		connector = "└─ "
		nextPrefix = prefix + "   "
	}
	if n == nil {
		fmt.Fprintf(b, "%s%s<missing node %d>\n", prefix, connector, id)
		return
	}
	fmt.Fprintf(b, "%s%s[%d] %s\n", prefix, connector, n.ID, n.Kind)

	deps := append(append([]NodeID{}, n.DataDeps...), n.OrderDeps...)
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	for i, dep := range deps {
		p.writeNode(b, dep, nextPrefix, i == len(deps)-1)
	}
}

// DOT renders the plan as Graphviz source, with data-dependency edges solid
// and order-dependency edges dashed.
func (p *Plan) DOT() string {
	var b strings.Builder
	b.WriteString("digraph plan {\n")
	for _, n := range p.Nodes {
		fmt.Fprintf(&b, "  n%d [label=\"%d: %s\"];\n", n.ID, n.ID, n.Kind)
	}
	for _, n := range p.Nodes {
		for _, dep := range n.DataDeps {
			fmt.Fprintf(&b, "  n%d -> n%d;\n", dep, n.ID)
		}
		for _, dep := range n.OrderDeps {
			fmt.Fprintf(&b, "  n%d -> n%d [style=dashed];\n", dep, n.ID)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Hash returns a deterministic sha256 hex digest over the plan's shape:
// node kinds and dependency edges. Span is excluded since it is source
// metadata, not part of the plan's executable identity, and args are
// excluded from the summary line to keep the hash stable across runs that
// differ only in literal data but not shape — callers that need
// content-sensitive hashing should hash Args themselves alongside this.
func (p *Plan) Hash() string {
	h := sha256.New()
	for _, n := range p.Nodes {
		_, err := fmt.Fprintf(h, "%d:%s|data=%v|order=%v\n", n.ID, n.Kind, n.DataDeps, n.OrderDeps)
		invariant.ExpectNoError(err, "hash write")
	}
	_, err := fmt.Fprintf(h, "roots=%v\n", p.Roots)
	invariant.ExpectNoError(err, "hash write")
	return hex.EncodeToString(h.Sum(nil))
}
