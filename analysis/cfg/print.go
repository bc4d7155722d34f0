package cfg

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/golisa/utils/dot"
)

// Dump renders the CFG as text, one node per line in creation order:
//
//	main.f(x)
//	  [0] y = 1 -> [1]
//	  [1] if (x < y) -> true:[2] false:[3]
func (g *CFG) Dump() string {
	return g.DumpWith(nil)
}

// DumpWith renders the CFG as text. The annotation of each node, if any, is
// printed on the following line.
func (g *CFG) DumpWith(annotate func(*Node) string) string {
	var sb strings.Builder
	sb.WriteString(g.Desc.String())
	sb.WriteString("\n")

	for _, n := range g.nodes {
		fmt.Fprintf(&sb, "  [%d] %s", n.index, n.Stmt)
		if len(n.out) > 0 {
			sb.WriteString(" ->")
			for _, e := range n.out {
				sb.WriteString(" ")
				if e.Kind != Seq {
					sb.WriteString(e.Kind.String() + ":")
				}
				fmt.Fprintf(&sb, "[%d]", e.To.index)
			}
		}
		sb.WriteString("\n")

		if annotate != nil {
			if str := annotate(n); str != "" {
				for _, line := range strings.Split(str, "\n") {
					sb.WriteString("      " + line + "\n")
				}
			}
		}
	}
	return sb.String()
}

// ToDot renders the CFG as a dot graph. The label of every node may be
// extended with an annotation.
func (g *CFG) ToDot(annotate func(*Node) string) *dot.DotGraph {
	G := &dot.DotGraph{
		Title: g.Desc.String(),
		Options: map[string]string{
			"name":    "CFG",
			"rankdir": "TB",
		},
	}

	nodes := make(map[*Node]*dot.DotNode, len(g.nodes))
	for _, n := range g.nodes {
		label := fmt.Sprintf("[%d] %s", n.index, n.Stmt)
		if annotate != nil {
			if str := annotate(n); str != "" {
				label += "\n" + str
			}
		}

		attrs := dot.DotAttrs{"label": label}
		switch {
		case n == g.entry:
			attrs["fillcolor"] = "lightblue"
		case n.IsCall():
			attrs["fillcolor"] = "lightyellow"
		}
		if g.IsWideningPoint(n) {
			attrs["penwidth"] = "2.0"
		}

		dn := &dot.DotNode{ID: fmt.Sprintf("n%d", n.index), Attrs: attrs}
		nodes[n] = dn
		G.Nodes = append(G.Nodes, dn)
	}

	for _, n := range g.nodes {
		for _, e := range n.out {
			attrs := dot.DotAttrs{}
			switch e.Kind {
			case True:
				attrs["label"], attrs["color"] = "true", "darkgreen"
			case False:
				attrs["label"], attrs["color"] = "false", "red"
			}
			G.Edges = append(G.Edges, &dot.DotEdge{From: nodes[e.From], To: nodes[e.To], Attrs: attrs})
		}
	}

	return G
}
