package seed

// RootLabel refers to the root node in edge endpoints.
const RootLabel = "root"

// Graph is a decoded seed.
type Graph struct {
	// RootEdge is the edge class used to hang entry nodes off the root.
	RootEdge string
	Nodes    []*Node
	Edges    []*Edge
}

// Node declares one node.
type Node struct {
	Label  string
	Type   string
	Fields map[string]any
}

// Edge declares one edge between two labelled nodes.
type Edge struct {
	Label     string
	Type      string
	From      string
	To        string
	Direction string
	Fields    map[string]any
}

// merge appends other to g. A root_edge set in more than one file must agree.
func (g *Graph) merge(other *Graph) error {
	if other.RootEdge != "" {
		if g.RootEdge != "" && g.RootEdge != other.RootEdge {
			return errConflictingRootEdge(g.RootEdge, other.RootEdge)
		}
		g.RootEdge = other.RootEdge
	}
	g.Nodes = append(g.Nodes, other.Nodes...)
	g.Edges = append(g.Edges, other.Edges...)
	return nil
}
