package templates

// Graph is the template model of a logic graph.
type Graph struct {
	Name  string
	Nodes []GraphNode
	Edges []GraphEdge
}

type GraphNode struct {
	ID          uint64
	Label       string
	Shape       string
	AlwaysDirty bool
}

// GraphEdge is a property link, or an ordering dependency when Implicit.
type GraphEdge struct {
	From, To uint64
	Label    string
	Weak     bool
	Implicit bool
}
