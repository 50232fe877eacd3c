package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/delaneyj/logicgraph/report/templates"
)

var shapes = map[logic.NodeKind]string{
	logic.KindInterface:   "box",
	logic.KindScript:      "ellipse",
	logic.KindAnimation:   "diamond",
	logic.KindTimer:       "circle",
	logic.KindAnchorPoint: "triangle",
}

// Graph converts the engine's nodes and links into the DOT template model.
func Graph(e *logic.Engine, name string) templates.Graph {
	g := templates.Graph{Name: name}
	for _, n := range e.Nodes() {
		shape, ok := shapes[n.Kind()]
		if !ok {
			shape = "component"
		}
		g.Nodes = append(g.Nodes, templates.GraphNode{
			ID:          uint64(n.ID()),
			Label:       fmt.Sprintf("%s\n(%s)", n.Name(), n.Kind()),
			Shape:       shape,
			AlwaysDirty: n.AlwaysDirty(),
		})
		for _, dep := range n.Dependencies() {
			g.Edges = append(g.Edges, templates.GraphEdge{From: uint64(dep.ID()), To: uint64(n.ID()), Implicit: true})
		}
	}
	for _, l := range e.Links() {
		g.Edges = append(g.Edges, templates.GraphEdge{
			From:  uint64(l.Source.Node().ID()),
			To:    uint64(l.Target.Node().ID()),
			Label: localPath(l.Source) + " → " + localPath(l.Target),
			Weak:  l.Weak,
		})
	}
	return g
}

// localPath drops the node name from a property path.
func localPath(p logic.Property) string {
	path := p.Path()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func DOT(e *logic.Engine, name string) string {
	return templates.GraphDOT(Graph(e, name))
}

func WriteDOT(w io.Writer, e *logic.Engine, name string) {
	templates.WriteGraphDOT(w, Graph(e, name))
}
