package logic

import "slices"

// NodeKind enumerates the closed set of node variants.
type NodeKind uint8

const (
	KindInterface NodeKind = iota + 1
	KindScript
	KindAnimation
	KindTimer
	KindAnchorPoint
	KindNodeBinding
	KindCameraBinding
	KindAppearanceBinding
	KindRenderPassBinding
	KindRenderGroupBinding
	KindMeshNodeBinding
	KindSkinBinding
	KindRenderBufferBinding
)

var kindNames = map[NodeKind]string{
	KindInterface:           "Interface",
	KindScript:              "Script",
	KindAnimation:           "AnimationNode",
	KindTimer:               "TimerNode",
	KindAnchorPoint:         "AnchorPoint",
	KindNodeBinding:         "NodeBinding",
	KindCameraBinding:       "CameraBinding",
	KindAppearanceBinding:   "AppearanceBinding",
	KindRenderPassBinding:   "RenderPassBinding",
	KindRenderGroupBinding:  "RenderGroupBinding",
	KindMeshNodeBinding:     "MeshNodeBinding",
	KindSkinBinding:         "SkinBinding",
	KindRenderBufferBinding: "RenderBufferBinding",
}

func (k NodeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// IsBinding reports whether nodes of this kind write into scene objects.
func (k NodeKind) IsBinding() bool {
	return k >= KindNodeBinding
}

type NodeID uint64

// Node is a unit of computation with an input and an optional output tree.
type Node struct {
	engine      *Engine
	id          NodeID
	name        string
	userID      [2]uint64
	inputs      handle
	outputs     handle
	dirty       bool
	alwaysDirty bool
	destroyed   bool
	impl        nodeImpl

	// nodes that must run before this one regardless of property links
	after []*Node
}

// nodeImpl is the variant payload. The set of implementations is closed and
// dispatched with a type switch in Engine.execute.
type nodeImpl interface {
	kind() NodeKind
}

func (n *Node) ID() NodeID      { return n.id }
func (n *Node) Name() string    { return n.name }
func (n *Node) Kind() NodeKind  { return n.impl.kind() }
func (n *Node) Engine() *Engine { return n.engine }

// IsDirty reports whether the node will execute on the next update.
func (n *Node) IsDirty() bool { return n.dirty || n.alwaysDirty }

func (n *Node) AlwaysDirty() bool { return n.alwaysDirty }

func (n *Node) UserID() (hi, lo uint64) { return n.userID[0], n.userID[1] }

func (n *Node) SetUserID(hi, lo uint64) { n.userID = [2]uint64{hi, lo} }

func (n *Node) Inputs() Property {
	if n.destroyed {
		return Property{}
	}
	return Property{e: n.engine, h: n.inputs}
}

// Outputs returns the output root; ok is false for pure consumer bindings.
func (n *Node) Outputs() (Property, bool) {
	if n.destroyed || n.outputs.isZero() {
		return Property{}, false
	}
	return Property{e: n.engine, h: n.outputs}, true
}

// Input is shorthand for Inputs().Lookup(path).
func (n *Node) Input(path string) Property {
	return n.Inputs().Lookup(path)
}

// Output is shorthand for Outputs().Lookup(path).
func (n *Node) Output(path string) Property {
	out, ok := n.Outputs()
	if !ok {
		return Property{}
	}
	return out.Lookup(path)
}

func (n *Node) String() string {
	return n.Kind().String() + " " + n.name
}

// Dependencies lists the nodes that must run before n without a property
// link, such as the bindings an anchor point reads.
func (n *Node) Dependencies() []*Node {
	return slices.Clone(n.after)
}
