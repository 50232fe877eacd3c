package logic

import (
	"io"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Engine owns a graph of logic nodes, their properties and the links between
// them. It is not safe for concurrent use; callers serialize mutation and
// Update.
type Engine struct {
	log           *slog.Logger
	clock         func() time.Time
	dirtyTracking bool
	reporting     bool

	props  arena
	nodes  []*Node
	byID   map[NodeID]*Node
	nextID NodeID

	arrays      []*DataArray
	nextArrayID uint64

	order      []*Node
	orderValid bool

	running    atomic.Int64
	lastReport UpdateReport
}

type Option func(*Engine)

// WithLogger injects the diagnostics sink. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock replaces the wall clock used by timer nodes.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithDirtyTracking(enabled bool) Option {
	return func(e *Engine) { e.dirtyTracking = enabled }
}

func WithUpdateReport(enabled bool) Option {
	return func(e *Engine) { e.reporting = enabled }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:         time.Now,
		dirtyTracking: true,
		byID:          map[NodeID]*Node{},
		nextID:        1,
		nextArrayID:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) SetDirtyTracking(enabled bool) { e.dirtyTracking = enabled }

func (e *Engine) SetUpdateReport(enabled bool) { e.reporting = enabled }

// register builds the property trees and appends the node in registration order.
func (e *Engine) register(name string, id NodeID, inputs TypeDesc, outputs *TypeDesc, impl nodeImpl) *Node {
	if id == 0 {
		id = e.nextID
	}
	if id >= e.nextID {
		e.nextID = id + 1
	}
	n := &Node{
		engine: e,
		id:     id,
		name:   name,
		impl:   impl,
		dirty:  true,
	}
	inputs.Name = ""
	n.inputs = e.props.build(inputs, n, roleInput, handle{})
	if outputs != nil {
		out := *outputs
		out.Name = ""
		n.outputs = e.props.build(out, n, roleOutput, handle{})
	}
	e.nodes = append(e.nodes, n)
	e.byID[id] = n
	e.invalidateOrder()
	e.log.Debug("node created", "node", name, "id", id, "kind", impl.kind())
	return n
}

func (e *Engine) owns(n *Node) bool {
	return n != nil && n.engine == e && !n.destroyed
}

// Destroy removes a node and every link touching it. Nodes referenced by an
// anchor point or skin binding cannot be destroyed before their users.
func (e *Engine) Destroy(n *Node) error {
	if n == nil || n.destroyed {
		return ErrNodeGone
	}
	if n.engine != e {
		return ErrForeignEngine
	}
	if err := e.guardWrite(true); err != nil {
		return err
	}
	for _, other := range e.nodes {
		if other != n && slices.Contains(other.after, n) {
			return errors.Wrapf(ErrInUse, "%s is referenced by %s", n, other)
		}
	}

	var severed []linkEnds
	collect := func(h handle, rec *propRecord) {
		if !rec.source.isZero() {
			severed = append(severed, linkEnds{src: rec.source, dst: h})
		}
		if rec.targets != nil {
			for t := range rec.targets.Iter() {
				severed = append(severed, linkEnds{src: h, dst: t})
			}
		}
	}
	e.props.walk(n.inputs, collect)
	e.props.walk(n.outputs, collect)
	for _, l := range severed {
		e.removeLink(l.src, l.dst)
	}

	if a, ok := n.impl.(*animationImpl); ok {
		a.release()
	}
	e.props.release(n.inputs)
	e.props.release(n.outputs)
	e.nodes = slices.DeleteFunc(e.nodes, func(x *Node) bool { return x == n })
	delete(e.byID, n.id)
	n.destroyed = true
	e.invalidateOrder()
	e.log.Debug("node destroyed", "node", n.name, "id", n.id, "links", len(severed))
	return nil
}

// Nodes returns all nodes in registration order.
func (e *Engine) Nodes() []*Node {
	return slices.Clone(e.nodes)
}

// FindNode returns the first node registered under name.
func (e *Engine) FindNode(name string) *Node {
	for _, n := range e.nodes {
		if n.name == name {
			return n
		}
	}
	return nil
}

func (e *Engine) FindNodeByID(id NodeID) *Node {
	return e.byID[id]
}

func (e *Engine) invalidateOrder() {
	e.order = nil
	e.orderValid = false
}

// execute runs one node's computation.
func (e *Engine) execute(n *Node) error {
	switch impl := n.impl.(type) {
	case *interfaceImpl:
		return e.updateInterface(n)
	case *scriptImpl:
		return e.updateScript(n, impl)
	case *animationImpl:
		return e.updateAnimation(n, impl)
	case *timerImpl:
		return e.updateTimer(n)
	case *anchorImpl:
		return e.updateAnchor(n, impl)
	case *nodeBindingImpl:
		return e.updateNodeBinding(n, impl)
	case *cameraBindingImpl:
		return e.updateCameraBinding(n, impl)
	case *appearanceBindingImpl:
		return e.updateAppearanceBinding(n, impl)
	case *renderPassBindingImpl:
		return e.updateRenderPassBinding(n, impl)
	case *renderGroupBindingImpl:
		return e.updateRenderGroupBinding(n, impl)
	case *meshNodeBindingImpl:
		return e.updateMeshNodeBinding(n, impl)
	case *skinBindingImpl:
		return e.updateSkinBinding(n, impl)
	case *renderBufferBindingImpl:
		return e.updateRenderBufferBinding(n, impl)
	}
	panic("unknown node variant")
}
