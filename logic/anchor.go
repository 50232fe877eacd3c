package logic

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type anchorImpl struct {
	node   *nodeBindingImpl
	camera *cameraBindingImpl
	coords handle
	depth  handle
}

func (*anchorImpl) kind() NodeKind { return KindAnchorPoint }

// CreateAnchorPoint projects the origin of a bound scene node through a bound
// camera. It runs after both bindings and on every update, since the scene
// transforms are not visible to the link graph. Outputs are `viewportCoords`
// in pixels and `depth` in [0,1].
func (e *Engine) CreateAnchorPoint(name string, nodeBinding, cameraBinding *Node) (*Node, error) {
	return e.createAnchorPoint(name, nodeBinding, cameraBinding, 0)
}

func (e *Engine) createAnchorPoint(name string, nodeBinding, cameraBinding *Node, id NodeID) (*Node, error) {
	for _, n := range []*Node{nodeBinding, cameraBinding} {
		if n == nil || n.destroyed {
			return nil, configErr(name, ErrNodeGone)
		}
		if n.engine != e {
			return nil, configErr(name, ErrForeignEngine)
		}
	}
	nb, ok := nodeBinding.impl.(*nodeBindingImpl)
	if !ok {
		return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "%s is not a node binding", nodeBinding))
	}
	cb, ok := cameraBinding.impl.(*cameraBindingImpl)
	if !ok {
		return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "%s is not a camera binding", cameraBinding))
	}

	impl := &anchorImpl{node: nb, camera: cb}
	out := StructOf("",
		Leaf("viewportCoords", TypeVec2f),
		Leaf("depth", TypeFloat),
	)
	n := e.register(name, id, StructOf(""), &out, impl)
	n.alwaysDirty = true
	n.after = []*Node{nodeBinding, cameraBinding}
	outs := e.props.get(n.outputs).children
	impl.coords, impl.depth = outs[0], outs[1]
	return n, nil
}

func (e *Engine) updateAnchor(_ *Node, a *anchorImpl) error {
	cam := a.camera.obj
	mvp := cam.ProjectionMatrix().Mul4(cam.ViewMatrix()).Mul4(a.node.obj.WorldMatrix())
	clip := mvp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if clip[3] == 0 {
		return errors.New("anchor point projects to infinity (clip w is 0)")
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	vp := cam.Viewport()
	coords := mgl32.Vec2{
		(ndc[0]+1)/2*float32(vp.Width) + float32(vp.OffsetX),
		(ndc[1]+1)/2*float32(vp.Height) + float32(vp.OffsetY),
	}
	e.assign(a.coords, Vec2fVal(coords))
	e.assign(a.depth, FloatVal((ndc[2]+1)/2))
	return nil
}
