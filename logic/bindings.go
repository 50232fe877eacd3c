package logic

import (
	"slices"

	"github.com/delaneyj/logicgraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// bindingField maps one top level input subtree onto a scene object setter.
// get and set exchange the subtree's leaf values in pre-order.
type bindingField struct {
	desc TypeDesc
	get  func() []Value
	set  func([]Value) error
}

// binding is shared by all scene bindings. A field is written only when its
// inputs differ from the values last applied to the object.
type binding struct {
	fields  []bindingField
	leaves  [][]handle
	applied [][]Value
}

type boundImpl interface {
	nodeImpl
	object() scene.Object
}

// SceneObject returns the object a binding writes into, or nil.
func (n *Node) SceneObject() scene.Object {
	if b, ok := n.impl.(boundImpl); ok {
		return b.object()
	}
	return nil
}

func (e *Engine) registerBinding(name string, id NodeID, b *binding, impl nodeImpl) *Node {
	descs := make([]TypeDesc, len(b.fields))
	for i, f := range b.fields {
		descs[i] = f.desc
	}
	n := e.register(name, id, StructOf("", descs...), nil, impl)
	children := e.props.get(n.inputs).children
	for i, f := range b.fields {
		leaves := e.props.leaves(children[i])
		values := f.get()
		for j, h := range leaves {
			e.assign(h, values[j])
		}
		b.leaves = append(b.leaves, leaves)
		b.applied = append(b.applied, values)
	}
	return n
}

func (e *Engine) writeBinding(b *binding) error {
	for i, f := range b.fields {
		current := make([]Value, len(b.leaves[i]))
		for j, h := range b.leaves[i] {
			current[j] = e.props.get(h).value
		}
		if slices.EqualFunc(current, b.applied[i], Value.Equal) {
			continue
		}
		if err := f.set(current); err != nil {
			return errors.Wrapf(err, "writing %q", f.desc.Name)
		}
		b.applied[i] = current
	}
	return nil
}

func checkObject(name string, obj scene.Object) error {
	if obj == nil {
		return configErr(name, errors.Wrap(ErrInvalidConfig, "binding needs a scene object"))
	}
	return nil
}

func single(v Value) []Value { return []Value{v} }

// RotationConvention selects the type of a NodeBinding's rotation input.
type RotationConvention uint8

const (
	// RotationEulerXYZ is a Vec3f of degrees.
	RotationEulerXYZ RotationConvention = iota + 1
	// RotationQuaternion is a Vec4f (x, y, z, w).
	RotationQuaternion
)

type nodeBindingImpl struct {
	binding
	obj      scene.Node
	rotation RotationConvention
}

func (*nodeBindingImpl) kind() NodeKind          { return KindNodeBinding }
func (b *nodeBindingImpl) object() scene.Object { return b.obj }

func (e *Engine) CreateNodeBinding(name string, obj scene.Node, rotation RotationConvention) (*Node, error) {
	return e.createNodeBinding(name, obj, rotation, 0)
}

func (e *Engine) createNodeBinding(name string, obj scene.Node, rotation RotationConvention, id NodeID) (*Node, error) {
	if err := checkObject(name, obj); err != nil {
		return nil, err
	}
	impl := &nodeBindingImpl{obj: obj, rotation: rotation}
	rot := bindingField{}
	switch rotation {
	case RotationEulerXYZ:
		rot = bindingField{
			desc: Leaf("rotation", TypeVec3f),
			get:  func() []Value { return single(Vec3fVal(obj.RotationEuler())) },
			set:  func(v []Value) error { return obj.SetRotationEuler(v[0].Vec3f()) },
		}
	case RotationQuaternion:
		rot = bindingField{
			desc: Leaf("rotation", TypeVec4f),
			get:  func() []Value { return single(Vec4fVal(mgl32.Vec4(fromQuat(obj.RotationQuaternion())))) },
			set: func(v []Value) error {
				return obj.SetRotationQuaternion(toQuat(v[0].components()))
			},
		}
	default:
		return nil, configErr(name, errors.Wrap(ErrInvalidConfig, "unknown rotation convention"))
	}
	impl.fields = []bindingField{
		{
			desc: Leaf("visibility", TypeBool),
			get:  func() []Value { return single(BoolVal(obj.Visibility())) },
			set:  func(v []Value) error { return obj.SetVisibility(v[0].Bool()) },
		},
		rot,
		{
			desc: Leaf("translation", TypeVec3f),
			get:  func() []Value { return single(Vec3fVal(obj.Translation())) },
			set:  func(v []Value) error { return obj.SetTranslation(v[0].Vec3f()) },
		},
		{
			desc: Leaf("scaling", TypeVec3f),
			get:  func() []Value { return single(Vec3fVal(obj.Scaling())) },
			set:  func(v []Value) error { return obj.SetScaling(v[0].Vec3f()) },
		},
	}
	return e.registerBinding(name, id, &impl.binding, impl), nil
}

func (e *Engine) updateNodeBinding(_ *Node, b *nodeBindingImpl) error {
	return e.writeBinding(&b.binding)
}

type cameraBindingImpl struct {
	binding
	obj scene.Camera
}

func (*cameraBindingImpl) kind() NodeKind          { return KindCameraBinding }
func (b *cameraBindingImpl) object() scene.Object { return b.obj }

// CreateCameraBinding exposes the viewport and the frustum planes matching
// the camera's projection.
func (e *Engine) CreateCameraBinding(name string, obj scene.Camera) (*Node, error) {
	return e.createCameraBinding(name, obj, 0)
}

func (e *Engine) createCameraBinding(name string, obj scene.Camera, id NodeID) (*Node, error) {
	if err := checkObject(name, obj); err != nil {
		return nil, err
	}
	viewport := bindingField{
		desc: StructOf("viewport",
			Leaf("offsetX", TypeInt32),
			Leaf("offsetY", TypeInt32),
			Leaf("width", TypeInt32),
			Leaf("height", TypeInt32),
		),
		get: func() []Value {
			vp := obj.Viewport()
			return []Value{Int32Val(vp.OffsetX), Int32Val(vp.OffsetY), Int32Val(vp.Width), Int32Val(vp.Height)}
		},
		set: func(v []Value) error {
			return obj.SetViewport(scene.Viewport{
				OffsetX: v[0].Int32(), OffsetY: v[1].Int32(),
				Width: v[2].Int32(), Height: v[3].Int32(),
			})
		},
	}

	var frustum bindingField
	switch obj.Projection() {
	case scene.Perspective:
		frustum = bindingField{
			desc: StructOf("frustum",
				Leaf("nearPlane", TypeFloat),
				Leaf("farPlane", TypeFloat),
				Leaf("fieldOfView", TypeFloat),
				Leaf("aspectRatio", TypeFloat),
			),
			get: func() []Value {
				f := obj.Frustum()
				return []Value{FloatVal(f.Near), FloatVal(f.Far), FloatVal(f.FieldOfView), FloatVal(f.AspectRatio)}
			},
			set: func(v []Value) error {
				f := obj.Frustum()
				f.Near, f.Far, f.FieldOfView, f.AspectRatio = v[0].Float(), v[1].Float(), v[2].Float(), v[3].Float()
				return obj.SetFrustum(f)
			},
		}
	case scene.Orthographic:
		frustum = bindingField{
			desc: StructOf("frustum",
				Leaf("leftPlane", TypeFloat),
				Leaf("rightPlane", TypeFloat),
				Leaf("bottomPlane", TypeFloat),
				Leaf("topPlane", TypeFloat),
				Leaf("nearPlane", TypeFloat),
				Leaf("farPlane", TypeFloat),
			),
			get: func() []Value {
				f := obj.Frustum()
				return []Value{
					FloatVal(f.Left), FloatVal(f.Right), FloatVal(f.Bottom),
					FloatVal(f.Top), FloatVal(f.Near), FloatVal(f.Far),
				}
			},
			set: func(v []Value) error {
				f := obj.Frustum()
				f.Left, f.Right, f.Bottom = v[0].Float(), v[1].Float(), v[2].Float()
				f.Top, f.Near, f.Far = v[3].Float(), v[4].Float(), v[5].Float()
				return obj.SetFrustum(f)
			},
		}
	default:
		return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "camera %q has no projection", obj.ObjectName()))
	}

	impl := &cameraBindingImpl{obj: obj}
	impl.fields = []bindingField{viewport, frustum}
	return e.registerBinding(name, id, &impl.binding, impl), nil
}

func (e *Engine) updateCameraBinding(_ *Node, b *cameraBindingImpl) error {
	return e.writeBinding(&b.binding)
}

type appearanceBindingImpl struct {
	binding
	obj scene.Appearance
}

func (*appearanceBindingImpl) kind() NodeKind          { return KindAppearanceBinding }
func (b *appearanceBindingImpl) object() scene.Object { return b.obj }

// CreateAppearanceBinding exposes one input per uniform; arrays become array
// inputs. Mat4 uniforms are skipped and can only be fed by skin bindings.
func (e *Engine) CreateAppearanceBinding(name string, obj scene.Appearance) (*Node, error) {
	return e.createAppearanceBinding(name, obj, 0)
}

func (e *Engine) createAppearanceBinding(name string, obj scene.Appearance, id NodeID) (*Node, error) {
	if err := checkObject(name, obj); err != nil {
		return nil, err
	}
	impl := &appearanceBindingImpl{obj: obj}
	for _, u := range obj.Uniforms() {
		if u.Kind == scene.UniformMat4 {
			continue
		}
		t := uniformType(u.Kind)
		if t == TypeInvalid {
			return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "uniform %q has an unsupported kind", u.Name))
		}
		if u.Count > MaxArraySize {
			return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "uniform %q has %d elements", u.Name, u.Count))
		}
		impl.fields = append(impl.fields, uniformField(obj, u, t))
	}
	return e.registerBinding(name, id, &impl.binding, impl), nil
}

func uniformField(obj scene.Appearance, u scene.Uniform, t Type) bindingField {
	if u.Count <= 1 {
		return bindingField{
			desc: Leaf(u.Name, t),
			get: func() []Value {
				v, _ := obj.Uniform(u.Name)
				return single(uniformValue(t, v))
			},
			set: func(v []Value) error { return obj.SetUniform(u.Name, sceneUniform(v[0])) },
		}
	}
	return bindingField{
		desc: ArrayOf(u.Name, u.Count, Leaf("", t)),
		get: func() []Value {
			raw, _ := obj.Uniform(u.Name)
			items, _ := raw.([]any)
			out := make([]Value, u.Count)
			for i := range out {
				var item any
				if i < len(items) {
					item = items[i]
				}
				out[i] = uniformValue(t, item)
			}
			return out
		},
		set: func(v []Value) error {
			items := make([]any, len(v))
			for i := range v {
				items[i] = sceneUniform(v[i])
			}
			return obj.SetUniform(u.Name, items)
		},
	}
}

func uniformType(k scene.UniformKind) Type {
	switch k {
	case scene.UniformInt32:
		return TypeInt32
	case scene.UniformFloat:
		return TypeFloat
	case scene.UniformVec2f:
		return TypeVec2f
	case scene.UniformVec3f:
		return TypeVec3f
	case scene.UniformVec4f:
		return TypeVec4f
	case scene.UniformVec2i:
		return TypeVec2i
	case scene.UniformVec3i:
		return TypeVec3i
	case scene.UniformVec4i:
		return TypeVec4i
	}
	return TypeInvalid
}

// uniformValue converts a scene uniform value, falling back to zero.
func uniformValue(t Type, x any) Value {
	switch v := x.(type) {
	case int32:
		return Int32Val(v)
	case float32:
		return FloatVal(v)
	case mgl32.Vec2:
		return Vec2fVal(v)
	case mgl32.Vec3:
		return Vec3fVal(v)
	case mgl32.Vec4:
		return Vec4fVal(v)
	case [2]int32:
		return Vec2iVal(Vec2i(v))
	case [3]int32:
		return Vec3iVal(Vec3i(v))
	case [4]int32:
		return Vec4iVal(Vec4i(v))
	}
	return Zero(t)
}

func sceneUniform(v Value) any {
	switch v.Type() {
	case TypeInt32:
		return v.Int32()
	case TypeFloat:
		return v.Float()
	case TypeVec2f:
		return v.Vec2f()
	case TypeVec3f:
		return v.Vec3f()
	case TypeVec4f:
		return v.Vec4f()
	case TypeVec2i:
		return [2]int32(v.Vec2i())
	case TypeVec3i:
		return [3]int32(v.Vec3i())
	case TypeVec4i:
		return [4]int32(v.Vec4i())
	}
	return nil
}

func (e *Engine) updateAppearanceBinding(_ *Node, b *appearanceBindingImpl) error {
	return e.writeBinding(&b.binding)
}

type renderPassBindingImpl struct {
	binding
	obj scene.RenderPass
}

func (*renderPassBindingImpl) kind() NodeKind          { return KindRenderPassBinding }
func (b *renderPassBindingImpl) object() scene.Object { return b.obj }

func (e *Engine) CreateRenderPassBinding(name string, obj scene.RenderPass) (*Node, error) {
	return e.createRenderPassBinding(name, obj, 0)
}

func (e *Engine) createRenderPassBinding(name string, obj scene.RenderPass, id NodeID) (*Node, error) {
	if err := checkObject(name, obj); err != nil {
		return nil, err
	}
	impl := &renderPassBindingImpl{obj: obj}
	impl.fields = []bindingField{
		{
			desc: Leaf("enabled", TypeBool),
			get:  func() []Value { return single(BoolVal(obj.Enabled())) },
			set:  func(v []Value) error { return obj.SetEnabled(v[0].Bool()) },
		},
		{
			desc: Leaf("renderOrder", TypeInt32),
			get:  func() []Value { return single(Int32Val(obj.RenderOrder())) },
			set:  func(v []Value) error { return obj.SetRenderOrder(v[0].Int32()) },
		},
		{
			desc: Leaf("clearColor", TypeVec4f),
			get:  func() []Value { return single(Vec4fVal(obj.ClearColor())) },
			set:  func(v []Value) error { return obj.SetClearColor(v[0].Vec4f()) },
		},
		{
			desc: Leaf("renderOnce", TypeBool),
			get:  func() []Value { return single(BoolVal(obj.RenderOnce())) },
			set:  func(v []Value) error { return obj.SetRenderOnce(v[0].Bool()) },
		},
	}
	return e.registerBinding(name, id, &impl.binding, impl), nil
}

func (e *Engine) updateRenderPassBinding(_ *Node, b *renderPassBindingImpl) error {
	return e.writeBinding(&b.binding)
}

type renderGroupBindingImpl struct {
	binding
	obj      scene.RenderGroup
	elements []string
}

func (*renderGroupBindingImpl) kind() NodeKind          { return KindRenderGroupBinding }
func (b *renderGroupBindingImpl) object() scene.Object { return b.obj }

// CreateRenderGroupBinding exposes renderOrders.<element> for the chosen
// elements, which must all belong to the group.
func (e *Engine) CreateRenderGroupBinding(name string, obj scene.RenderGroup, elements []string) (*Node, error) {
	return e.createRenderGroupBinding(name, obj, elements, 0)
}

func (e *Engine) createRenderGroupBinding(name string, obj scene.RenderGroup, elements []string, id NodeID) (*Node, error) {
	if err := checkObject(name, obj); err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, configErr(name, errors.Wrap(ErrInvalidConfig, "render group binding needs at least one element"))
	}
	var leaves []TypeDesc
	for _, el := range elements {
		if _, ok := obj.ElementRenderOrder(el); !ok {
			return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "%q is not an element of render group %q", el, obj.ObjectName()))
		}
		leaves = append(leaves, Leaf(el, TypeInt32))
	}
	orders := StructOf("renderOrders", leaves...)
	if err := orders.validate(); err != nil {
		return nil, configErr(name, err)
	}

	impl := &renderGroupBindingImpl{obj: obj, elements: slices.Clone(elements)}
	impl.fields = []bindingField{{
		desc: orders,
		get: func() []Value {
			out := make([]Value, len(impl.elements))
			for i, el := range impl.elements {
				o, _ := obj.ElementRenderOrder(el)
				out[i] = Int32Val(o)
			}
			return out
		},
		set: func(v []Value) error {
			for i, el := range impl.elements {
				if o, _ := obj.ElementRenderOrder(el); o == v[i].Int32() {
					continue
				}
				if err := obj.SetElementRenderOrder(el, v[i].Int32()); err != nil {
					return err
				}
			}
			return nil
		},
	}}
	return e.registerBinding(name, id, &impl.binding, impl), nil
}

func (e *Engine) updateRenderGroupBinding(_ *Node, b *renderGroupBindingImpl) error {
	return e.writeBinding(&b.binding)
}

type meshNodeBindingImpl struct {
	binding
	obj scene.MeshNode
}

func (*meshNodeBindingImpl) kind() NodeKind          { return KindMeshNodeBinding }
func (b *meshNodeBindingImpl) object() scene.Object { return b.obj }

func (e *Engine) CreateMeshNodeBinding(name string, obj scene.MeshNode) (*Node, error) {
	return e.createMeshNodeBinding(name, obj, 0)
}

func int32Field(name string, get func() int32, set func(int32) error) bindingField {
	return bindingField{
		desc: Leaf(name, TypeInt32),
		get:  func() []Value { return single(Int32Val(get())) },
		set:  func(v []Value) error { return set(v[0].Int32()) },
	}
}

func (e *Engine) createMeshNodeBinding(name string, obj scene.MeshNode, id NodeID) (*Node, error) {
	if err := checkObject(name, obj); err != nil {
		return nil, err
	}
	impl := &meshNodeBindingImpl{obj: obj}
	impl.fields = []bindingField{
		int32Field("vertexOffset", obj.VertexOffset, obj.SetVertexOffset),
		int32Field("indexOffset", obj.IndexOffset, obj.SetIndexOffset),
		int32Field("indexCount", obj.IndexCount, obj.SetIndexCount),
		int32Field("instanceCount", obj.InstanceCount, obj.SetInstanceCount),
	}
	return e.registerBinding(name, id, &impl.binding, impl), nil
}

func (e *Engine) updateMeshNodeBinding(_ *Node, b *meshNodeBindingImpl) error {
	return e.writeBinding(&b.binding)
}

type renderBufferBindingImpl struct {
	binding
	obj scene.RenderBuffer
}

func (*renderBufferBindingImpl) kind() NodeKind          { return KindRenderBufferBinding }
func (b *renderBufferBindingImpl) object() scene.Object { return b.obj }

func (e *Engine) CreateRenderBufferBinding(name string, obj scene.RenderBuffer) (*Node, error) {
	return e.createRenderBufferBinding(name, obj, 0)
}

func (e *Engine) createRenderBufferBinding(name string, obj scene.RenderBuffer, id NodeID) (*Node, error) {
	if err := checkObject(name, obj); err != nil {
		return nil, err
	}
	impl := &renderBufferBindingImpl{obj: obj}
	impl.fields = []bindingField{
		int32Field("width",
			func() int32 { w, _ := obj.Size(); return w },
			func(w int32) error { _, h := obj.Size(); return obj.SetSize(w, h) },
		),
		int32Field("height",
			func() int32 { _, h := obj.Size(); return h },
			func(h int32) error { w, _ := obj.Size(); return obj.SetSize(w, h) },
		),
		int32Field("sampleCount", obj.SampleCount, obj.SetSampleCount),
	}
	return e.registerBinding(name, id, &impl.binding, impl), nil
}

func (e *Engine) updateRenderBufferBinding(_ *Node, b *renderBufferBindingImpl) error {
	return e.writeBinding(&b.binding)
}
