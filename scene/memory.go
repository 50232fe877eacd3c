package scene

import (
	"slices"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var (
	ErrUnknownUniform = errors.New("unknown uniform")
	ErrUnknownElement = errors.New("unknown render group element")
	ErrOutOfRange     = errors.New("value out of range")
)

// Memory is an in-process scene used by tests and the command line tools.
type Memory struct {
	objects map[uint64]Object
	nextID  uint64
}

func NewMemory() *Memory {
	return &Memory{objects: map[uint64]Object{}, nextID: 1}
}

func (m *Memory) add(o Object) {
	m.objects[o.ObjectID()] = o
}

func (m *Memory) base(name string) base {
	b := base{id: m.nextID, name: name}
	m.nextID++
	return b
}

func (m *Memory) FindObject(id uint64) (Object, bool) {
	o, ok := m.objects[id]
	return o, ok
}

func (m *Memory) FindByName(name string) (Object, bool) {
	for _, o := range m.Objects() {
		if o.ObjectName() == name {
			return o, true
		}
	}
	return nil, false
}

// Objects returns all objects ordered by id.
func (m *Memory) Objects() []Object {
	out := make([]Object, 0, len(m.objects))
	for _, o := range m.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectID() < out[j].ObjectID() })
	return out
}

type base struct {
	id     uint64
	name   string
	writes int
}

func (b *base) ObjectID() uint64   { return b.id }
func (b *base) ObjectName() string { return b.name }

// Writes counts successful setter calls.
func (b *base) Writes() int { return b.writes }

type MemNode struct {
	base
	parent      *MemNode
	visible     bool
	euler       mgl32.Vec3
	rotation    mgl32.Quat
	translation mgl32.Vec3
	scaling     mgl32.Vec3
}

func (m *Memory) NewNode(name string) *MemNode {
	n := &MemNode{
		base:     m.base(name),
		visible:  true,
		rotation: mgl32.QuatIdent(),
		scaling:  mgl32.Vec3{1, 1, 1},
	}
	m.add(n)
	return n
}

func (n *MemNode) SetParent(p *MemNode) { n.parent = p }

func (n *MemNode) Visibility() bool { return n.visible }

func (n *MemNode) SetVisibility(v bool) error {
	n.visible = v
	n.writes++
	return nil
}

func (n *MemNode) RotationEuler() mgl32.Vec3 { return n.euler }

func (n *MemNode) SetRotationEuler(deg mgl32.Vec3) error {
	n.euler = deg
	n.rotation = mgl32.AnglesToQuat(mgl32.DegToRad(deg[0]), mgl32.DegToRad(deg[1]), mgl32.DegToRad(deg[2]), mgl32.XYZ)
	n.writes++
	return nil
}

func (n *MemNode) RotationQuaternion() mgl32.Quat { return n.rotation }

func (n *MemNode) SetRotationQuaternion(q mgl32.Quat) error {
	if q.Len() == 0 {
		return errors.Wrap(ErrOutOfRange, "zero quaternion")
	}
	n.rotation = q.Normalize()
	n.euler = mgl32.Vec3{}
	n.writes++
	return nil
}

func (n *MemNode) Translation() mgl32.Vec3 { return n.translation }

func (n *MemNode) SetTranslation(t mgl32.Vec3) error {
	n.translation = t
	n.writes++
	return nil
}

func (n *MemNode) Scaling() mgl32.Vec3 { return n.scaling }

func (n *MemNode) SetScaling(s mgl32.Vec3) error {
	n.scaling = s
	n.writes++
	return nil
}

// WorldMatrix is parent × translation × rotation × scaling.
func (n *MemNode) WorldMatrix() mgl32.Mat4 {
	local := mgl32.Translate3D(n.translation[0], n.translation[1], n.translation[2]).
		Mul4(n.rotation.Mat4()).
		Mul4(mgl32.Scale3D(n.scaling[0], n.scaling[1], n.scaling[2]))
	if n.parent == nil {
		return local
	}
	return n.parent.WorldMatrix().Mul4(local)
}

type MemCamera struct {
	*MemNode
	projection Projection
	viewport   Viewport
	frustum    Frustum
}

func (m *Memory) NewCamera(name string, p Projection) *MemCamera {
	c := &MemCamera{
		MemNode:    m.NewNode(name),
		projection: p,
		viewport:   Viewport{Width: 16, Height: 16},
		frustum: Frustum{
			Near: 0.1, Far: 100,
			FieldOfView: 90, AspectRatio: 1,
			Left: -1, Right: 1, Bottom: -1, Top: 1,
		},
	}
	m.add(c)
	return c
}

func (c *MemCamera) Projection() Projection { return c.projection }

func (c *MemCamera) Viewport() Viewport { return c.viewport }

func (c *MemCamera) SetViewport(v Viewport) error {
	if v.Width <= 0 || v.Height <= 0 {
		return errors.Wrapf(ErrOutOfRange, "viewport size %dx%d", v.Width, v.Height)
	}
	c.viewport = v
	c.writes++
	return nil
}

func (c *MemCamera) Frustum() Frustum { return c.frustum }

func (c *MemCamera) SetFrustum(f Frustum) error {
	if (c.projection == Perspective && f.Near <= 0) || f.Far <= f.Near {
		return errors.Wrapf(ErrOutOfRange, "frustum planes near %g far %g", f.Near, f.Far)
	}
	c.frustum = f
	c.writes++
	return nil
}

// ViewMatrix is the inverse of the camera's world transform.
func (c *MemCamera) ViewMatrix() mgl32.Mat4 {
	return c.WorldMatrix().Inv()
}

func (c *MemCamera) ProjectionMatrix() mgl32.Mat4 {
	f := c.frustum
	if c.projection == Orthographic {
		return mgl32.Ortho(f.Left, f.Right, f.Bottom, f.Top, f.Near, f.Far)
	}
	return mgl32.Perspective(mgl32.DegToRad(f.FieldOfView), f.AspectRatio, f.Near, f.Far)
}

type MemAppearance struct {
	base
	uniforms []Uniform
	values   map[string]any
}

func (m *Memory) NewAppearance(name string, uniforms ...Uniform) *MemAppearance {
	a := &MemAppearance{base: m.base(name), values: map[string]any{}}
	for _, u := range uniforms {
		if u.Count < 1 {
			u.Count = 1
		}
		a.uniforms = append(a.uniforms, u)
		a.values[u.Name] = zeroUniform(u)
	}
	m.add(a)
	return a
}

func zeroUniform(u Uniform) any {
	if u.Kind == UniformMat4 {
		out := make([]mgl32.Mat4, u.Count)
		for i := range out {
			out[i] = mgl32.Ident4()
		}
		return out
	}
	var zero any
	switch u.Kind {
	case UniformInt32:
		zero = int32(0)
	case UniformFloat:
		zero = float32(0)
	case UniformVec2f:
		zero = mgl32.Vec2{}
	case UniformVec3f:
		zero = mgl32.Vec3{}
	case UniformVec4f:
		zero = mgl32.Vec4{}
	case UniformVec2i:
		zero = [2]int32{}
	case UniformVec3i:
		zero = [3]int32{}
	case UniformVec4i:
		zero = [4]int32{}
	}
	if u.Count == 1 {
		return zero
	}
	out := make([]any, u.Count)
	for i := range out {
		out[i] = zero
	}
	return out
}

func (a *MemAppearance) Uniforms() []Uniform { return slices.Clone(a.uniforms) }

// Uniform returns the current value; non Mat4 arrays are []any.
func (a *MemAppearance) Uniform(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

func (a *MemAppearance) SetUniform(name string, value any) error {
	idx := slices.IndexFunc(a.uniforms, func(u Uniform) bool { return u.Name == name })
	if idx < 0 {
		return errors.Wrap(ErrUnknownUniform, name)
	}
	u := a.uniforms[idx]
	switch v := value.(type) {
	case []mgl32.Mat4:
		if u.Kind != UniformMat4 || len(v) != u.Count {
			return errors.Wrapf(ErrOutOfRange, "uniform %q takes %d values", name, u.Count)
		}
		value = slices.Clone(v)
	case []any:
		if u.Count == 1 || len(v) != u.Count {
			return errors.Wrapf(ErrOutOfRange, "uniform %q takes %d values", name, u.Count)
		}
		value = slices.Clone(v)
	default:
		if u.Count != 1 || u.Kind == UniformMat4 {
			return errors.Wrapf(ErrOutOfRange, "uniform %q takes %d values", name, u.Count)
		}
	}
	a.values[name] = value
	a.writes++
	return nil
}

type MemRenderPass struct {
	base
	enabled     bool
	renderOrder int32
	clearColor  mgl32.Vec4
	renderOnce  bool
}

func (m *Memory) NewRenderPass(name string) *MemRenderPass {
	p := &MemRenderPass{base: m.base(name), enabled: true, clearColor: mgl32.Vec4{0, 0, 0, 1}}
	m.add(p)
	return p
}

func (p *MemRenderPass) Enabled() bool { return p.enabled }

func (p *MemRenderPass) SetEnabled(v bool) error {
	p.enabled = v
	p.writes++
	return nil
}

func (p *MemRenderPass) RenderOrder() int32 { return p.renderOrder }

func (p *MemRenderPass) SetRenderOrder(v int32) error {
	p.renderOrder = v
	p.writes++
	return nil
}

func (p *MemRenderPass) ClearColor() mgl32.Vec4 { return p.clearColor }

func (p *MemRenderPass) SetClearColor(c mgl32.Vec4) error {
	p.clearColor = c
	p.writes++
	return nil
}

func (p *MemRenderPass) RenderOnce() bool { return p.renderOnce }

func (p *MemRenderPass) SetRenderOnce(v bool) error {
	p.renderOnce = v
	p.writes++
	return nil
}

type MemRenderGroup struct {
	base
	elements []string
	orders   map[string]int32
}

func (m *Memory) NewRenderGroup(name string, elements ...string) *MemRenderGroup {
	g := &MemRenderGroup{base: m.base(name), elements: slices.Clone(elements), orders: map[string]int32{}}
	for _, el := range elements {
		g.orders[el] = 0
	}
	m.add(g)
	return g
}

func (g *MemRenderGroup) Elements() []string { return slices.Clone(g.elements) }

func (g *MemRenderGroup) ElementRenderOrder(element string) (int32, bool) {
	o, ok := g.orders[element]
	return o, ok
}

func (g *MemRenderGroup) SetElementRenderOrder(element string, order int32) error {
	if _, ok := g.orders[element]; !ok {
		return errors.Wrap(ErrUnknownElement, element)
	}
	g.orders[element] = order
	g.writes++
	return nil
}

type MemMeshNode struct {
	base
	vertexOffset  int32
	indexOffset   int32
	indexCount    int32
	instanceCount int32
}

func (m *Memory) NewMeshNode(name string) *MemMeshNode {
	mn := &MemMeshNode{base: m.base(name), instanceCount: 1}
	m.add(mn)
	return mn
}

func nonNegative(what string, v int32) error {
	if v < 0 {
		return errors.Wrapf(ErrOutOfRange, "%s %d", what, v)
	}
	return nil
}

func (mn *MemMeshNode) VertexOffset() int32 { return mn.vertexOffset }

func (mn *MemMeshNode) SetVertexOffset(v int32) error {
	if err := nonNegative("vertex offset", v); err != nil {
		return err
	}
	mn.vertexOffset = v
	mn.writes++
	return nil
}

func (mn *MemMeshNode) IndexOffset() int32 { return mn.indexOffset }

func (mn *MemMeshNode) SetIndexOffset(v int32) error {
	if err := nonNegative("index offset", v); err != nil {
		return err
	}
	mn.indexOffset = v
	mn.writes++
	return nil
}

func (mn *MemMeshNode) IndexCount() int32 { return mn.indexCount }

func (mn *MemMeshNode) SetIndexCount(v int32) error {
	if err := nonNegative("index count", v); err != nil {
		return err
	}
	mn.indexCount = v
	mn.writes++
	return nil
}

func (mn *MemMeshNode) InstanceCount() int32 { return mn.instanceCount }

func (mn *MemMeshNode) SetInstanceCount(v int32) error {
	if v < 1 {
		return errors.Wrapf(ErrOutOfRange, "instance count %d", v)
	}
	mn.instanceCount = v
	mn.writes++
	return nil
}

type MemRenderBuffer struct {
	base
	width, height int32
	sampleCount   int32
}

func (m *Memory) NewRenderBuffer(name string, width, height int32) *MemRenderBuffer {
	b := &MemRenderBuffer{base: m.base(name), width: width, height: height}
	m.add(b)
	return b
}

func (b *MemRenderBuffer) Size() (int32, int32) { return b.width, b.height }

func (b *MemRenderBuffer) SetSize(width, height int32) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrOutOfRange, "render buffer size %dx%d", width, height)
	}
	b.width, b.height = width, height
	b.writes++
	return nil
}

func (b *MemRenderBuffer) SampleCount() int32 { return b.sampleCount }

func (b *MemRenderBuffer) SetSampleCount(v int32) error {
	if err := nonNegative("sample count", v); err != nil {
		return err
	}
	b.sampleCount = v
	b.writes++
	return nil
}
