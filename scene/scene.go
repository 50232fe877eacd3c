// Package scene describes the externally owned graphics objects that logic
// bindings write into. The logic engine never owns these objects; they must
// outlive the bindings referring to them.
package scene

import "github.com/go-gl/mathgl/mgl32"

type Object interface {
	ObjectID() uint64
	ObjectName() string
}

// Resolver finds objects by id when a saved graph is loaded.
type Resolver interface {
	FindObject(id uint64) (Object, bool)
}

type Node interface {
	Object
	Visibility() bool
	SetVisibility(bool) error
	// RotationEuler is in degrees, applied in XYZ order.
	RotationEuler() mgl32.Vec3
	SetRotationEuler(mgl32.Vec3) error
	RotationQuaternion() mgl32.Quat
	SetRotationQuaternion(mgl32.Quat) error
	Translation() mgl32.Vec3
	SetTranslation(mgl32.Vec3) error
	Scaling() mgl32.Vec3
	SetScaling(mgl32.Vec3) error
	WorldMatrix() mgl32.Mat4
}

type Projection uint8

const (
	Perspective Projection = iota + 1
	Orthographic
)

func (p Projection) String() string {
	switch p {
	case Perspective:
		return "perspective"
	case Orthographic:
		return "orthographic"
	}
	return "invalid"
}

type Viewport struct {
	OffsetX, OffsetY int32
	Width, Height    int32
}

// Frustum holds the planes of both projections. Perspective cameras use
// Near, Far, FieldOfView (vertical, degrees) and AspectRatio; orthographic
// cameras use the six planes.
type Frustum struct {
	Near, Far                float32
	FieldOfView, AspectRatio float32
	Left, Right, Bottom, Top float32
}

type Camera interface {
	Object
	Projection() Projection
	Viewport() Viewport
	SetViewport(Viewport) error
	Frustum() Frustum
	SetFrustum(Frustum) error
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
}

type UniformKind uint8

const (
	UniformInt32 UniformKind = iota + 1
	UniformFloat
	UniformVec2f
	UniformVec3f
	UniformVec4f
	UniformVec2i
	UniformVec3i
	UniformVec4i
	UniformMat4
)

// Uniform describes one shader input. Count above 1 makes it an array.
type Uniform struct {
	Name  string
	Kind  UniformKind
	Count int
}

// Appearance uniform values are int32, float32, mgl32.Vec2/3/4, [2]int32,
// [3]int32, [4]int32 or mgl32.Mat4, and slices of those for arrays. Mat4
// uniforms always take []mgl32.Mat4.
type Appearance interface {
	Object
	Uniforms() []Uniform
	Uniform(name string) (any, bool)
	SetUniform(name string, value any) error
}

type RenderPass interface {
	Object
	Enabled() bool
	SetEnabled(bool) error
	RenderOrder() int32
	SetRenderOrder(int32) error
	ClearColor() mgl32.Vec4
	SetClearColor(mgl32.Vec4) error
	RenderOnce() bool
	SetRenderOnce(bool) error
}

type RenderGroup interface {
	Object
	Elements() []string
	ElementRenderOrder(element string) (int32, bool)
	SetElementRenderOrder(element string, order int32) error
}

type MeshNode interface {
	Object
	VertexOffset() int32
	SetVertexOffset(int32) error
	IndexOffset() int32
	SetIndexOffset(int32) error
	IndexCount() int32
	SetIndexCount(int32) error
	InstanceCount() int32
	SetInstanceCount(int32) error
}

type RenderBuffer interface {
	Object
	Size() (width, height int32)
	SetSize(width, height int32) error
	SampleCount() int32
	SetSampleCount(int32) error
}
