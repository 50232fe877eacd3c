package scene_test

import (
	"testing"

	"github.com/delaneyj/logicgraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLookup(t *testing.T) {
	m := scene.NewMemory()
	n := m.NewNode("node")
	cam := m.NewCamera("cam", scene.Perspective)
	pass := m.NewRenderPass("pass")

	o, ok := m.FindObject(n.ObjectID())
	require.True(t, ok)
	assert.Same(t, scene.Object(n), o)

	o, ok = m.FindByName("cam")
	require.True(t, ok)
	_, isCamera := o.(scene.Camera)
	assert.True(t, isCamera)
	_, isNode := o.(scene.Node)
	assert.True(t, isNode, "cameras are scene nodes too")
	assert.Same(t, scene.Object(cam), o)

	objs := m.Objects()
	require.Len(t, objs, 3)
	assert.Equal(t, "pass", objs[2].ObjectName())
	assert.Same(t, scene.Object(pass), objs[2])

	_, ok = m.FindObject(999)
	assert.False(t, ok)
	_, ok = m.FindByName("nope")
	assert.False(t, ok)
}

func TestMemNodeWorldMatrix(t *testing.T) {
	m := scene.NewMemory()
	parent := m.NewNode("parent")
	child := m.NewNode("child")
	child.SetParent(parent)

	require.NoError(t, parent.SetTranslation(mgl32.Vec3{1, 0, 0}))
	require.NoError(t, parent.SetRotationEuler(mgl32.Vec3{0, 0, 90}))
	require.NoError(t, child.SetTranslation(mgl32.Vec3{1, 0, 0}))
	require.NoError(t, child.SetScaling(mgl32.Vec3{2, 2, 2}))

	p := child.WorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 1, p[0], 1e-5)
	assert.InDelta(t, 1, p[1], 1e-5)
	assert.Equal(t, 2, parent.Writes())

	assert.ErrorIs(t, child.SetRotationQuaternion(mgl32.Quat{}), scene.ErrOutOfRange)
	require.NoError(t, child.SetRotationQuaternion(mgl32.Quat{W: 2}))
	assert.InDelta(t, 1, child.RotationQuaternion().W, 1e-6)
}

func TestMemCamera(t *testing.T) {
	m := scene.NewMemory()
	cam := m.NewCamera("cam", scene.Orthographic)
	assert.Equal(t, scene.Orthographic, cam.Projection())
	assert.Equal(t, "orthographic", cam.Projection().String())

	assert.ErrorIs(t, cam.SetViewport(scene.Viewport{Width: 0, Height: 1}), scene.ErrOutOfRange)
	require.NoError(t, cam.SetViewport(scene.Viewport{OffsetX: 2, Width: 4, Height: 4}))
	assert.Equal(t, int32(2), cam.Viewport().OffsetX)

	f := cam.Frustum()
	f.Far = f.Near
	assert.ErrorIs(t, cam.SetFrustum(f), scene.ErrOutOfRange)

	// orthographic near may be zero or negative
	f = cam.Frustum()
	f.Near = -1
	require.NoError(t, cam.SetFrustum(f))

	require.NoError(t, cam.SetTranslation(mgl32.Vec3{0, 0, 3}))
	assert.True(t, cam.ViewMatrix().ApproxEqual(mgl32.Translate3D(0, 0, -3)))
}

func TestMemAppearance(t *testing.T) {
	m := scene.NewMemory()
	app := m.NewAppearance("mat",
		scene.Uniform{Name: "color", Kind: scene.UniformVec3f},
		scene.Uniform{Name: "ids", Kind: scene.UniformInt32, Count: 2},
		scene.Uniform{Name: "bones", Kind: scene.UniformMat4, Count: 2},
	)
	assert.Len(t, app.Uniforms(), 3)

	v, ok := app.Uniform("bones")
	require.True(t, ok)
	assert.Equal(t, []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()}, v)

	require.NoError(t, app.SetUniform("color", mgl32.Vec3{1, 2, 3}))
	require.NoError(t, app.SetUniform("ids", []any{int32(1), int32(2)}))
	assert.ErrorIs(t, app.SetUniform("ids", int32(1)), scene.ErrOutOfRange)
	assert.ErrorIs(t, app.SetUniform("bones", []mgl32.Mat4{mgl32.Ident4()}), scene.ErrOutOfRange)
	assert.ErrorIs(t, app.SetUniform("missing", int32(1)), scene.ErrUnknownUniform)
	assert.Equal(t, 2, app.Writes())
}

func TestMemRenderObjects(t *testing.T) {
	m := scene.NewMemory()
	g := m.NewRenderGroup("group", "a", "b")
	require.NoError(t, g.SetElementRenderOrder("b", 4))
	o, ok := g.ElementRenderOrder("b")
	require.True(t, ok)
	assert.Equal(t, int32(4), o)
	assert.ErrorIs(t, g.SetElementRenderOrder("c", 1), scene.ErrUnknownElement)

	mesh := m.NewMeshNode("mesh")
	assert.Equal(t, int32(1), mesh.InstanceCount())
	assert.ErrorIs(t, mesh.SetIndexOffset(-1), scene.ErrOutOfRange)
	assert.ErrorIs(t, mesh.SetInstanceCount(0), scene.ErrOutOfRange)

	buf := m.NewRenderBuffer("buf", 64, 32)
	assert.ErrorIs(t, buf.SetSize(0, 32), scene.ErrOutOfRange)
	w, h := buf.Size()
	assert.Equal(t, int32(64), w)
	assert.Equal(t, int32(32), h)
}
