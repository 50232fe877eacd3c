package logic_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/delaneyj/logicgraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedClock = logic.WithClock(func() time.Time { return time.UnixMicro(123456) })

func saveLoad(t *testing.T, e *logic.Engine, resolver scene.Resolver) *logic.Engine {
	t.Helper()
	var buf bytes.Buffer
	n, err := e.Save(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	loaded, err := logic.Load(&buf, resolver, fixedClock)
	require.NoError(t, err)
	return loaded
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e := logic.New(fixedClock)
	in := intIface(t, e, "in", "a", "b")
	in.SetUserID(7, 9)
	s, err := e.CreateScript("sum", logic.ScriptConfig{
		Inputs:  []logic.TypeDesc{logic.Leaf("a", logic.TypeInt32), logic.Leaf("b", logic.TypeInt32)},
		Outputs: []logic.TypeDesc{logic.Leaf("sum", logic.TypeInt32), logic.Leaf("p", logic.TypeFloat)},
		Run: []logic.Assignment{
			{Target: "sum", Expr: "inputs.a + inputs.b"},
			{Target: "p", Expr: "inputs.a / 10.0"},
		},
	})
	require.NoError(t, err)
	anim := animation(t, e, "anim", false, logic.AnimationChannel{
		Name:          "x",
		Timestamps:    dataArray(t, e, "ts", []float32{0, 1}),
		Keyframes:     dataArray(t, e, "kf", []mgl32.Vec2{{0, 0}, {10, 20}}),
		Interpolation: logic.InterpolationLinear,
	})
	timer, err := e.CreateTimerNode("timer")
	require.NoError(t, err)
	out, err := e.CreateInterface("out", []logic.TypeDesc{
		logic.Leaf("sum", logic.TypeInt32),
		logic.Leaf("x", logic.TypeVec2f),
		logic.Leaf("us", logic.TypeInt64),
		logic.Leaf("back", logic.TypeInt32),
	})
	require.NoError(t, err)

	//  in ─→ sum ─→ anim ─→ out
	//   ↑              timer ─┘
	//   └──── weak ──── out
	require.NoError(t, e.Link(in.Output("a"), s.Input("a")))
	require.NoError(t, e.Link(in.Output("b"), s.Input("b")))
	require.NoError(t, e.Link(s.Output("p"), anim.Input("progress")))
	require.NoError(t, e.Link(s.Output("sum"), out.Input("sum")))
	require.NoError(t, e.Link(anim.Output("x"), out.Input("x")))
	require.NoError(t, e.Link(timer.Output("ticker_us"), out.Input("us")))
	require.NoError(t, e.LinkWeak(out.Output("sum"), in.Input("b")))

	set(t, in.Input("a"), int32(5))
	require.NoError(t, e.Update())
	require.NoError(t, e.Update())
	before := outputsOf(e)
	assert.Equal(t, logic.Int32Val(10), before["out.sum"])

	loaded := saveLoad(t, e, nil)
	assert.Len(t, loaded.Nodes(), 5)
	assert.Equal(t, e.LinkCount(), loaded.LinkCount())

	f1, err := e.Fingerprint()
	require.NoError(t, err)
	f2, err := loaded.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, f1, f2)

	li := loaded.FindNode("in")
	require.NotNil(t, li)
	assert.Equal(t, in.ID(), li.ID())
	hi, lo := li.UserID()
	assert.Equal(t, uint64(7), hi)
	assert.Equal(t, uint64(9), lo)
	src, weak := loaded.FindNode("in").Input("b").IncomingLink()
	assert.True(t, weak)
	assert.Equal(t, "out", src.Node().Name())

	// the weak link feeds b one update late, so both graphs keep evolving
	// in step
	require.NoError(t, e.Update())
	require.NoError(t, loaded.Update())
	assert.Equal(t, outputsOf(e), outputsOf(loaded))

	// ids keep counting from where the saved engine stopped
	n, err := loaded.CreateTimerNode("next")
	require.NoError(t, err)
	assert.Greater(t, n.ID(), s.ID())
	for _, old := range e.Nodes() {
		assert.NotEqual(t, old.ID(), n.ID())
	}
}

func TestSaveLoadResetsExposedChannelData(t *testing.T) {
	e := logic.New()
	n := animation(t, e, "anim", true, logic.AnimationChannel{
		Name:          "x",
		Timestamps:    dataArray(t, e, "ts", []float32{0, 1}),
		Keyframes:     dataArray(t, e, "kf", []float32{0, 10}),
		Interpolation: logic.InterpolationLinear,
	})
	set(t, n.Input("channelsData.x.keyframes.1"), float32(100))
	assert.InDelta(t, 50, sample(t, e, n, 0.5, "x").Float(), 1e-5)

	loaded := saveLoad(t, e, nil)
	ln := loaded.FindNode("anim")
	p, _ := logic.Get[float32](ln.Input("progress"))
	assert.Equal(t, float32(0.5), p, "progress is persisted")
	kf, _ := logic.Get[float32](ln.Input("channelsData.x.keyframes.1"))
	assert.Equal(t, float32(10), kf, "exposed data comes back from the data arrays")

	require.NoError(t, loaded.Update())
	assert.InDelta(t, 5, ln.Output("x").Value().Float(), 1e-5)
}

func TestSaveLoadBindings(t *testing.T) {
	sc := scene.NewMemory()
	cam := sc.NewCamera("cam", scene.Perspective)
	obj := sc.NewNode("target")
	app := sc.NewAppearance("skin", scene.Uniform{Name: "joints", Kind: scene.UniformMat4, Count: 1})
	group := sc.NewRenderGroup("group", "a", "b")

	e := logic.New()
	nb, err := e.CreateNodeBinding("target", obj, logic.RotationQuaternion)
	require.NoError(t, err)
	cb, err := e.CreateCameraBinding("cam", cam)
	require.NoError(t, err)
	ab, err := e.CreateAppearanceBinding("skin", app)
	require.NoError(t, err)
	_, err = e.CreateRenderGroupBinding("group", group, []string{"b"})
	require.NoError(t, err)
	_, err = e.CreateAnchorPoint("anchor", nb, cb)
	require.NoError(t, err)
	_, err = e.CreateSkinBinding("skinning", logic.SkinConfig{
		Joints:              []*logic.Node{nb},
		InverseBindMatrices: []mgl32.Mat4{mgl32.Ident4()},
		Appearance:          ab,
		Uniform:             "joints",
	})
	require.NoError(t, err)
	set(t, nb.Input("translation"), mgl32.Vec3{0, 0, -5})
	require.NoError(t, e.Update())

	loaded := saveLoad(t, e, sc)
	require.Len(t, loaded.Nodes(), 6)
	for i, n := range loaded.Nodes() {
		assert.Equal(t, e.Nodes()[i].Kind(), n.Kind())
		assert.Equal(t, e.Nodes()[i].Name(), n.Name())
	}
	assert.Same(t, scene.Object(obj), loaded.FindNode("target").SceneObject())
	assert.Equal(t, logic.TypeVec4f, loaded.FindNode("target").Input("rotation").Type())
	assert.True(t, loaded.FindNode("group").Input("renderOrders.b").IsValid())
	assert.Len(t, loaded.FindNode("skinning").Dependencies(), 2)

	require.NoError(t, loaded.Update())
	depth, _ := logic.Get[float32](loaded.FindNode("anchor").Output("depth"))
	want, _ := logic.Get[float32](e.FindNode("anchor").Output("depth"))
	assert.InDelta(t, want, depth, 1e-6)

	var buf bytes.Buffer
	_, err = e.Save(&buf)
	require.NoError(t, err)
	_, err = logic.Load(bytes.NewReader(buf.Bytes()), nil)
	assert.Error(t, err, "bindings need a resolver")
	_, err = logic.Load(bytes.NewReader(buf.Bytes()), scene.NewMemory())
	assert.Error(t, err, "objects must exist in the scene")
}

func TestLoadRejectsCorruption(t *testing.T) {
	e := logic.New()
	intIface(t, e, "a")
	var buf bytes.Buffer
	_, err := e.Save(&buf)
	require.NoError(t, err)
	data := buf.Bytes()

	flipped := bytes.Clone(data)
	flipped[len(flipped)/2] ^= 0xff
	_, err = logic.Load(bytes.NewReader(flipped), nil)
	assert.ErrorIs(t, err, logic.ErrCorruptSnapshot)

	_, err = logic.Load(bytes.NewReader(data[:10]), nil)
	assert.ErrorIs(t, err, logic.ErrCorruptSnapshot)

	_, err = logic.Load(bytes.NewReader([]byte("definitely not a graph")), nil)
	assert.ErrorIs(t, err, logic.ErrCorruptSnapshot)

	_, err = logic.Load(bytes.NewReader(data), nil)
	assert.NoError(t, err)
}
