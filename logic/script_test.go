package logic_test

import (
	"testing"
	"time"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptComputesOutputs(t *testing.T) {
	e := logic.New()
	s, err := e.CreateScript("mix", logic.ScriptConfig{
		Inputs: []logic.TypeDesc{
			logic.Leaf("a", logic.TypeFloat),
			logic.Leaf("b", logic.TypeFloat),
			logic.Leaf("name", logic.TypeString),
		},
		Outputs: []logic.TypeDesc{
			logic.Leaf("sum", logic.TypeFloat),
			logic.Leaf("double", logic.TypeFloat),
			logic.Leaf("pos", logic.TypeVec3f),
			logic.Leaf("count", logic.TypeInt32),
			logic.StructOf("meta", logic.Leaf("label", logic.TypeString), logic.Leaf("big", logic.TypeBool)),
		},
		Run: []logic.Assignment{
			{Target: "sum", Expr: "inputs.a + inputs.b"},
			{Target: "double", Expr: "outputs.sum * 2"},
			{Target: "pos", Expr: "[inputs.a, inputs.b, 0]"},
			{Target: "count", Expr: "len(inputs.name)"},
			{Target: "meta", Expr: `{"label": "hi " + inputs.name, "big": outputs.sum > 10}`},
		},
	})
	require.NoError(t, err)

	set(t, s.Input("a"), float32(4))
	set(t, s.Input("b"), float32(8))
	set(t, s.Input("name"), "bob")
	require.NoError(t, e.Update())

	out := outputsOf(e)
	assert.Equal(t, logic.FloatVal(12), out["mix.sum"])
	assert.Equal(t, logic.FloatVal(24), out["mix.double"], "later assignments see earlier outputs")
	assert.Equal(t, logic.Vec3fVal(mgl32.Vec3{4, 8, 0}), out["mix.pos"])
	assert.Equal(t, logic.Int32Val(3), out["mix.count"])
	assert.Equal(t, logic.StringVal("hi bob"), out["mix.meta.label"])
	assert.Equal(t, logic.BoolVal(true), out["mix.meta.big"])
}

func TestScriptNestedTarget(t *testing.T) {
	e := logic.New()
	s, err := e.CreateScript("s", logic.ScriptConfig{
		Inputs: []logic.TypeDesc{logic.Leaf("i", logic.TypeInt32)},
		Outputs: []logic.TypeDesc{
			logic.ArrayOf("list", 3, logic.Leaf("", logic.TypeInt32)),
		},
		Run: []logic.Assignment{
			{Target: "list", Expr: "[1, 2, 3]"},
			{Target: "list.1", Expr: "inputs.i * 10"},
		},
	})
	require.NoError(t, err)
	set(t, s.Input("i"), int32(7))
	require.NoError(t, e.Update())

	out := outputsOf(e)
	assert.Equal(t, logic.Int32Val(1), out["s.list.0"])
	assert.Equal(t, logic.Int32Val(70), out["s.list.1"])
	assert.Equal(t, logic.Int32Val(3), out["s.list.2"])
}

func TestScriptConfigErrors(t *testing.T) {
	e := logic.New()
	cases := map[string]logic.ScriptConfig{
		"unknown target": {
			Outputs: []logic.TypeDesc{logic.Leaf("x", logic.TypeInt32)},
			Run:     []logic.Assignment{{Target: "y", Expr: "1"}},
		},
		"empty target": {
			Outputs: []logic.TypeDesc{logic.Leaf("x", logic.TypeInt32)},
			Run:     []logic.Assignment{{Expr: "1"}},
		},
		"syntax": {
			Outputs: []logic.TypeDesc{logic.Leaf("x", logic.TypeInt32)},
			Run:     []logic.Assignment{{Target: "x", Expr: "1 +"}},
		},
		"unknown input": {
			Outputs: []logic.TypeDesc{logic.Leaf("x", logic.TypeInt32)},
			Run:     []logic.Assignment{{Target: "x", Expr: "missing + 1"}},
		},
		"duplicate field": {
			Inputs: []logic.TypeDesc{logic.Leaf("a", logic.TypeInt32), logic.Leaf("a", logic.TypeFloat)},
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			n, err := e.CreateScript(name, cfg)
			assert.ErrorIs(t, err, logic.ErrInvalidConfig)
			assert.Nil(t, n)
		})
	}
	assert.Empty(t, e.Nodes())
}

func TestScriptResultTypeMismatch(t *testing.T) {
	e := logic.New()
	_, err := e.CreateScript("s", logic.ScriptConfig{
		Outputs: []logic.TypeDesc{logic.Leaf("x", logic.TypeInt32)},
		Run:     []logic.Assignment{{Target: "x", Expr: `"nope"`}},
	})
	require.NoError(t, err)

	err = e.Update()
	var rtErr *logic.RuntimeError
	require.ErrorAs(t, err, &rtErr)
	assert.ErrorIs(t, err, logic.ErrTypeMismatch)
}

func TestTimerNode(t *testing.T) {
	now := time.UnixMicro(1_000_000)
	e := logic.New(logic.WithClock(func() time.Time { return now }), logic.WithUpdateReport(true))
	timer, err := e.CreateTimerNode("timer")
	require.NoError(t, err)
	assert.True(t, timer.AlwaysDirty())
	sink, err := e.CreateInterface("sink", []logic.TypeDesc{logic.Leaf("us", logic.TypeInt64)})
	require.NoError(t, err)
	require.NoError(t, e.Link(timer.Output("ticker_us"), sink.Input("us")))

	require.NoError(t, e.Update())
	us, _ := logic.Get[int64](sink.Output("us"))
	assert.Equal(t, int64(1_000_000), us)

	now = now.Add(16 * time.Millisecond)
	require.NoError(t, e.Update())
	us, _ = logic.Get[int64](sink.Output("us"))
	assert.Equal(t, int64(1_016_000), us)

	// a non-zero input is passed through instead of the clock
	set(t, timer.Input("ticker_us"), int64(5))
	require.NoError(t, e.Update())
	us, _ = logic.Get[int64](sink.Output("us"))
	assert.Equal(t, int64(5), us)

	require.NoError(t, e.Update())
	assert.Equal(t, []string{"timer"}, executed(e), "timers run every update")
}
