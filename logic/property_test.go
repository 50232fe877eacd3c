package logic_test

import (
	"testing"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nested(t *testing.T, e *logic.Engine) *logic.Node {
	n, err := e.CreateInterface("nested", []logic.TypeDesc{
		logic.Leaf("flag", logic.TypeBool),
		logic.StructOf("pose",
			logic.Leaf("position", logic.TypeVec3f),
			logic.Leaf("label", logic.TypeString),
		),
		logic.ArrayOf("weights", 3, logic.Leaf("", logic.TypeFloat)),
	})
	require.NoError(t, err)
	return n
}

func TestPropertyTreeShape(t *testing.T) {
	e := logic.New()
	n := nested(t, e)

	in := n.Inputs()
	assert.Equal(t, logic.TypeStruct, in.Type())
	assert.Equal(t, 3, in.ChildCount())
	assert.Equal(t, logic.TypeVec3f, in.Lookup("pose.position").Type())
	assert.Equal(t, logic.TypeArray, n.Input("weights").Type())
	assert.Equal(t, 3, n.Input("weights").ChildCount())
	assert.Equal(t, logic.TypeFloat, n.Input("weights.2").Type())
	assert.Equal(t, 0, n.Input("weights.2").ChildCount())

	assert.False(t, n.Input("weights.3").IsValid())
	assert.False(t, n.Input("missing").IsValid())
	assert.False(t, in.Child("weights").Child("x").IsValid())
	assert.False(t, in.ChildAt(-1).IsValid())

	assert.True(t, n.Input("flag").IsInput())
	assert.True(t, n.Output("flag").IsOutput())
	assert.Equal(t, n, n.Output("pose.label").Node())
	assert.Equal(t, "nested.inputs.weights.1", n.Input("weights.1").Path())
	assert.Equal(t, "nested.outputs.pose.position", n.Output("pose.position").Path())
}

func TestPropertySetGet(t *testing.T) {
	e := logic.New()
	n := nested(t, e)
	require.NoError(t, e.Update())
	assert.False(t, n.IsDirty())

	changed, err := logic.Set(n.Input("pose.position"), mgl32.Vec3{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, n.IsDirty())

	changed, err = logic.Set(n.Input("pose.position"), mgl32.Vec3{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, changed, "same value is not a change")

	v, ok := logic.Get[mgl32.Vec3](n.Input("pose.position"))
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, v)

	_, ok = logic.Get[float32](n.Input("pose.position"))
	assert.False(t, ok)

	require.NoError(t, e.Update())
	pos, _ := logic.Get[mgl32.Vec3](n.Output("pose.position"))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, pos)
}

func TestPropertySetErrors(t *testing.T) {
	e := logic.New()
	n := nested(t, e)

	_, err := logic.Set(n.Input("flag"), float32(1))
	assert.ErrorIs(t, err, logic.ErrTypeMismatch)

	_, err = n.Input("pose").Set(logic.BoolVal(true))
	assert.ErrorIs(t, err, logic.ErrNotLeaf)

	_, err = logic.Set(n.Output("flag"), true)
	assert.ErrorIs(t, err, logic.ErrOutputReadOnly)

	flag := n.Input("flag")
	require.NoError(t, e.Destroy(n))
	assert.False(t, flag.IsValid())
	_, err = logic.Set(flag, true)
	assert.ErrorIs(t, err, logic.ErrPropertyGone)
}

func TestHandlesSurviveSlotReuse(t *testing.T) {
	e := logic.New()
	a := intIface(t, e, "a")
	stale := a.Input("v")
	require.NoError(t, e.Destroy(a))

	b := intIface(t, e, "b")
	assert.False(t, stale.IsValid(), "a recycled slot must not revive an old handle")
	_, err := logic.Set(stale, int32(1))
	assert.ErrorIs(t, err, logic.ErrPropertyGone)
	assert.True(t, b.Input("v").IsValid())
}

func TestInvalidInterfaceConfig(t *testing.T) {
	e := logic.New()
	cases := map[string][]logic.TypeDesc{
		"duplicate field": {logic.Leaf("a", logic.TypeInt32), logic.Leaf("a", logic.TypeFloat)},
		"empty name":      {logic.Leaf("", logic.TypeInt32)},
		"huge array":      {logic.ArrayOf("a", 256, logic.Leaf("", logic.TypeFloat))},
		"empty array":     {logic.ArrayOf("a", 0, logic.Leaf("", logic.TypeFloat))},
		"invalid type":    {logic.Leaf("a", logic.TypeInvalid)},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			n, err := e.CreateInterface("bad", fields)
			assert.Nil(t, n)
			var cfgErr *logic.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "bad", cfgErr.Name)
		})
	}
	assert.Empty(t, e.Nodes())
}

func TestValueFromAny(t *testing.T) {
	v, err := logic.ValueFromAny(logic.TypeVec3i, []any{1, int64(2), 3.0})
	require.NoError(t, err)
	assert.Equal(t, logic.Vec3iVal(logic.Vec3i{1, 2, 3}), v)

	_, err = logic.ValueFromAny(logic.TypeInt32, 1.5)
	assert.ErrorIs(t, err, logic.ErrTypeMismatch)

	_, err = logic.ValueFromAny(logic.TypeInt32, int64(1)<<40)
	assert.ErrorIs(t, err, logic.ErrTypeMismatch)

	_, err = logic.ValueFromAny(logic.TypeVec2f, []any{1.0})
	assert.ErrorIs(t, err, logic.ErrTypeMismatch)

	v, err = logic.ValueFromAny(logic.TypeFloat, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(2), v.Float())
}

func TestParseType(t *testing.T) {
	for _, typ := range []logic.Type{logic.TypeBool, logic.TypeInt64, logic.TypeVec4i, logic.TypeStruct} {
		parsed, err := logic.ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := logic.ParseType("quaternion")
	assert.Error(t, err)
}
