package logic_test

import (
	"testing"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkValidation(t *testing.T) {
	e := logic.New()
	a := intIface(t, e, "a")
	b := intIface(t, e, "b")
	f := floatIface(t, e, "f")
	n := nested(t, e)

	cases := []struct {
		name     string
		src, dst logic.Property
		want     error
	}{
		{"input to input", a.Input("v"), b.Input("v"), logic.ErrLinkDirection},
		{"output to output", a.Output("v"), b.Output("v"), logic.ErrLinkDirection},
		{"type mismatch", a.Output("v"), f.Input("v"), logic.ErrTypeMismatch},
		{"self link", a.Output("v"), a.Input("v"), logic.ErrSelfLink},
		{"container", n.Output("pose"), n.Input("pose"), logic.ErrNotLeaf},
		{"invalid property", logic.Property{}, b.Input("v"), logic.ErrPropertyGone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Link(tc.src, tc.dst)
			require.ErrorIs(t, err, tc.want)
			var linkErr *logic.LinkError
			assert.ErrorAs(t, err, &linkErr)
		})
	}
	assert.Zero(t, e.LinkCount())
}

func TestLinkAcrossEnginesFails(t *testing.T) {
	e1, e2 := logic.New(), logic.New()
	a := intIface(t, e1, "a")
	b := intIface(t, e2, "b")

	assert.ErrorIs(t, e1.Link(a.Output("v"), b.Input("v")), logic.ErrForeignEngine)
	assert.ErrorIs(t, e2.Link(a.Output("v"), b.Input("v")), logic.ErrForeignEngine)
	assert.False(t, e1.IsLinked(a))
}

func TestSecondLinkToSameInputFails(t *testing.T) {
	e := logic.New()
	a := intIface(t, e, "a")
	b := intIface(t, e, "b")
	c := intIface(t, e, "c")

	require.NoError(t, e.Link(a.Output("v"), c.Input("v")))
	err := e.Link(b.Output("v"), c.Input("v"))
	require.ErrorIs(t, err, logic.ErrAlreadyLinked)

	src, weak := c.Input("v").IncomingLink()
	assert.Equal(t, a.Output("v"), src, "original link is intact")
	assert.False(t, weak)
	assert.Equal(t, 1, e.LinkCount())

	set(t, a.Input("v"), int32(7))
	set(t, b.Input("v"), int32(9))
	require.NoError(t, e.Update())
	v, _ := logic.Get[int32](c.Output("v"))
	assert.Equal(t, int32(7), v)
}

func TestOneOutputManyTargets(t *testing.T) {
	e := logic.New()
	a := intIface(t, e, "a")
	b := intIface(t, e, "b")
	c := intIface(t, e, "c")

	require.NoError(t, e.Link(a.Output("v"), b.Input("v")))
	require.NoError(t, e.Link(a.Output("v"), c.Input("v")))
	assert.True(t, a.Output("v").HasOutgoingLinks())
	assert.True(t, b.Input("v").HasIncomingLink())

	set(t, a.Input("v"), int32(3))
	require.NoError(t, e.Update())
	for _, n := range []*logic.Node{b, c} {
		v, _ := logic.Get[int32](n.Output("v"))
		assert.Equal(t, int32(3), v, n.Name())
	}
}

func TestUnlink(t *testing.T) {
	e := logic.New()
	a := intIface(t, e, "a")
	b := intIface(t, e, "b")
	c := intIface(t, e, "c")

	assert.ErrorIs(t, e.Unlink(a.Output("v"), b.Input("v")), logic.ErrNotLinked)

	require.NoError(t, e.Link(a.Output("v"), b.Input("v")))
	assert.ErrorIs(t, e.Unlink(c.Output("v"), b.Input("v")), logic.ErrNotLinked)
	assert.True(t, e.IsLinked(b))

	require.NoError(t, e.Unlink(a.Output("v"), b.Input("v")))
	assert.False(t, e.IsLinked(a))
	assert.False(t, e.IsLinked(b))
	assert.Zero(t, e.LinkCount())
	assert.ErrorIs(t, e.Unlink(a.Output("v"), b.Input("v")), logic.ErrNotLinked)
}

func TestDestroyRemovesLinks(t *testing.T) {
	e := logic.New()
	a := intIface(t, e, "a")
	b := intIface(t, e, "b")
	c := intIface(t, e, "c")

	// a -> b -> c
	require.NoError(t, e.Link(a.Output("v"), b.Input("v")))
	require.NoError(t, e.Link(b.Output("v"), c.Input("v")))

	require.NoError(t, e.Destroy(b))
	assert.False(t, e.IsLinked(a))
	assert.False(t, e.IsLinked(c))
	assert.False(t, a.Output("v").HasOutgoingLinks())
	assert.False(t, c.Input("v").HasIncomingLink())
	assert.Zero(t, e.LinkCount())
	assert.Len(t, e.Nodes(), 2)
	assert.Nil(t, e.FindNode("b"))
	assert.Nil(t, e.FindNodeByID(b.ID()))

	assert.ErrorIs(t, e.Destroy(b), logic.ErrNodeGone)
	assert.NoError(t, e.Update())
}

func TestLinksListing(t *testing.T) {
	e := logic.New()
	a := intIface(t, e, "a", "x", "y")
	b := intIface(t, e, "b", "x", "y")

	require.NoError(t, e.Link(a.Output("y"), b.Input("y")))
	require.NoError(t, e.LinkWeak(a.Output("x"), b.Input("x")))

	links := e.Links()
	require.Len(t, links, 2)
	assert.Equal(t, b.Input("x"), links[0].Target)
	assert.True(t, links[0].Weak)
	assert.Equal(t, a.Output("y"), links[1].Source)
	assert.False(t, links[1].Weak)
}
