package main

import (
	"testing"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/delaneyj/logicgraph/scenefile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainRunsInBothFormats(t *testing.T) {
	for _, format := range []scenefile.Format{scenefile.YAML, scenefile.TOML} {
		data, err := scenefile.Marshal(chain(3, 4, true), format)
		require.NoError(t, err)
		f, err := scenefile.Parse(data, format)
		require.NoError(t, err)
		assert.Len(t, f.Nodes, 1+3*4)
		assert.Len(t, f.Links, 3*4)

		e, _, err := scenefile.Build(f)
		require.NoError(t, err)
		require.NoError(t, e.Update())
		for i := 0; i < 3; i++ {
			v, _ := logic.Get[int32](e.FindNode("n" + string(rune('0'+i)) + "_3").Output("v"))
			assert.Equal(t, int32(5), v)
		}
	}
}

func TestChainOfInterfaces(t *testing.T) {
	f := chain(2, 2, false)
	e, _, err := scenefile.Build(f)
	require.NoError(t, err)
	require.NoError(t, e.Update())
	v, _ := logic.Get[int32](e.FindNode("n1_1").Output("v"))
	assert.Equal(t, int32(1), v)
}
