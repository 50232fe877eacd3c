package scenefile_test

import (
	"path/filepath"
	"testing"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/delaneyj/logicgraph/scene"
	"github.com/delaneyj/logicgraph/scenefile"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOf(t *testing.T) {
	f, err := scenefile.FormatOf("a/b.YML")
	require.NoError(t, err)
	assert.Equal(t, scenefile.YAML, f)
	f, err = scenefile.FormatOf("demo.toml")
	require.NoError(t, err)
	assert.Equal(t, scenefile.TOML, f)
	_, err = scenefile.FormatOf("demo.json")
	assert.Error(t, err)
}

func TestDemoFilesBuildTheSameGraph(t *testing.T) {
	for _, name := range []string{"demo.yaml", "demo.toml"} {
		t.Run(name, func(t *testing.T) {
			f, err := scenefile.Load(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Len(t, f.Nodes, 6)
			assert.Len(t, f.Links, 5)

			e, mem, err := scenefile.Build(f)
			require.NoError(t, err)
			require.NoError(t, e.Update())

			obj, ok := mem.FindByName("cube")
			require.True(t, ok)
			cube := obj.(scene.Node)
			assert.Equal(t, mgl32.Vec3{0, 2, -5}, cube.Translation())
			assert.Equal(t, mgl32.Vec3{0, 45, 0}, cube.RotationEuler())

			anchor := e.FindNode("anchor")
			require.NotNil(t, anchor)
			coords, _ := logic.Get[mgl32.Vec2](anchor.Output("viewportCoords"))
			assert.InDelta(t, 8, coords[0], 1e-4)
			assert.InDelta(t, 11.2, coords[1], 1e-4)
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := scenefile.Parse([]byte("nodes:\n  - name: a\n    kind: interface\n    colour: red\n"), scenefile.YAML)
	assert.Error(t, err)
	_, err = scenefile.Parse([]byte("[[nodes]]\nname = \"a\"\ncolour = \"red\"\n"), scenefile.TOML)
	assert.Error(t, err)

	f, err := scenefile.Parse(nil, scenefile.YAML)
	require.NoError(t, err)
	assert.Empty(t, f.Nodes)
}

func TestMarshalRoundTrip(t *testing.T) {
	f, err := scenefile.Load(filepath.Join("testdata", "demo.yaml"))
	require.NoError(t, err)
	for _, format := range []scenefile.Format{scenefile.YAML, scenefile.TOML} {
		data, err := scenefile.Marshal(f, format)
		require.NoError(t, err)
		back, err := scenefile.Parse(data, format)
		require.NoError(t, err)
		assert.Equal(t, f.Nodes, back.Nodes)
		assert.Equal(t, f.Links, back.Links)
	}
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]string{
		"unknown kind":   "nodes:\n  - {name: a, kind: gadget}\n",
		"unknown object": "nodes:\n  - {name: a, kind: NodeBinding, object: ghost}\n",
		"wrong object": "scene:\n  - {name: p, kind: renderpass}\n" +
			"nodes:\n  - {name: a, kind: NodeBinding, object: p}\n",
		"bad link": "nodes:\n  - {name: a, kind: interface, fields: [{name: v, type: int32}]}\n" +
			"links:\n  - {from: a.v, to: a.nope}\n",
		"bad value": "nodes:\n  - {name: a, kind: interface, fields: [{name: v, type: int32}]}\n" +
			"set:\n  - {path: a.v, value: hello}\n",
		"bad array": "arrays:\n  - {name: x, type: vec2f, values: [1, 2]}\n",
		"array without element": "nodes:\n  - {name: a, kind: interface, fields: [{name: v, type: array, size: 2}]}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := scenefile.Parse([]byte(src), scenefile.YAML)
			require.NoError(t, err)
			_, _, err = scenefile.Build(f)
			assert.Error(t, err)
		})
	}
}
