package logic_test

import (
	"testing"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	e := logic.New()
	a := intIface(t, e, "a")
	b := intIface(t, e, "b")
	_, err := e.CreateScript("lonely", logic.ScriptConfig{
		Outputs: []logic.TypeDesc{logic.Leaf("x", logic.TypeInt32)},
	})
	require.NoError(t, err)
	dataArray(t, e, "unused", []float32{1})

	//  a ──weak──→ b
	require.NoError(t, e.LinkWeak(a.Output("v"), b.Input("v")))

	var got []string
	for _, w := range e.Validate() {
		got = append(got, w.String())
	}
	assert.ElementsMatch(t, []string{
		"a: input a.inputs.v is not linked",
		"b: output b.outputs.v is not used",
		"lonely: node is not linked to anything",
		"b: weak link a.outputs.v -> b.inputs.v may deliver values one update late",
		`data array "unused" is not used`,
	}, got)

	require.NoError(t, e.Unlink(a.Output("v"), b.Input("v")))
	require.NoError(t, e.Link(a.Output("v"), b.Input("v")))
	for _, w := range e.Validate() {
		assert.NotContains(t, w.Message, "weak")
	}
}
