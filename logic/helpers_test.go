package logic_test

import (
	"strconv"
	"testing"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/stretchr/testify/require"
)

func intIface(t *testing.T, e *logic.Engine, name string, fields ...string) *logic.Node {
	t.Helper()
	if len(fields) == 0 {
		fields = []string{"v"}
	}
	var descs []logic.TypeDesc
	for _, f := range fields {
		descs = append(descs, logic.Leaf(f, logic.TypeInt32))
	}
	n, err := e.CreateInterface(name, descs)
	require.NoError(t, err)
	return n
}

func floatIface(t *testing.T, e *logic.Engine, name string) *logic.Node {
	t.Helper()
	n, err := e.CreateInterface(name, []logic.TypeDesc{logic.Leaf("v", logic.TypeFloat)})
	require.NoError(t, err)
	return n
}

func set[T logic.Scalar](t *testing.T, p logic.Property, v T) {
	t.Helper()
	_, err := logic.Set(p, v)
	require.NoError(t, err)
}

func executed(e *logic.Engine) []string {
	var names []string
	for _, n := range e.LastUpdateReport().Executed {
		names = append(names, n.Name)
	}
	return names
}

// leaves flattens a property tree into path → value.
func leaves(prefix string, p logic.Property, out map[string]logic.Value) map[string]logic.Value {
	if out == nil {
		out = map[string]logic.Value{}
	}
	if !p.Type().IsContainer() {
		out[prefix] = p.Value()
		return out
	}
	for i := 0; i < p.ChildCount(); i++ {
		c := p.ChildAt(i)
		name := c.Name()
		if p.Type() == logic.TypeArray {
			name = strconv.Itoa(i)
		}
		leaves(prefix+"."+name, c, out)
	}
	return out
}

func outputsOf(e *logic.Engine) map[string]logic.Value {
	out := map[string]logic.Value{}
	for _, n := range e.Nodes() {
		if root, ok := n.Outputs(); ok {
			leaves(n.Name(), root, out)
		}
	}
	return out
}

func dataArray(t *testing.T, e *logic.Engine, name string, data any) *logic.DataArray {
	t.Helper()
	a, err := e.CreateDataArray(name, data)
	require.NoError(t, err)
	return a
}
