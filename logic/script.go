package logic

import (
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// Assignment sets the output at Target (a Lookup path under outputs) to the
// result of Expr. Expressions see the current `inputs` and the `outputs`
// assigned so far.
type Assignment struct {
	Target string `yaml:"target" toml:"target"`
	Expr   string `yaml:"expr" toml:"expr"`
}

type ScriptConfig struct {
	Inputs  []TypeDesc   `yaml:"inputs" toml:"inputs"`
	Outputs []TypeDesc   `yaml:"outputs" toml:"outputs"`
	Run     []Assignment `yaml:"run" toml:"run"`
}

type scriptImpl struct {
	cfg      ScriptConfig
	programs []*vm.Program
	targets  [][]int
}

func (*scriptImpl) kind() NodeKind { return KindScript }

// fail("message") aborts the running update with a runtime error.
var failFunc = expr.Function("fail", func(params ...any) (any, error) {
	if len(params) == 0 {
		return nil, errors.New("script failed")
	}
	return nil, errors.Errorf("%v", params[0])
})

func (e *Engine) CreateScript(name string, cfg ScriptConfig) (*Node, error) {
	return e.createScript(name, cfg, 0)
}

func (e *Engine) createScript(name string, cfg ScriptConfig, id NodeID) (*Node, error) {
	if err := validateFields(name, cfg.Inputs); err != nil {
		return nil, configErr(name, err)
	}
	if err := validateFields(name, cfg.Outputs); err != nil {
		return nil, configErr(name, err)
	}
	in, out := StructOf("", cfg.Inputs...), StructOf("", cfg.Outputs...)
	sample := map[string]any{
		"inputs":  descToAny(in),
		"outputs": descToAny(out),
	}

	impl := &scriptImpl{cfg: cfg}
	for _, a := range cfg.Run {
		path, ok := descLookup(out, a.Target)
		if !ok || a.Target == "" {
			return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "unknown output %q", a.Target))
		}
		prog, err := expr.Compile(a.Expr, expr.Env(sample), failFunc)
		if err != nil {
			return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "output %q: %v", a.Target, err))
		}
		impl.programs = append(impl.programs, prog)
		impl.targets = append(impl.targets, path)
	}
	return e.register(name, id, in, &out, impl), nil
}

func (e *Engine) updateScript(n *Node, s *scriptImpl) error {
	env := map[string]any{
		"inputs":  e.treeToAny(n.inputs),
		"outputs": e.treeToAny(n.outputs),
	}
	for i, prog := range s.programs {
		target := s.cfg.Run[i].Target
		result, err := expr.Run(prog, env)
		if err != nil {
			return errors.Wrapf(err, "evaluating %q", target)
		}
		h, _ := e.props.resolve(n.outputs, s.targets[i])
		if err := e.assignAny(h, result); err != nil {
			return errors.Wrapf(err, "assigning %q", target)
		}
		env["outputs"] = e.treeToAny(n.outputs)
	}
	return nil
}

// descLookup resolves a Lookup style path against a description.
func descLookup(d TypeDesc, path string) ([]int, bool) {
	var out []int
	if path == "" {
		return out, true
	}
	for _, seg := range strings.Split(path, ".") {
		found := -1
		switch d.Type {
		case TypeStruct:
			for i, c := range d.Children {
				if c.Name == seg {
					found = i
					break
				}
			}
		case TypeArray:
			if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(d.Children) {
				found = i
			}
		}
		if found < 0 {
			return nil, false
		}
		out = append(out, found)
		d = d.Children[found]
	}
	return out, true
}

// Script representation of values: integers as int, floats as float64,
// vectors as slices, structs as maps, arrays as []any.

func descToAny(d TypeDesc) any {
	switch d.Type {
	case TypeStruct:
		m := make(map[string]any, len(d.Children))
		for _, c := range d.Children {
			m[c.Name] = descToAny(c)
		}
		return m
	case TypeArray:
		s := make([]any, len(d.Children))
		for i, c := range d.Children {
			s[i] = descToAny(c)
		}
		return s
	}
	return valueToAny(Zero(d.Type))
}

func (e *Engine) treeToAny(h handle) any {
	rec := e.props.get(h)
	if rec == nil {
		return nil
	}
	switch rec.typ {
	case TypeStruct:
		m := make(map[string]any, len(rec.children))
		for _, c := range rec.children {
			m[e.props.get(c).name] = e.treeToAny(c)
		}
		return m
	case TypeArray:
		s := make([]any, len(rec.children))
		for i, c := range rec.children {
			s[i] = e.treeToAny(c)
		}
		return s
	}
	return valueToAny(rec.value)
}

func valueToAny(v Value) any {
	switch v.t {
	case TypeBool:
		return v.b
	case TypeString:
		return v.s
	case TypeInt32, TypeInt64:
		return int(v.i)
	case TypeFloat:
		return float64(v.f[0])
	case TypeVec2f, TypeVec3f, TypeVec4f:
		out := make([]float64, v.t.Components())
		for i := range out {
			out[i] = float64(v.f[i])
		}
		return out
	case TypeVec2i, TypeVec3i, TypeVec4i:
		out := make([]int, v.t.Components())
		for i := range out {
			out[i] = int(v.n[i])
		}
		return out
	}
	return nil
}

// assignAny writes a script result into a subtree. Struct results may set a
// subset of fields.
func (e *Engine) assignAny(h handle, x any) error {
	rec := e.props.get(h)
	switch rec.typ {
	case TypeStruct:
		m, ok := x.(map[string]any)
		if !ok {
			return errors.Wrapf(ErrTypeMismatch, "expected a map for struct %q, got %T", rec.name, x)
		}
		for key, val := range m {
			child := Property{e: e, h: h}.Child(key)
			if !child.IsValid() {
				return errors.Wrapf(ErrTypeMismatch, "struct %q has no field %q", rec.name, key)
			}
			if err := e.assignAny(child.h, val); err != nil {
				return err
			}
		}
		return nil
	case TypeArray:
		items, err := anyToSlice(x)
		if err != nil {
			return err
		}
		if len(items) != len(rec.children) {
			return errors.Wrapf(ErrTypeMismatch, "array %q has %d elements, got %d", rec.name, len(rec.children), len(items))
		}
		children := rec.children
		for i, item := range items {
			if err := e.assignAny(children[i], item); err != nil {
				return err
			}
		}
		return nil
	}
	v, err := ValueFromAny(rec.typ, x)
	if err != nil {
		return err
	}
	e.assign(h, v)
	return nil
}
