package scenefile

import (
	"strings"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/delaneyj/logicgraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Build creates the scene objects, data arrays, nodes and links of f in a new
// engine and applies the initial input values.
func Build(f *File, opts ...logic.Option) (*logic.Engine, *scene.Memory, error) {
	e := logic.New(opts...)
	mem := scene.NewMemory()
	if err := BuildInto(f, e, mem); err != nil {
		return nil, nil, err
	}
	return e, mem, nil
}

func BuildInto(f *File, e *logic.Engine, mem *scene.Memory) error {
	b := &builder{e: e, mem: mem, objects: map[string]scene.Object{}, arrays: map[string]*logic.DataArray{}}
	for _, o := range f.Scene {
		if err := b.object(o); err != nil {
			return errors.Wrapf(err, "scene object %q", o.Name)
		}
	}
	for _, a := range f.Arrays {
		data, err := arrayData(a)
		if err != nil {
			return errors.Wrapf(err, "data array %q", a.Name)
		}
		da, err := e.CreateDataArray(a.Name, data)
		if err != nil {
			return err
		}
		b.arrays[a.Name] = da
	}
	for _, n := range f.Nodes {
		if err := b.node(n); err != nil {
			return errors.Wrapf(err, "node %q", n.Name)
		}
	}
	for _, l := range f.Links {
		src, err := b.property(l.From, false)
		if err != nil {
			return err
		}
		dst, err := b.property(l.To, true)
		if err != nil {
			return err
		}
		if l.Weak {
			err = e.LinkWeak(src, dst)
		} else {
			err = e.Link(src, dst)
		}
		if err != nil {
			return err
		}
	}
	for _, s := range f.Set {
		p, err := b.property(s.Path, true)
		if err != nil {
			return err
		}
		v, err := logic.ValueFromAny(p.Type(), s.Value)
		if err != nil {
			return errors.Wrapf(err, "setting %s", s.Path)
		}
		if _, err := p.Set(v); err != nil {
			return err
		}
	}
	return nil
}

type builder struct {
	e       *logic.Engine
	mem     *scene.Memory
	objects map[string]scene.Object
	arrays  map[string]*logic.DataArray
}

var uniformKinds = map[string]scene.UniformKind{
	"int32": scene.UniformInt32,
	"float": scene.UniformFloat,
	"vec2f": scene.UniformVec2f,
	"vec3f": scene.UniformVec3f,
	"vec4f": scene.UniformVec4f,
	"vec2i": scene.UniformVec2i,
	"vec3i": scene.UniformVec3i,
	"vec4i": scene.UniformVec4i,
	"mat4":  scene.UniformMat4,
}

func (b *builder) object(o Object) error {
	if _, dup := b.objects[o.Name]; dup {
		return errors.New("duplicate scene object")
	}
	var obj scene.Object
	switch strings.ToLower(o.Kind) {
	case "node":
		n := b.mem.NewNode(o.Name)
		if o.Parent != "" {
			parent, ok := b.objects[o.Parent].(*scene.MemNode)
			if !ok {
				return errors.Errorf("parent %q is not a node", o.Parent)
			}
			n.SetParent(parent)
		}
		obj = n
	case "camera":
		p := scene.Perspective
		switch strings.ToLower(o.Projection) {
		case "", "perspective":
		case "orthographic":
			p = scene.Orthographic
		default:
			return errors.Errorf("unknown projection %q", o.Projection)
		}
		obj = b.mem.NewCamera(o.Name, p)
	case "appearance":
		var uniforms []scene.Uniform
		for _, u := range o.Uniforms {
			kind, ok := uniformKinds[strings.ToLower(u.Kind)]
			if !ok {
				return errors.Errorf("uniform %q has unknown kind %q", u.Name, u.Kind)
			}
			uniforms = append(uniforms, scene.Uniform{Name: u.Name, Kind: kind, Count: u.Count})
		}
		obj = b.mem.NewAppearance(o.Name, uniforms...)
	case "renderpass":
		obj = b.mem.NewRenderPass(o.Name)
	case "rendergroup":
		obj = b.mem.NewRenderGroup(o.Name, o.Elements...)
	case "meshnode":
		obj = b.mem.NewMeshNode(o.Name)
	case "renderbuffer":
		obj = b.mem.NewRenderBuffer(o.Name, o.Width, o.Height)
	default:
		return errors.Errorf("unknown scene object kind %q", o.Kind)
	}
	b.objects[o.Name] = obj
	return nil
}

func arrayData(a Array) (any, error) {
	if strings.EqualFold(a.Type, "array") {
		out := make([][]float32, len(a.Values))
		for i, item := range a.Values {
			row, ok := item.([]any)
			if !ok {
				return nil, errors.Errorf("element %d is not a list of floats", i)
			}
			for _, x := range row {
				v, err := logic.ValueFromAny(logic.TypeFloat, x)
				if err != nil {
					return nil, err
				}
				out[i] = append(out[i], v.Float())
			}
		}
		return out, nil
	}

	t, err := logic.ParseType(a.Type)
	if err != nil {
		return nil, err
	}
	values := make([]logic.Value, len(a.Values))
	for i, x := range a.Values {
		if values[i], err = logic.ValueFromAny(t, x); err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
	}
	switch t {
	case logic.TypeFloat:
		return collect[float32](values), nil
	case logic.TypeInt32:
		return collect[int32](values), nil
	case logic.TypeVec2f:
		return collect[mgl32.Vec2](values), nil
	case logic.TypeVec3f:
		return collect[mgl32.Vec3](values), nil
	case logic.TypeVec4f:
		return collect[mgl32.Vec4](values), nil
	case logic.TypeVec2i:
		return collect[logic.Vec2i](values), nil
	case logic.TypeVec3i:
		return collect[logic.Vec3i](values), nil
	case logic.TypeVec4i:
		return collect[logic.Vec4i](values), nil
	}
	return nil, errors.Errorf("data arrays cannot hold %s", t)
}

func collect[T logic.Scalar](values []logic.Value) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i], _ = logic.As[T](v)
	}
	return out
}

func (f Field) desc() (logic.TypeDesc, error) {
	t, err := logic.ParseType(f.Type)
	if err != nil {
		return logic.TypeDesc{}, errors.Wrapf(err, "field %q", f.Name)
	}
	switch t {
	case logic.TypeStruct:
		children, err := descs(f.Fields)
		if err != nil {
			return logic.TypeDesc{}, err
		}
		return logic.StructOf(f.Name, children...), nil
	case logic.TypeArray:
		if f.Element == nil {
			return logic.TypeDesc{}, errors.Errorf("array field %q has no element", f.Name)
		}
		elem, err := f.Element.desc()
		if err != nil {
			return logic.TypeDesc{}, err
		}
		return logic.ArrayOf(f.Name, f.Size, elem), nil
	}
	return logic.Leaf(f.Name, t), nil
}

func descs(fields []Field) ([]logic.TypeDesc, error) {
	out := make([]logic.TypeDesc, len(fields))
	for i, f := range fields {
		d, err := f.desc()
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

var kindAliases = map[string]logic.NodeKind{
	"animation": logic.KindAnimation,
	"timer":     logic.KindTimer,
	"anchor":    logic.KindAnchorPoint,
	"skin":      logic.KindSkinBinding,
}

func parseKind(s string) (logic.NodeKind, error) {
	if k, ok := kindAliases[strings.ToLower(s)]; ok {
		return k, nil
	}
	for k := logic.KindInterface; k <= logic.KindRenderBufferBinding; k++ {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown node kind %q", s)
}

func lookup[T scene.Object](b *builder, name string) (T, error) {
	var zero T
	obj, ok := b.objects[name]
	if !ok {
		return zero, errors.Errorf("unknown scene object %q", name)
	}
	t, ok := obj.(T)
	if !ok {
		return zero, errors.Errorf("scene object %q has the wrong kind", name)
	}
	return t, nil
}

func (b *builder) findNode(name string) (*logic.Node, error) {
	n := b.e.FindNode(name)
	if n == nil {
		return nil, errors.Errorf("unknown node %q", name)
	}
	return n, nil
}

func (b *builder) node(n Node) error {
	kind, err := parseKind(n.Kind)
	if err != nil {
		return err
	}
	e := b.e
	switch kind {
	case logic.KindInterface:
		fields, err := descs(n.Fields)
		if err != nil {
			return err
		}
		_, err = e.CreateInterface(n.Name, fields)
		return err
	case logic.KindScript:
		in, err := descs(n.Inputs)
		if err != nil {
			return err
		}
		out, err := descs(n.Outputs)
		if err != nil {
			return err
		}
		_, err = e.CreateScript(n.Name, logic.ScriptConfig{Inputs: in, Outputs: out, Run: n.Run})
		return err
	case logic.KindAnimation:
		var cfg logic.AnimationNodeConfig
		for _, c := range n.Channels {
			ch := logic.AnimationChannel{
				Name:        c.Name,
				Timestamps:  b.arrays[c.Timestamps],
				Keyframes:   b.arrays[c.Keyframes],
				TangentsIn:  b.arrays[c.TangentsIn],
				TangentsOut: b.arrays[c.TangentsOut],
			}
			if err := ch.Interpolation.UnmarshalText([]byte(strings.ToLower(c.Interpolation))); err != nil {
				return errors.Errorf("channel %q: unknown interpolation %q", c.Name, c.Interpolation)
			}
			if err := cfg.AddChannel(ch); err != nil {
				return err
			}
		}
		if err := cfg.SetExposingOfChannelDataAsProperties(n.Expose); err != nil {
			return err
		}
		_, err = e.CreateAnimationNode(n.Name, cfg)
		return err
	case logic.KindTimer:
		_, err = e.CreateTimerNode(n.Name)
		return err
	case logic.KindAnchorPoint:
		nb, err := b.findNode(n.Node)
		if err != nil {
			return err
		}
		cb, err := b.findNode(n.Camera)
		if err != nil {
			return err
		}
		_, err = e.CreateAnchorPoint(n.Name, nb, cb)
		return err
	case logic.KindSkinBinding:
		cfg := logic.SkinConfig{Uniform: n.Uniform}
		for _, name := range n.Joints {
			j, err := b.findNode(name)
			if err != nil {
				return err
			}
			inverse := mgl32.Ident4()
			if obj, ok := j.SceneObject().(scene.Node); ok {
				inverse = obj.WorldMatrix().Inv()
			}
			cfg.Joints = append(cfg.Joints, j)
			cfg.InverseBindMatrices = append(cfg.InverseBindMatrices, inverse)
		}
		if cfg.Appearance, err = b.findNode(n.Appearance); err != nil {
			return err
		}
		_, err = e.CreateSkinBinding(n.Name, cfg)
		return err
	}
	return b.binding(kind, n)
}

func (b *builder) binding(kind logic.NodeKind, n Node) error {
	var err error
	e := b.e
	switch kind {
	case logic.KindNodeBinding:
		var obj scene.Node
		if obj, err = lookup[scene.Node](b, n.Object); err != nil {
			return err
		}
		rotation := logic.RotationEulerXYZ
		switch strings.ToLower(n.Rotation) {
		case "", "euler":
		case "quaternion":
			rotation = logic.RotationQuaternion
		default:
			return errors.Errorf("unknown rotation convention %q", n.Rotation)
		}
		_, err = e.CreateNodeBinding(n.Name, obj, rotation)
	case logic.KindCameraBinding:
		var obj scene.Camera
		if obj, err = lookup[scene.Camera](b, n.Object); err != nil {
			return err
		}
		_, err = e.CreateCameraBinding(n.Name, obj)
	case logic.KindAppearanceBinding:
		var obj scene.Appearance
		if obj, err = lookup[scene.Appearance](b, n.Object); err != nil {
			return err
		}
		_, err = e.CreateAppearanceBinding(n.Name, obj)
	case logic.KindRenderPassBinding:
		var obj scene.RenderPass
		if obj, err = lookup[scene.RenderPass](b, n.Object); err != nil {
			return err
		}
		_, err = e.CreateRenderPassBinding(n.Name, obj)
	case logic.KindRenderGroupBinding:
		var obj scene.RenderGroup
		if obj, err = lookup[scene.RenderGroup](b, n.Object); err != nil {
			return err
		}
		_, err = e.CreateRenderGroupBinding(n.Name, obj, n.Elements)
	case logic.KindMeshNodeBinding:
		var obj scene.MeshNode
		if obj, err = lookup[scene.MeshNode](b, n.Object); err != nil {
			return err
		}
		_, err = e.CreateMeshNodeBinding(n.Name, obj)
	case logic.KindRenderBufferBinding:
		var obj scene.RenderBuffer
		if obj, err = lookup[scene.RenderBuffer](b, n.Object); err != nil {
			return err
		}
		_, err = e.CreateRenderBufferBinding(n.Name, obj)
	}
	return err
}

// property resolves "node.path" against the node's inputs or outputs.
func (b *builder) property(path string, input bool) (logic.Property, error) {
	name, rest, _ := strings.Cut(path, ".")
	n, err := b.findNode(name)
	if err != nil {
		return logic.Property{}, err
	}
	var p logic.Property
	if input {
		p = n.Input(rest)
	} else {
		p = n.Output(rest)
	}
	if !p.IsValid() || rest == "" {
		return logic.Property{}, errors.Errorf("unknown property %q", path)
	}
	return p, nil
}
