package logic

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/logicgraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Saved graphs start with this header and end with an xxhash64 of everything
// before the trailer.
var snapshotMagic = [8]byte{'L', 'G', 'R', 'A', 'P', 'H', 0, 1}

type valueSnap struct {
	T Type
	B bool
	I int64
	F [4]float32
	N [4]int32
	S string
}

func snapValue(v Value) valueSnap {
	return valueSnap{T: v.t, B: v.b, I: v.i, F: v.f, N: v.n, S: v.s}
}

func (s valueSnap) value() Value {
	return Value{t: s.T, b: s.B, i: s.I, f: s.F, n: s.N, s: s.S}
}

type arraySnap struct {
	ID     uint64
	Name   string
	Elem   Type
	Values []valueSnap
	Floats [][]float32
}

type channelSnap struct {
	Name          string
	Interpolation uint8
	Timestamps    uint64
	Keyframes     uint64
	TangentsIn    uint64
	TangentsOut   uint64
}

type animationSnap struct {
	Channels []channelSnap
	Expose   bool
}

type skinSnap struct {
	Joints      []NodeID
	InverseBind []mgl32.Mat4
	Appearance  NodeID
	Uniform     string
}

type leafSnap struct {
	Path  []int
	Value valueSnap
}

type nodeSnap struct {
	ID     NodeID
	Name   string
	Kind   NodeKind
	UserID [2]uint64

	Fields    []TypeDesc
	Script    *ScriptConfig
	Animation *animationSnap
	Object    uint64
	Rotation  RotationConvention
	Elements  []string
	Anchor    []NodeID
	Skin      *skinSnap

	Inputs  []leafSnap
	Outputs []leafSnap
}

type linkSnap struct {
	Source     NodeID
	SourcePath []int
	Target     NodeID
	TargetPath []int
	Weak       bool
}

type snapshot struct {
	NextID      NodeID
	NextArrayID uint64
	Arrays      []arraySnap
	Nodes       []nodeSnap
	Links       []linkSnap
}

// Save writes the graph: data arrays, node configurations, user ids, input
// and output values and links. Exposed animation channel data and animation
// outputs are not written; they are rebuilt from the channel configuration.
func (e *Engine) Save(w io.Writer) (int64, error) {
	snap, err := e.snapshot()
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	buf.Write(snapshotMagic[:])
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return 0, errors.Wrap(err, "encoding snapshot")
	}
	var trailer [8]byte
	binary.LittleEndian.PutUint64(trailer[:], xxhash.Sum64(buf.Bytes()))
	buf.Write(trailer[:])
	n, err := buf.WriteTo(w)
	if err != nil {
		return n, errors.Wrap(err, "writing snapshot")
	}
	e.log.Debug("saved", "nodes", len(snap.Nodes), "links", len(snap.Links), "bytes", n)
	return n, nil
}

func (e *Engine) snapshot() (*snapshot, error) {
	snap := &snapshot{NextID: e.nextID, NextArrayID: e.nextArrayID}
	for _, a := range e.arrays {
		as := arraySnap{ID: a.id, Name: a.name, Elem: a.elem, Floats: a.floats}
		for _, v := range a.values {
			as.Values = append(as.Values, snapValue(v))
		}
		snap.Arrays = append(snap.Arrays, as)
	}

	for _, n := range e.nodes {
		ns := nodeSnap{ID: n.id, Name: n.name, Kind: n.Kind(), UserID: n.userID}
		switch impl := n.impl.(type) {
		case *interfaceImpl:
			ns.Fields = impl.fields
		case *scriptImpl:
			cfg := impl.cfg
			ns.Script = &cfg
		case *animationImpl:
			as := &animationSnap{Expose: impl.cfg.expose}
			for _, ch := range impl.cfg.channels {
				as.Channels = append(as.Channels, channelSnap{
					Name:          ch.Name,
					Interpolation: uint8(ch.Interpolation),
					Timestamps:    arrayID(ch.Timestamps),
					Keyframes:     arrayID(ch.Keyframes),
					TangentsIn:    arrayID(ch.TangentsIn),
					TangentsOut:   arrayID(ch.TangentsOut),
				})
			}
			ns.Animation = as
		case *timerImpl:
		case *anchorImpl:
			ns.Anchor = []NodeID{n.after[0].id, n.after[1].id}
		case *nodeBindingImpl:
			ns.Object, ns.Rotation = impl.obj.ObjectID(), impl.rotation
		case *renderGroupBindingImpl:
			ns.Object, ns.Elements = impl.obj.ObjectID(), impl.elements
		case *skinBindingImpl:
			ss := &skinSnap{
				InverseBind: impl.cfg.InverseBindMatrices,
				Appearance:  impl.cfg.Appearance.id,
				Uniform:     impl.cfg.Uniform,
			}
			for _, j := range impl.cfg.Joints {
				ss.Joints = append(ss.Joints, j.id)
			}
			ns.Skin = ss
		case boundImpl:
			ns.Object = impl.object().ObjectID()
		default:
			return nil, errors.Errorf("cannot save %s", n)
		}

		inputs := n.inputs
		if a, ok := n.impl.(*animationImpl); ok {
			inputs = a.progress
		}
		e.props.walk(inputs, func(h handle, rec *propRecord) {
			if !rec.typ.IsContainer() {
				ns.Inputs = append(ns.Inputs, leafSnap{Path: e.props.indexPath(h), Value: snapValue(rec.value)})
			}
		})
		if n.Kind() != KindAnimation {
			e.props.walk(n.outputs, func(h handle, rec *propRecord) {
				if !rec.typ.IsContainer() {
					ns.Outputs = append(ns.Outputs, leafSnap{Path: e.props.indexPath(h), Value: snapValue(rec.value)})
				}
			})
		}
		snap.Nodes = append(snap.Nodes, ns)
	}

	for _, l := range e.Links() {
		snap.Links = append(snap.Links, linkSnap{
			Source:     l.Source.Node().id,
			SourcePath: e.props.indexPath(l.Source.h),
			Target:     l.Target.Node().id,
			TargetPath: e.props.indexPath(l.Target.h),
			Weak:       l.Weak,
		})
	}
	return snap, nil
}

func arrayID(a *DataArray) uint64 {
	if a == nil {
		return 0
	}
	return a.id
}

// Load rebuilds a saved graph in a new engine. Bindings look up their scene
// objects by id in resolver, which may be nil for graphs without bindings.
func Load(r io.Reader, resolver scene.Resolver, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading snapshot")
	}
	if len(data) < len(snapshotMagic)+8 || !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic[:]) {
		return nil, errors.Wrap(ErrCorruptSnapshot, "bad header")
	}
	body, trailer := data[:len(data)-8], data[len(data)-8:]
	if xxhash.Sum64(body) != binary.LittleEndian.Uint64(trailer) {
		return nil, errors.Wrap(ErrCorruptSnapshot, "checksum mismatch")
	}
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(body[len(snapshotMagic):])).Decode(&snap); err != nil {
		return nil, errors.Wrapf(ErrCorruptSnapshot, "decoding: %v", err)
	}

	e := New(opts...)
	if err := e.restore(&snap, resolver); err != nil {
		return nil, err
	}
	e.log.Debug("loaded", "nodes", len(e.nodes), "links", len(snap.Links))
	return e, nil
}

func (e *Engine) restore(snap *snapshot, resolver scene.Resolver) error {
	arrays := map[uint64]*DataArray{}
	for _, as := range snap.Arrays {
		a := &DataArray{name: as.Name, elem: as.Elem, floats: as.Floats}
		for _, v := range as.Values {
			a.values = append(a.values, v.value())
		}
		arrays[as.ID] = e.addDataArray(a, as.ID)
	}

	for _, ns := range snap.Nodes {
		n, err := e.restoreNode(ns, arrays, resolver)
		if err != nil {
			return errors.Wrapf(err, "restoring %s %q", ns.Kind, ns.Name)
		}
		n.userID = ns.UserID
		for _, l := range ns.Inputs {
			if err := e.restoreLeaf(n.inputs, l); err != nil {
				return errors.Wrapf(err, "restoring %q input", ns.Name)
			}
		}
		for _, l := range ns.Outputs {
			if err := e.restoreLeaf(n.outputs, l); err != nil {
				return errors.Wrapf(err, "restoring %q output", ns.Name)
			}
		}
	}

	for _, ls := range snap.Links {
		src, dst := e.byID[ls.Source], e.byID[ls.Target]
		if src == nil || dst == nil {
			return errors.Wrap(ErrCorruptSnapshot, "link to unknown node")
		}
		sh, ok1 := e.props.resolve(src.outputs, ls.SourcePath)
		dh, ok2 := e.props.resolve(dst.inputs, ls.TargetPath)
		if !ok1 || !ok2 {
			return errors.Wrap(ErrCorruptSnapshot, "link to unknown property")
		}
		if err := e.link(Property{e: e, h: sh}, Property{e: e, h: dh}, ls.Weak); err != nil {
			return err
		}
	}

	if snap.NextID > e.nextID {
		e.nextID = snap.NextID
	}
	if snap.NextArrayID > e.nextArrayID {
		e.nextArrayID = snap.NextArrayID
	}
	return nil
}

func (e *Engine) restoreLeaf(root handle, l leafSnap) error {
	h, ok := e.props.resolve(root, l.Path)
	if !ok {
		return errors.Wrap(ErrCorruptSnapshot, "unknown property path")
	}
	v := l.Value.value()
	if e.props.get(h).typ != v.t {
		return errors.Wrap(ErrCorruptSnapshot, "property type changed")
	}
	e.assign(h, v)
	return nil
}

func (e *Engine) restoreNode(ns nodeSnap, arrays map[uint64]*DataArray, resolver scene.Resolver) (*Node, error) {
	switch ns.Kind {
	case KindInterface:
		return e.createInterface(ns.Name, ns.Fields, ns.ID)
	case KindScript:
		if ns.Script == nil {
			return nil, ErrCorruptSnapshot
		}
		return e.createScript(ns.Name, *ns.Script, ns.ID)
	case KindAnimation:
		if ns.Animation == nil {
			return nil, ErrCorruptSnapshot
		}
		var cfg AnimationNodeConfig
		for _, cs := range ns.Animation.Channels {
			if err := cfg.AddChannel(AnimationChannel{
				Name:          cs.Name,
				Interpolation: Interpolation(cs.Interpolation),
				Timestamps:    arrays[cs.Timestamps],
				Keyframes:     arrays[cs.Keyframes],
				TangentsIn:    arrays[cs.TangentsIn],
				TangentsOut:   arrays[cs.TangentsOut],
			}); err != nil {
				return nil, err
			}
		}
		if err := cfg.SetExposingOfChannelDataAsProperties(ns.Animation.Expose); err != nil {
			return nil, err
		}
		return e.createAnimationNode(ns.Name, cfg, ns.ID)
	case KindTimer:
		return e.createTimerNode(ns.Name, ns.ID), nil
	case KindAnchorPoint:
		if len(ns.Anchor) != 2 {
			return nil, ErrCorruptSnapshot
		}
		return e.createAnchorPoint(ns.Name, e.byID[ns.Anchor[0]], e.byID[ns.Anchor[1]], ns.ID)
	case KindSkinBinding:
		if ns.Skin == nil {
			return nil, ErrCorruptSnapshot
		}
		cfg := SkinConfig{
			InverseBindMatrices: ns.Skin.InverseBind,
			Appearance:          e.byID[ns.Skin.Appearance],
			Uniform:             ns.Skin.Uniform,
		}
		for _, id := range ns.Skin.Joints {
			cfg.Joints = append(cfg.Joints, e.byID[id])
		}
		return e.createSkinBinding(ns.Name, cfg, ns.ID)
	}

	if resolver == nil {
		return nil, errors.New("graph has bindings but no scene resolver was given")
	}
	obj, ok := resolver.FindObject(ns.Object)
	if !ok {
		return nil, errors.Errorf("scene object %d not found", ns.Object)
	}
	wrong := errors.Errorf("scene object %d (%s) has the wrong type", ns.Object, obj.ObjectName())
	switch ns.Kind {
	case KindNodeBinding:
		if o, ok := obj.(scene.Node); ok {
			return e.createNodeBinding(ns.Name, o, ns.Rotation, ns.ID)
		}
	case KindCameraBinding:
		if o, ok := obj.(scene.Camera); ok {
			return e.createCameraBinding(ns.Name, o, ns.ID)
		}
	case KindAppearanceBinding:
		if o, ok := obj.(scene.Appearance); ok {
			return e.createAppearanceBinding(ns.Name, o, ns.ID)
		}
	case KindRenderPassBinding:
		if o, ok := obj.(scene.RenderPass); ok {
			return e.createRenderPassBinding(ns.Name, o, ns.ID)
		}
	case KindRenderGroupBinding:
		if o, ok := obj.(scene.RenderGroup); ok {
			return e.createRenderGroupBinding(ns.Name, o, ns.Elements, ns.ID)
		}
	case KindMeshNodeBinding:
		if o, ok := obj.(scene.MeshNode); ok {
			return e.createMeshNodeBinding(ns.Name, o, ns.ID)
		}
	case KindRenderBufferBinding:
		if o, ok := obj.(scene.RenderBuffer); ok {
			return e.createRenderBufferBinding(ns.Name, o, ns.ID)
		}
	default:
		return nil, errors.Wrapf(ErrCorruptSnapshot, "unknown node kind %d", ns.Kind)
	}
	return nil, wrong
}
