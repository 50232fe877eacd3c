package logic

import (
	"slices"
	"sort"

	"github.com/pkg/errors"
)

// AnimationChannel feeds one output of an animation node. Tangents are
// optional, required together and only allowed with cubic interpolation.
type AnimationChannel struct {
	Name          string
	Timestamps    *DataArray
	Keyframes     *DataArray
	Interpolation Interpolation
	TangentsIn    *DataArray
	TangentsOut   *DataArray
}

// MaxExposedChannelElements bounds channels whose data is exposed as properties.
const MaxExposedChannelElements = 255

const (
	animProgress     = "progress"
	animDuration     = "duration"
	animChannelsData = "channelsData"
)

type AnimationNodeConfig struct {
	channels []AnimationChannel
	expose   bool
}

// AddChannel validates and appends a channel; the config is unchanged on error.
func (c *AnimationNodeConfig) AddChannel(ch AnimationChannel) error {
	if err := validateChannel(ch); err != nil {
		return err
	}
	for _, existing := range c.channels {
		if existing.Name == ch.Name {
			return errors.Wrapf(ErrInvalidConfig, "duplicate channel %q", ch.Name)
		}
	}
	if c.expose {
		if err := exposable(ch); err != nil {
			return err
		}
	}
	c.channels = append(c.channels, ch)
	return nil
}

func (c *AnimationNodeConfig) Channels() []AnimationChannel {
	return slices.Clone(c.channels)
}

// SetExposingOfChannelDataAsProperties adds per channel timestamps and
// keyframes to the node inputs. Edits to those inputs are not persisted.
// Enabling fails, leaving the config unchanged, if any channel has more than
// MaxExposedChannelElements elements or array-of-float keyframes.
func (c *AnimationNodeConfig) SetExposingOfChannelDataAsProperties(expose bool) error {
	if expose {
		for _, ch := range c.channels {
			if err := exposable(ch); err != nil {
				return err
			}
		}
	}
	c.expose = expose
	return nil
}

func (c *AnimationNodeConfig) ExposingOfChannelDataAsProperties() bool {
	return c.expose
}

func exposable(ch AnimationChannel) error {
	if ch.Keyframes.ElementType() == TypeArray {
		return errors.Wrapf(ErrInvalidConfig, "channel %q: array-of-float keyframes cannot be exposed as properties", ch.Name)
	}
	if ch.Timestamps.Len() > MaxExposedChannelElements {
		return errors.Wrapf(ErrInvalidConfig, "channel %q: %d elements exceed the %d allowed for exposed channel data",
			ch.Name, ch.Timestamps.Len(), MaxExposedChannelElements)
	}
	return nil
}

func validateChannel(ch AnimationChannel) error {
	fail := func(format string, args ...any) error {
		return errors.Wrapf(ErrInvalidConfig, "channel %q: "+format, append([]any{ch.Name}, args...)...)
	}
	if ch.Name == "" || ch.Name == animDuration {
		return fail("invalid channel name")
	}
	if ch.Timestamps == nil || ch.Keyframes == nil {
		return fail("timestamps and keyframes are required")
	}
	if ch.Timestamps.ElementType() != TypeFloat {
		return fail("timestamps must be floats, got %s", ch.Timestamps.ElementType())
	}
	for i := 1; i < ch.Timestamps.Len(); i++ {
		if ch.Timestamps.Value(i).Float() <= ch.Timestamps.Value(i-1).Float() {
			return fail("timestamps must be strictly ascending")
		}
	}
	switch ch.Keyframes.ElementType() {
	case TypeFloat, TypeVec2f, TypeVec3f, TypeVec4f, TypeInt32, TypeVec2i, TypeVec3i, TypeVec4i, TypeArray:
	default:
		return fail("unsupported keyframe type %s", ch.Keyframes.ElementType())
	}
	if ch.Keyframes.Len() != ch.Timestamps.Len() {
		return fail("%d keyframes for %d timestamps", ch.Keyframes.Len(), ch.Timestamps.Len())
	}
	if _, ok := interpolationNames[ch.Interpolation]; !ok {
		return fail("invalid interpolation")
	}
	if ch.Interpolation.isQuaternion() && ch.Keyframes.ElementType() != TypeVec4f {
		return fail("quaternion interpolation needs vec4f keyframes")
	}
	if (ch.TangentsIn == nil) != (ch.TangentsOut == nil) {
		return fail("tangents in and out must be provided together")
	}
	if ch.TangentsIn != nil {
		if !ch.Interpolation.isCubic() {
			return fail("tangents are only allowed with cubic interpolation")
		}
		for _, t := range []*DataArray{ch.TangentsIn, ch.TangentsOut} {
			if t.ElementType() != ch.Keyframes.ElementType() || t.Width() != ch.Keyframes.Width() {
				return fail("tangents must have the keyframe type")
			}
			if t.Len() != ch.Keyframes.Len() {
				return fail("%d tangents for %d keyframes", t.Len(), ch.Keyframes.Len())
			}
		}
	}
	return nil
}

type animChannel struct {
	cfg    AnimationChannel
	kfType Type
	ts     []float32
	kf     [][]float32
	tin    [][]float32
	tout   [][]float32
	output handle

	exposedTS handle
	exposedKF handle
}

type animationImpl struct {
	cfg      AnimationNodeConfig
	channels []*animChannel
	progress handle
	duration handle
}

func (*animationImpl) kind() NodeKind { return KindAnimation }

func (a *animationImpl) arrays() []*DataArray {
	var out []*DataArray
	for _, ch := range a.channels {
		for _, d := range []*DataArray{ch.cfg.Timestamps, ch.cfg.Keyframes, ch.cfg.TangentsIn, ch.cfg.TangentsOut} {
			if d != nil {
				out = append(out, d)
			}
		}
	}
	return out
}

func (a *animationImpl) release() {
	for _, d := range a.arrays() {
		d.users--
	}
}

func (e *Engine) CreateAnimationNode(name string, cfg AnimationNodeConfig) (*Node, error) {
	return e.createAnimationNode(name, cfg, 0)
}

func (e *Engine) createAnimationNode(name string, cfg AnimationNodeConfig, id NodeID) (*Node, error) {
	if len(cfg.channels) == 0 {
		return nil, configErr(name, errors.Wrap(ErrInvalidConfig, "animation needs at least one channel"))
	}
	impl := &animationImpl{cfg: AnimationNodeConfig{channels: slices.Clone(cfg.channels), expose: cfg.expose}}
	inputs := []TypeDesc{Leaf(animProgress, TypeFloat)}
	outputs := []TypeDesc{Leaf(animDuration, TypeFloat)}
	var exposed []TypeDesc

	for _, c := range impl.cfg.channels {
		ch := &animChannel{cfg: c, kfType: c.Keyframes.ElementType()}
		for _, d := range []*DataArray{c.Timestamps, c.Keyframes, c.TangentsIn, c.TangentsOut} {
			if d != nil && d.engine != e {
				return nil, configErr(name, errors.Wrapf(ErrForeignEngine, "channel %q: data array %q", c.Name, d.name))
			}
		}
		for i := 0; i < c.Timestamps.Len(); i++ {
			ch.ts = append(ch.ts, c.Timestamps.Value(i).Float())
			ch.kf = append(ch.kf, c.Keyframes.components(i))
			if c.TangentsIn != nil {
				ch.tin = append(ch.tin, c.TangentsIn.components(i))
				ch.tout = append(ch.tout, c.TangentsOut.components(i))
			}
		}
		if ch.kfType == TypeArray {
			outputs = append(outputs, ArrayOf(c.Name, c.Keyframes.Width(), Leaf("", TypeFloat)))
		} else {
			outputs = append(outputs, Leaf(c.Name, ch.kfType))
		}
		if impl.cfg.expose {
			n := c.Timestamps.Len()
			exposed = append(exposed, StructOf(c.Name,
				ArrayOf("timestamps", n, Leaf("", TypeFloat)),
				ArrayOf("keyframes", n, Leaf("", ch.kfType)),
			))
		}
		impl.channels = append(impl.channels, ch)
	}
	if impl.cfg.expose {
		inputs = append(inputs, StructOf(animChannelsData, exposed...))
	}

	out := StructOf("", outputs...)
	n := e.register(name, id, StructOf("", inputs...), &out, impl)

	in := e.props.get(n.inputs).children
	outs := e.props.get(n.outputs).children
	impl.progress = in[0]
	impl.duration = outs[0]
	for i, ch := range impl.channels {
		ch.output = outs[1+i]
		if impl.cfg.expose {
			data := e.props.get(e.props.get(in[1]).children[i]).children
			ch.exposedTS, ch.exposedKF = data[0], data[1]
			e.resetExposed(ch)
		}
	}
	for _, d := range impl.arrays() {
		d.users++
	}
	e.assign(impl.duration, FloatVal(maxDuration(impl.channels, nil)))
	return n, nil
}

// resetExposed writes the configured channel data into the exposed inputs.
func (e *Engine) resetExposed(ch *animChannel) {
	ts := e.props.get(ch.exposedTS).children
	kf := e.props.get(ch.exposedKF).children
	for i := range ch.ts {
		e.assign(ts[i], FloatVal(ch.ts[i]))
		e.assign(kf[i], ch.cfg.Keyframes.Value(i))
	}
}

func maxDuration(channels []*animChannel, override [][]float32) float32 {
	var d float32
	for i, ch := range channels {
		ts := ch.ts
		if override != nil {
			ts = override[i]
		}
		if last := ts[len(ts)-1]; last > d {
			d = last
		}
	}
	return d
}

func (e *Engine) updateAnimation(n *Node, a *animationImpl) error {
	progress := e.props.get(a.progress).value.Float()
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}

	timestamps := make([][]float32, len(a.channels))
	keyframes := make([][][]float32, len(a.channels))
	for i, ch := range a.channels {
		if ch.exposedTS.isZero() {
			timestamps[i], keyframes[i] = ch.ts, ch.kf
			continue
		}
		ts, kf, err := e.exposedData(ch)
		if err != nil {
			return err
		}
		timestamps[i], keyframes[i] = ts, kf
	}

	duration := maxDuration(a.channels, timestamps)
	t := progress * duration
	for i, ch := range a.channels {
		value := sampleChannel(ch.cfg.Interpolation, timestamps[i], keyframes[i], ch.tin, ch.tout, t)
		e.writeComponents(ch.output, ch.kfType, value)
	}
	e.assign(a.duration, FloatVal(duration))
	return nil
}

func (e *Engine) exposedData(ch *animChannel) ([]float32, [][]float32, error) {
	tsLeaves := e.props.get(ch.exposedTS).children
	kfLeaves := e.props.get(ch.exposedKF).children
	ts := make([]float32, len(tsLeaves))
	kf := make([][]float32, len(kfLeaves))
	for i := range tsLeaves {
		ts[i] = e.props.get(tsLeaves[i]).value.Float()
		if i > 0 && ts[i] <= ts[i-1] {
			return nil, nil, errors.Errorf("channel %q: timestamps must be strictly ascending (index %d)", ch.cfg.Name, i)
		}
		kf[i] = e.props.get(kfLeaves[i]).value.components()
	}
	return ts, kf, nil
}

func (e *Engine) writeComponents(h handle, t Type, c []float32) {
	if t != TypeArray {
		e.assign(h, valueFromComponents(t, c))
		return
	}
	for i, child := range e.props.get(h).children {
		e.assign(child, FloatVal(c[i]))
	}
}

// sampleChannel evaluates a channel at time t. Before the first and after the
// last timestamp the boundary keyframe is held.
func sampleChannel(interp Interpolation, ts []float32, kf, tin, tout [][]float32, t float32) []float32 {
	last := len(ts) - 1
	if last == 0 || t <= ts[0] {
		return slices.Clone(kf[0])
	}
	if t >= ts[last] {
		return slices.Clone(kf[last])
	}
	i := sort.Search(len(ts), func(j int) bool { return ts[j] > t }) - 1
	dt := ts[i+1] - ts[i]
	alpha := (t - ts[i]) / dt

	switch interp {
	case InterpolationStep:
		return slices.Clone(kf[i])
	case InterpolationLinear:
		return lerp(kf[i], kf[i+1], alpha)
	case InterpolationLinearQuaternions:
		return slerp(kf[i], kf[i+1], alpha)
	}

	m0 := make([]float32, len(kf[i]))
	m1 := make([]float32, len(kf[i]))
	if tin != nil {
		m0 = scaled(tout[i], dt)
		m1 = scaled(tin[i+1], dt)
	}
	value := hermite(kf[i], m0, kf[i+1], m1, alpha)
	if interp == InterpolationCubicQuaternions {
		return normalizeQuat(value)
	}
	return value
}
