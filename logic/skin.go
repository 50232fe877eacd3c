package logic

import (
	"slices"

	"github.com/delaneyj/logicgraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// SkinConfig drives a Mat4 array uniform with joint matrices computed as
// joint world transform × inverse bind matrix.
type SkinConfig struct {
	Joints              []*Node
	InverseBindMatrices []mgl32.Mat4
	Appearance          *Node
	Uniform             string
}

type skinBindingImpl struct {
	joints      []*nodeBindingImpl
	inverseBind []mgl32.Mat4
	appearance  *appearanceBindingImpl
	uniform     string
	cfg         SkinConfig
}

func (*skinBindingImpl) kind() NodeKind          { return KindSkinBinding }
func (s *skinBindingImpl) object() scene.Object { return s.appearance.obj }

func (e *Engine) CreateSkinBinding(name string, cfg SkinConfig) (*Node, error) {
	return e.createSkinBinding(name, cfg, 0)
}

func (e *Engine) createSkinBinding(name string, cfg SkinConfig, id NodeID) (*Node, error) {
	if len(cfg.Joints) == 0 {
		return nil, configErr(name, errors.Wrap(ErrInvalidConfig, "skin needs at least one joint"))
	}
	if len(cfg.InverseBindMatrices) != len(cfg.Joints) {
		return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "%d inverse bind matrices for %d joints",
			len(cfg.InverseBindMatrices), len(cfg.Joints)))
	}
	deps := append(slices.Clone(cfg.Joints), cfg.Appearance)
	for _, n := range deps {
		if n == nil || n.destroyed {
			return nil, configErr(name, ErrNodeGone)
		}
		if n.engine != e {
			return nil, configErr(name, ErrForeignEngine)
		}
	}

	impl := &skinBindingImpl{
		inverseBind: slices.Clone(cfg.InverseBindMatrices),
		uniform:     cfg.Uniform,
		cfg: SkinConfig{
			Joints:              slices.Clone(cfg.Joints),
			InverseBindMatrices: slices.Clone(cfg.InverseBindMatrices),
			Appearance:          cfg.Appearance,
			Uniform:             cfg.Uniform,
		},
	}
	for _, j := range cfg.Joints {
		jb, ok := j.impl.(*nodeBindingImpl)
		if !ok {
			return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "joint %s is not a node binding", j))
		}
		impl.joints = append(impl.joints, jb)
	}
	ab, ok := cfg.Appearance.impl.(*appearanceBindingImpl)
	if !ok {
		return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "%s is not an appearance binding", cfg.Appearance))
	}
	impl.appearance = ab
	idx := slices.IndexFunc(ab.obj.Uniforms(), func(u scene.Uniform) bool { return u.Name == cfg.Uniform })
	if idx < 0 {
		return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "appearance has no uniform %q", cfg.Uniform))
	}
	if u := ab.obj.Uniforms()[idx]; u.Kind != scene.UniformMat4 || u.Count != len(cfg.Joints) {
		return nil, configErr(name, errors.Wrapf(ErrInvalidConfig, "uniform %q must be a mat4 array of %d", cfg.Uniform, len(cfg.Joints)))
	}

	n := e.register(name, id, StructOf(""), nil, impl)
	n.alwaysDirty = true
	n.after = deps
	return n, nil
}

func (e *Engine) updateSkinBinding(_ *Node, s *skinBindingImpl) error {
	mats := make([]mgl32.Mat4, len(s.joints))
	for i, j := range s.joints {
		mats[i] = j.obj.WorldMatrix().Mul4(s.inverseBind[i])
	}
	return s.appearance.obj.SetUniform(s.uniform, mats)
}
