package logic

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// Interpolation selects how an animation channel blends between keyframes.
type Interpolation uint8

const (
	InterpolationStep Interpolation = iota + 1
	InterpolationLinear
	InterpolationCubic
	InterpolationLinearQuaternions
	InterpolationCubicQuaternions
)

var interpolationNames = map[Interpolation]string{
	InterpolationStep:              "step",
	InterpolationLinear:            "linear",
	InterpolationCubic:             "cubic",
	InterpolationLinearQuaternions: "linear_quaternions",
	InterpolationCubicQuaternions:  "cubic_quaternions",
}

func (i Interpolation) String() string {
	if s, ok := interpolationNames[i]; ok {
		return s
	}
	return "invalid"
}

func (i Interpolation) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Interpolation) UnmarshalText(text []byte) error {
	for k, name := range interpolationNames {
		if name == string(text) {
			*i = k
			return nil
		}
	}
	return ErrInvalidConfig
}

func (i Interpolation) isCubic() bool {
	return i == InterpolationCubic || i == InterpolationCubicQuaternions
}

func (i Interpolation) isQuaternion() bool {
	return i == InterpolationLinearQuaternions || i == InterpolationCubicQuaternions
}

func roundf(x float32) float32 {
	return math32.Floor(x + 0.5)
}

func lerp(a, b []float32, alpha float32) []float32 {
	out := make([]float32, len(a))
	for i := range out {
		out[i] = ease.Linear(alpha, a[i], b[i]-a[i], 1)
	}
	return out
}

// hermite evaluates the cubic Hermite spline with tangents already scaled by
// the keyframe interval.
func hermite(p0, m0, p1, m1 []float32, t float32) []float32 {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	out := make([]float32, len(p0))
	for i := range out {
		out[i] = h00*p0[i] + h10*m0[i] + h01*p1[i] + h11*m1[i]
	}
	return out
}

// Quaternion keyframes are (x, y, z, w).

func toQuat(c []float32) mgl32.Quat {
	return mgl32.Quat{W: c[3], V: mgl32.Vec3{c[0], c[1], c[2]}}
}

func fromQuat(q mgl32.Quat) []float32 {
	return []float32{q.V[0], q.V[1], q.V[2], q.W}
}

func normalizeQuat(c []float32) []float32 {
	l := math32.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2] + c[3]*c[3])
	if l == 0 {
		return []float32{0, 0, 0, 1}
	}
	return []float32{c[0] / l, c[1] / l, c[2] / l, c[3] / l}
}

// slerp takes the shortest arc between two quaternions.
func slerp(a, b []float32, alpha float32) []float32 {
	qa, qb := toQuat(normalizeQuat(a)), toQuat(normalizeQuat(b))
	if qa.Dot(qb) < 0 {
		qb = qb.Scale(-1)
	}
	if alpha <= 0 {
		return fromQuat(qa)
	}
	if alpha >= 1 {
		return fromQuat(qb)
	}
	return normalizeQuat(fromQuat(mgl32.QuatSlerp(qa, qb, alpha)))
}

func scaled(c []float32, s float32) []float32 {
	out := make([]float32, len(c))
	for i, v := range c {
		out[i] = v * s
	}
	return out
}
