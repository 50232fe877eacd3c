package logic

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Value is the value of a leaf property. The zero Value has TypeInvalid.
// Compare values with Equal; == treats NaN components as always different.
type Value struct {
	t Type
	b bool
	i int64
	f [4]float32
	n [4]int32
	s string
}

func BoolVal(v bool) Value { return Value{t: TypeBool, b: v} }
func Int32Val(v int32) Value { return Value{t: TypeInt32, i: int64(v)} }
func Int64Val(v int64) Value { return Value{t: TypeInt64, i: v} }
func FloatVal(v float32) Value { return Value{t: TypeFloat, f: [4]float32{v}} }
func StringVal(v string) Value { return Value{t: TypeString, s: v} }
func Vec2fVal(v mgl32.Vec2) Value { return Value{t: TypeVec2f, f: [4]float32{v[0], v[1]}} }
func Vec3fVal(v mgl32.Vec3) Value { return Value{t: TypeVec3f, f: [4]float32{v[0], v[1], v[2]}} }
func Vec4fVal(v mgl32.Vec4) Value { return Value{t: TypeVec4f, f: v} }
func Vec2iVal(v Vec2i) Value { return Value{t: TypeVec2i, n: [4]int32{v[0], v[1]}} }
func Vec3iVal(v Vec3i) Value { return Value{t: TypeVec3i, n: [4]int32{v[0], v[1], v[2]}} }
func Vec4iVal(v Vec4i) Value { return Value{t: TypeVec4i, n: v} }

// Zero returns the default value of a leaf type.
func Zero(t Type) Value {
	if t.IsContainer() || !t.valid() {
		return Value{}
	}
	return Value{t: t}
}

func (v Value) Type() Type { return v.t }

// Equal reports whether v and o hold the same value. Float components are
// compared by bit pattern, so a NaN equals the same NaN.
func (v Value) Equal(o Value) bool {
	if v.t != o.t || v.b != o.b || v.i != o.i || v.n != o.n || v.s != o.s {
		return false
	}
	for i := range v.f {
		if math.Float32bits(v.f[i]) != math.Float32bits(o.f[i]) {
			return false
		}
	}
	return true
}

func (v Value) Bool() bool { return v.b }
func (v Value) Int32() int32 { return int32(v.i) }
func (v Value) Int64() int64 { return v.i }
func (v Value) Float() float32 { return v.f[0] }
func (v Value) Str() string { return v.s }
func (v Value) Vec2f() mgl32.Vec2 { return mgl32.Vec2{v.f[0], v.f[1]} }
func (v Value) Vec3f() mgl32.Vec3 { return mgl32.Vec3{v.f[0], v.f[1], v.f[2]} }
func (v Value) Vec4f() mgl32.Vec4 { return v.f }
func (v Value) Vec2i() Vec2i { return Vec2i{v.n[0], v.n[1]} }
func (v Value) Vec3i() Vec3i { return Vec3i{v.n[0], v.n[1], v.n[2]} }
func (v Value) Vec4i() Vec4i { return v.n }

// Any returns the value as its Go type (bool, int32, int64, float32, string,
// mgl32.Vec2..4 or Vec2i..4i).
func (v Value) Any() any {
	switch v.t {
	case TypeBool:
		return v.b
	case TypeInt32:
		return int32(v.i)
	case TypeInt64:
		return v.i
	case TypeFloat:
		return v.f[0]
	case TypeString:
		return v.s
	case TypeVec2f:
		return v.Vec2f()
	case TypeVec3f:
		return v.Vec3f()
	case TypeVec4f:
		return v.Vec4f()
	case TypeVec2i:
		return v.Vec2i()
	case TypeVec3i:
		return v.Vec3i()
	case TypeVec4i:
		return v.Vec4i()
	}
	return nil
}

func (v Value) String() string {
	if v.t == TypeInvalid {
		return "<invalid>"
	}
	return fmt.Sprintf("%s(%v)", v.t, v.Any())
}

// Scalar is the set of Go types a leaf property can hold.
type Scalar interface {
	bool | int32 | int64 | float32 | string |
		mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4 |
		Vec2i | Vec3i | Vec4i
}

// ValueOf wraps a Go value.
func ValueOf[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case bool:
		return BoolVal(x)
	case int32:
		return Int32Val(x)
	case int64:
		return Int64Val(x)
	case float32:
		return FloatVal(x)
	case string:
		return StringVal(x)
	case mgl32.Vec2:
		return Vec2fVal(x)
	case mgl32.Vec3:
		return Vec3fVal(x)
	case mgl32.Vec4:
		return Vec4fVal(x)
	case Vec2i:
		return Vec2iVal(x)
	case Vec3i:
		return Vec3iVal(x)
	case Vec4i:
		return Vec4iVal(x)
	}
	panic("unreachable")
}

// As unwraps a Value; ok is false when T does not match the value's type.
func As[T Scalar](v Value) (T, bool) {
	t, ok := v.Any().(T)
	return t, ok
}

func typeOf[T Scalar]() Type {
	var zero T
	return ValueOf(zero).Type()
}

// components returns float32 components of numeric leaf values.
func (v Value) components() []float32 {
	n := v.t.Components()
	out := make([]float32, n)
	switch {
	case v.t == TypeBool || v.t == TypeString:
		return nil
	case v.t == TypeInt32 || v.t == TypeInt64:
		out[0] = float32(v.i)
	case v.t.isIntegral():
		for i := range out {
			out[i] = float32(v.n[i])
		}
	default:
		copy(out, v.f[:n])
	}
	return out
}

// valueFromComponents builds a numeric value, rounding integral types to nearest.
func valueFromComponents(t Type, c []float32) Value {
	v := Value{t: t}
	switch {
	case t == TypeInt32 || t == TypeInt64:
		v.i = int64(roundf(c[0]))
	case t.isIntegral():
		for i := 0; i < t.Components(); i++ {
			v.n[i] = int32(roundf(c[i]))
		}
	default:
		copy(v.f[:t.Components()], c)
	}
	return v
}

// ValueFromAny converts a loosely typed Go value (as produced by scripts or
// decoded from YAML/TOML) to a value of type t.
func ValueFromAny(t Type, x any) (Value, error) {
	if v, ok := x.(Value); ok {
		if v.t != t {
			return Value{}, errors.Wrapf(ErrTypeMismatch, "expected %s, got %s", t, v.t)
		}
		return v, nil
	}
	switch t {
	case TypeBool:
		b, ok := x.(bool)
		if !ok {
			return Value{}, errors.Wrapf(ErrTypeMismatch, "expected bool, got %T", x)
		}
		return BoolVal(b), nil
	case TypeString:
		s, ok := x.(string)
		if !ok {
			return Value{}, errors.Wrapf(ErrTypeMismatch, "expected string, got %T", x)
		}
		return StringVal(s), nil
	case TypeInt32:
		i, err := anyToInt(x, math.MinInt32, math.MaxInt32)
		if err != nil {
			return Value{}, err
		}
		return Int32Val(int32(i)), nil
	case TypeInt64:
		i, err := anyToInt(x, math.MinInt64, math.MaxInt64)
		if err != nil {
			return Value{}, err
		}
		return Int64Val(i), nil
	case TypeFloat:
		f, err := anyToFloat(x)
		if err != nil {
			return Value{}, err
		}
		return FloatVal(float32(f)), nil
	case TypeVec2f, TypeVec3f, TypeVec4f, TypeVec2i, TypeVec3i, TypeVec4i:
		items, err := anyToSlice(x)
		if err != nil {
			return Value{}, err
		}
		if len(items) != t.Components() {
			return Value{}, errors.Wrapf(ErrTypeMismatch, "%s needs %d components, got %d", t, t.Components(), len(items))
		}
		v := Value{t: t}
		for i, item := range items {
			if t.isIntegral() {
				n, err := anyToInt(item, math.MinInt32, math.MaxInt32)
				if err != nil {
					return Value{}, err
				}
				v.n[i] = int32(n)
				continue
			}
			f, err := anyToFloat(item)
			if err != nil {
				return Value{}, err
			}
			v.f[i] = float32(f)
		}
		return v, nil
	}
	return Value{}, errors.Wrapf(ErrTypeMismatch, "cannot build a %s value", t)
}

func anyToFloat(x any) (float64, error) {
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return 0, errors.Wrapf(ErrTypeMismatch, "expected a number, got %T", x)
}

func anyToInt(x any, lo, hi int64) (int64, error) {
	rv := reflect.ValueOf(x)
	var i int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errors.Wrapf(ErrTypeMismatch, "integer %d out of range", u)
		}
		i = int64(u)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, errors.Wrapf(ErrTypeMismatch, "expected an integer, got %v", f)
		}
		if f < float64(lo) || f > float64(hi) {
			return 0, errors.Wrapf(ErrTypeMismatch, "integer %v out of range", f)
		}
		i = int64(f)
	default:
		return 0, errors.Wrapf(ErrTypeMismatch, "expected an integer, got %T", x)
	}
	if i < lo || i > hi {
		return 0, errors.Wrapf(ErrTypeMismatch, "integer %d out of range", i)
	}
	return i, nil
}

func anyToSlice(x any) ([]any, error) {
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Wrapf(ErrTypeMismatch, "expected a list, got %T", x)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
