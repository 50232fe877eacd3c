package logic

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// DataArray is an immutable named sequence of values referenced by animation
// channels. Element type TypeArray stands for "array of floats"; every element
// then has the same number of floats.
type DataArray struct {
	engine *Engine
	id     uint64
	name   string
	elem   Type
	values []Value
	floats [][]float32
	users  int
}

func (a *DataArray) ID() uint64        { return a.id }
func (a *DataArray) Name() string      { return a.name }
func (a *DataArray) ElementType() Type { return a.elem }

func (a *DataArray) Len() int {
	if a.elem == TypeArray {
		return len(a.floats)
	}
	return len(a.values)
}

// Value returns element i; array-of-float arrays return the zero Value.
func (a *DataArray) Value(i int) Value {
	if a.elem == TypeArray {
		return Value{}
	}
	return a.values[i]
}

// FloatArray returns a copy of element i of an array-of-float data array.
func (a *DataArray) FloatArray(i int) []float32 {
	if a.elem != TypeArray {
		return nil
	}
	return slices.Clone(a.floats[i])
}

// Width is the number of floats per element of an array-of-float data array.
func (a *DataArray) Width() int {
	if a.elem != TypeArray || len(a.floats) == 0 {
		return 0
	}
	return len(a.floats[0])
}

// components returns element i as float32 components.
func (a *DataArray) components(i int) []float32 {
	if a.elem == TypeArray {
		return slices.Clone(a.floats[i])
	}
	return a.values[i].components()
}

// CreateDataArray accepts []float32, []int32, []mgl32.Vec2..4, []Vec2i..4i
// or [][]float32.
func (e *Engine) CreateDataArray(name string, data any) (*DataArray, error) {
	a, err := newDataArray(name, data)
	if err != nil {
		return nil, configErr(name, err)
	}
	return e.addDataArray(a, 0), nil
}

func (e *Engine) addDataArray(a *DataArray, id uint64) *DataArray {
	if id == 0 {
		id = e.nextArrayID
	}
	if id >= e.nextArrayID {
		e.nextArrayID = id + 1
	}
	a.engine = e
	a.id = id
	e.arrays = append(e.arrays, a)
	return a
}

func newDataArray(name string, data any) (*DataArray, error) {
	a := &DataArray{name: name}
	switch d := data.(type) {
	case []float32:
		a.elem, a.values = TypeFloat, wrapAll(d)
	case []int32:
		a.elem, a.values = TypeInt32, wrapAll(d)
	case []mgl32.Vec2:
		a.elem, a.values = TypeVec2f, wrapAll(d)
	case []mgl32.Vec3:
		a.elem, a.values = TypeVec3f, wrapAll(d)
	case []mgl32.Vec4:
		a.elem, a.values = TypeVec4f, wrapAll(d)
	case []Vec2i:
		a.elem, a.values = TypeVec2i, wrapAll(d)
	case []Vec3i:
		a.elem, a.values = TypeVec3i, wrapAll(d)
	case []Vec4i:
		a.elem, a.values = TypeVec4i, wrapAll(d)
	case [][]float32:
		a.elem = TypeArray
		for _, row := range d {
			if len(row) == 0 || len(row) != len(d[0]) {
				return nil, errors.Wrap(ErrInvalidConfig, "array-of-float elements must be non-empty and of equal length")
			}
			a.floats = append(a.floats, slices.Clone(row))
		}
		if len(d) > 0 && len(d[0]) > MaxArraySize {
			return nil, errors.Wrapf(ErrInvalidConfig, "array-of-float elements exceed %d floats", MaxArraySize)
		}
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unsupported data array element type %T", data)
	}
	if a.Len() == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "data array is empty")
	}
	return a, nil
}

func wrapAll[T Scalar](items []T) []Value {
	out := make([]Value, len(items))
	for i, v := range items {
		out[i] = ValueOf(v)
	}
	return out
}

// DataArrays returns all data arrays in creation order.
func (e *Engine) DataArrays() []*DataArray {
	return slices.Clone(e.arrays)
}

func (e *Engine) FindDataArray(name string) *DataArray {
	for _, a := range e.arrays {
		if a.name == name {
			return a
		}
	}
	return nil
}

// DestroyDataArray fails while an animation node references the array.
func (e *Engine) DestroyDataArray(a *DataArray) error {
	if a == nil || a.engine != e {
		return ErrForeignEngine
	}
	if err := e.guardWrite(true); err != nil {
		return err
	}
	if a.users > 0 {
		return errors.Wrapf(ErrInUse, "data array %q is used by %d animation node(s)", a.name, a.users)
	}
	e.arrays = slices.DeleteFunc(e.arrays, func(x *DataArray) bool { return x == a })
	a.engine = nil
	return nil
}
