package logic

import (
	"strings"

	"github.com/pkg/errors"
)

// Type is the semantic type of a property.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt32
	TypeInt64
	TypeFloat
	TypeString
	TypeVec2f
	TypeVec3f
	TypeVec4f
	TypeVec2i
	TypeVec3i
	TypeVec4i
	TypeStruct
	TypeArray
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeFloat:   "float",
	TypeString:  "string",
	TypeVec2f:   "vec2f",
	TypeVec3f:   "vec3f",
	TypeVec4f:   "vec4f",
	TypeVec2i:   "vec2i",
	TypeVec3i:   "vec3i",
	TypeVec4i:   "vec4i",
	TypeStruct:  "struct",
	TypeArray:   "array",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// ParseType is the inverse of Type.String, case insensitive.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if Type(t) != TypeInvalid && name == s {
			return Type(t), nil
		}
	}
	return TypeInvalid, errors.Errorf("unknown property type %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsContainer reports whether properties of this type hold children instead of a value.
func (t Type) IsContainer() bool {
	return t == TypeStruct || t == TypeArray
}

func (t Type) valid() bool {
	return t > TypeInvalid && t <= TypeArray
}

// Components is the number of scalar components of a leaf type.
func (t Type) Components() int {
	switch t {
	case TypeVec2f, TypeVec2i:
		return 2
	case TypeVec3f, TypeVec3i:
		return 3
	case TypeVec4f, TypeVec4i:
		return 4
	case TypeStruct, TypeArray, TypeInvalid:
		return 0
	default:
		return 1
	}
}

func (t Type) isIntegral() bool {
	switch t {
	case TypeInt32, TypeInt64, TypeVec2i, TypeVec3i, TypeVec4i:
		return true
	}
	return false
}

type Vec2i [2]int32
type Vec3i [3]int32
type Vec4i [4]int32

// TypeDesc is the static description a property tree is built from.
// Array descriptions carry one child per element, all of the same shape.
type TypeDesc struct {
	Name     string     `yaml:"name" toml:"name"`
	Type     Type       `yaml:"type" toml:"type"`
	Children []TypeDesc `yaml:"children,omitempty" toml:"children,omitempty"`
}

func Leaf(name string, t Type) TypeDesc {
	return TypeDesc{Name: name, Type: t}
}

func StructOf(name string, fields ...TypeDesc) TypeDesc {
	return TypeDesc{Name: name, Type: TypeStruct, Children: fields}
}

func ArrayOf(name string, n int, elem TypeDesc) TypeDesc {
	elem.Name = ""
	children := make([]TypeDesc, n)
	for i := range children {
		children[i] = elem
	}
	return TypeDesc{Name: name, Type: TypeArray, Children: children}
}

// MaxArraySize bounds the element count of array properties.
const MaxArraySize = 255

func (d TypeDesc) validate() error {
	if !d.Type.valid() {
		return errors.Wrapf(ErrInvalidConfig, "property %q has invalid type", d.Name)
	}
	switch d.Type {
	case TypeStruct:
		seen := make(map[string]struct{}, len(d.Children))
		for _, c := range d.Children {
			if c.Name == "" {
				return errors.Wrapf(ErrInvalidConfig, "struct %q has a field without a name", d.Name)
			}
			if _, dup := seen[c.Name]; dup {
				return errors.Wrapf(ErrInvalidConfig, "struct %q has duplicate field %q", d.Name, c.Name)
			}
			seen[c.Name] = struct{}{}
			if err := c.validate(); err != nil {
				return err
			}
		}
	case TypeArray:
		if len(d.Children) == 0 || len(d.Children) > MaxArraySize {
			return errors.Wrapf(ErrInvalidConfig, "array %q must have between 1 and %d elements, has %d", d.Name, MaxArraySize, len(d.Children))
		}
		first := d.Children[0]
		if err := first.validate(); err != nil {
			return err
		}
		for _, c := range d.Children[1:] {
			if !first.sameShape(c) {
				return errors.Wrapf(ErrInvalidConfig, "array %q has elements of different types", d.Name)
			}
		}
	default:
		if len(d.Children) != 0 {
			return errors.Wrapf(ErrInvalidConfig, "property %q of type %s cannot have children", d.Name, d.Type)
		}
	}
	return nil
}

// sameShape compares types recursively, ignoring the top level name.
func (d TypeDesc) sameShape(o TypeDesc) bool {
	if d.Type != o.Type || len(d.Children) != len(o.Children) {
		return false
	}
	for i := range d.Children {
		if d.Type == TypeStruct && d.Children[i].Name != o.Children[i].Name {
			return false
		}
		if !d.Children[i].sameShape(o.Children[i]) {
			return false
		}
	}
	return true
}

func validateFields(kind string, fields []TypeDesc) error {
	return StructOf(kind, fields...).validate()
}
