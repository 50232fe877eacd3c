// Package scenefile reads graph descriptions from YAML or TOML and builds
// them into a logic engine backed by an in-memory scene.
package scenefile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type File struct {
	Scene  []Object `yaml:"scene" toml:"scene"`
	Arrays []Array  `yaml:"arrays" toml:"arrays"`
	Nodes  []Node   `yaml:"nodes" toml:"nodes"`
	Links  []Link   `yaml:"links" toml:"links"`
	Set    []Assign `yaml:"set" toml:"set"`
}

// Object is a scene object created in the in-memory scene. Kind is one of
// node, camera, appearance, renderpass, rendergroup, meshnode, renderbuffer.
type Object struct {
	Name       string    `yaml:"name" toml:"name"`
	Kind       string    `yaml:"kind" toml:"kind"`
	Parent     string    `yaml:"parent,omitempty" toml:"parent,omitempty"`
	Projection string    `yaml:"projection,omitempty" toml:"projection,omitempty"`
	Uniforms   []Uniform `yaml:"uniforms,omitempty" toml:"uniforms,omitempty"`
	Elements   []string  `yaml:"elements,omitempty" toml:"elements,omitempty"`
	Width      int32     `yaml:"width,omitempty" toml:"width,omitempty"`
	Height     int32     `yaml:"height,omitempty" toml:"height,omitempty"`
}

type Uniform struct {
	Name  string `yaml:"name" toml:"name"`
	Kind  string `yaml:"kind" toml:"kind"`
	Count int    `yaml:"count,omitempty" toml:"count,omitempty"`
}

// Array is a data array. Type "array" holds lists of floats.
type Array struct {
	Name   string `yaml:"name" toml:"name"`
	Type   string `yaml:"type" toml:"type"`
	Values []any  `yaml:"values" toml:"values"`
}

// Field describes a property. Arrays use Size and Element, structs Fields.
type Field struct {
	Name    string  `yaml:"name" toml:"name"`
	Type    string  `yaml:"type" toml:"type"`
	Size    int     `yaml:"size,omitempty" toml:"size,omitempty"`
	Element *Field  `yaml:"element,omitempty" toml:"element,omitempty"`
	Fields  []Field `yaml:"fields,omitempty" toml:"fields,omitempty"`
}

type Channel struct {
	Name          string `yaml:"name" toml:"name"`
	Timestamps    string `yaml:"timestamps" toml:"timestamps"`
	Keyframes     string `yaml:"keyframes" toml:"keyframes"`
	Interpolation string `yaml:"interpolation" toml:"interpolation"`
	TangentsIn    string `yaml:"tangentsIn,omitempty" toml:"tangentsIn,omitempty"`
	TangentsOut   string `yaml:"tangentsOut,omitempty" toml:"tangentsOut,omitempty"`
}

// Node is one logic node. Which fields apply depends on Kind.
type Node struct {
	Name string `yaml:"name" toml:"name"`
	Kind string `yaml:"kind" toml:"kind"`

	Fields  []Field            `yaml:"fields,omitempty" toml:"fields,omitempty"`
	Inputs  []Field            `yaml:"inputs,omitempty" toml:"inputs,omitempty"`
	Outputs []Field            `yaml:"outputs,omitempty" toml:"outputs,omitempty"`
	Run     []logic.Assignment `yaml:"run,omitempty" toml:"run,omitempty"`

	Channels []Channel `yaml:"channels,omitempty" toml:"channels,omitempty"`
	Expose   bool      `yaml:"expose,omitempty" toml:"expose,omitempty"`

	Object   string   `yaml:"object,omitempty" toml:"object,omitempty"`
	Rotation string   `yaml:"rotation,omitempty" toml:"rotation,omitempty"`
	Elements []string `yaml:"elements,omitempty" toml:"elements,omitempty"`

	Node   string `yaml:"node,omitempty" toml:"node,omitempty"`
	Camera string `yaml:"camera,omitempty" toml:"camera,omitempty"`

	Joints     []string `yaml:"joints,omitempty" toml:"joints,omitempty"`
	Appearance string   `yaml:"appearance,omitempty" toml:"appearance,omitempty"`
	Uniform    string   `yaml:"uniform,omitempty" toml:"uniform,omitempty"`
}

// Link connects "node.output.path" to "node.input.path".
type Link struct {
	From string `yaml:"from" toml:"from"`
	To   string `yaml:"to" toml:"to"`
	Weak bool   `yaml:"weak,omitempty" toml:"weak,omitempty"`
}

// Assign sets the input at "node.input.path" before the first update.
type Assign struct {
	Path  string `yaml:"path" toml:"path"`
	Value any    `yaml:"value" toml:"value"`
}

type Format uint8

const (
	YAML Format = iota + 1
	TOML
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return 0, errors.Errorf("unknown scene file extension %q", filepath.Ext(path))
}

func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return f, nil
}

func Parse(data []byte, format Format) (*File, error) {
	f := &File{}
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "decoding yaml")
		}
	case TOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return nil, errors.Wrap(err, "decoding toml")
		}
	default:
		return nil, errors.New("unknown scene file format")
	}
	return f, nil
}

// Marshal encodes f in the given format.
func Marshal(f *File, format Format) ([]byte, error) {
	switch format {
	case YAML:
		return yaml.Marshal(f)
	case TOML:
		return toml.Marshal(f)
	}
	return nil, errors.New("unknown scene file format")
}
