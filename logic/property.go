package logic

import (
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// handle addresses a record in the property arena. gen 0 is never live.
type handle struct {
	idx uint32
	gen uint32
}

func (h handle) isZero() bool { return h.gen == 0 }

type role uint8

const (
	roleInput role = iota
	roleOutput
)

type propRecord struct {
	gen      uint32
	name     string
	typ      Type
	value    Value
	children []handle
	parent   handle
	node     *Node
	role     role

	// incoming link, only on input leaves
	source handle
	weak   bool
	// outgoing links, only on output leaves, nil until first linked
	targets mapset.Set[handle]
}

type arena struct {
	recs []propRecord
	free []uint32
	gens uint32
}

func (a *arena) get(h handle) *propRecord {
	if h.gen == 0 || int(h.idx) >= len(a.recs) {
		return nil
	}
	r := &a.recs[h.idx]
	if r.gen != h.gen {
		return nil
	}
	return r
}

func (a *arena) alloc() handle {
	a.gens++
	if a.gens == 0 {
		a.gens++
	}
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.recs))
		a.recs = append(a.recs, propRecord{})
	}
	a.recs[idx] = propRecord{gen: a.gens}
	return handle{idx: idx, gen: a.gens}
}

// build allocates the record tree for d. Records may move while building, so
// no pointers are held across recursive calls.
func (a *arena) build(d TypeDesc, n *Node, r role, parent handle) handle {
	h := a.alloc()
	rec := a.get(h)
	rec.name = d.Name
	rec.typ = d.Type
	rec.node = n
	rec.role = r
	rec.parent = parent
	if !d.Type.IsContainer() {
		rec.value = Zero(d.Type)
		return h
	}
	children := make([]handle, len(d.Children))
	for i, c := range d.Children {
		children[i] = a.build(c, n, r, h)
	}
	a.get(h).children = children
	return h
}

func (a *arena) release(h handle) {
	rec := a.get(h)
	if rec == nil {
		return
	}
	for _, c := range rec.children {
		a.release(c)
	}
	*rec = propRecord{}
	a.free = append(a.free, h.idx)
}

// walk visits h and its descendants in pre-order.
func (a *arena) walk(h handle, fn func(handle, *propRecord)) {
	rec := a.get(h)
	if rec == nil {
		return
	}
	fn(h, rec)
	for _, c := range rec.children {
		a.walk(c, fn)
	}
}

func (a *arena) leaves(h handle) []handle {
	var out []handle
	a.walk(h, func(h handle, rec *propRecord) {
		if !rec.typ.IsContainer() {
			out = append(out, h)
		}
	})
	return out
}

// desc rebuilds the TypeDesc of a subtree.
func (a *arena) desc(h handle) TypeDesc {
	rec := a.get(h)
	d := TypeDesc{Name: rec.name, Type: rec.typ}
	for _, c := range rec.children {
		d.Children = append(d.Children, a.desc(c))
	}
	return d
}

// indexPath returns the child indexes leading from the tree root to h.
func (a *arena) indexPath(h handle) []int {
	var path []int
	for {
		rec := a.get(h)
		if rec == nil || rec.parent.isZero() {
			break
		}
		parent := a.get(rec.parent)
		for i, c := range parent.children {
			if c == h {
				path = append(path, i)
				break
			}
		}
		h = rec.parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (a *arena) resolve(root handle, path []int) (handle, bool) {
	h := root
	for _, i := range path {
		rec := a.get(h)
		if rec == nil || i < 0 || i >= len(rec.children) {
			return handle{}, false
		}
		h = rec.children[i]
	}
	return h, a.get(h) != nil
}

// Property is a handle to a node property. The zero Property is invalid, and
// lookups that find nothing return it.
type Property struct {
	e *Engine
	h handle
}

func (p Property) rec() *propRecord {
	if p.e == nil {
		return nil
	}
	return p.e.props.get(p.h)
}

// IsValid reports whether the property exists.
func (p Property) IsValid() bool { return p.rec() != nil }

func (p Property) Name() string {
	if rec := p.rec(); rec != nil {
		return rec.name
	}
	return ""
}

func (p Property) Type() Type {
	if rec := p.rec(); rec != nil {
		return rec.typ
	}
	return TypeInvalid
}

// Value returns the current value of a leaf; containers return the zero Value.
func (p Property) Value() Value {
	if rec := p.rec(); rec != nil {
		return rec.value
	}
	return Value{}
}

// Set writes a leaf input value and reports whether it changed. A changed
// value marks the owning node dirty. Setting a linked input succeeds, but the
// value is overwritten by the next update.
func (p Property) Set(v Value) (bool, error) {
	rec := p.rec()
	if rec == nil {
		return false, ErrPropertyGone
	}
	if err := p.e.guardWrite(false); err != nil {
		return false, err
	}
	if rec.typ.IsContainer() {
		return false, errors.Wrap(ErrNotLeaf, p.Path())
	}
	if rec.role == roleOutput {
		return false, errors.Wrap(ErrOutputReadOnly, p.Path())
	}
	if v.t != rec.typ {
		return false, errors.Wrapf(ErrTypeMismatch, "%s is %s, got %s", p.Path(), rec.typ, v.t)
	}
	if rec.value.Equal(v) {
		return false, nil
	}
	rec.value = v
	rec.node.dirty = true
	return true, nil
}

// Get reads a leaf as T.
func Get[T Scalar](p Property) (T, bool) {
	return As[T](p.Value())
}

// Set writes a leaf input as T, see Property.Set.
func Set[T Scalar](p Property, v T) (bool, error) {
	return p.Set(ValueOf(v))
}

func (p Property) ChildCount() int {
	if rec := p.rec(); rec != nil {
		return len(rec.children)
	}
	return 0
}

func (p Property) ChildAt(i int) Property {
	rec := p.rec()
	if rec == nil || i < 0 || i >= len(rec.children) {
		return Property{}
	}
	return Property{e: p.e, h: rec.children[i]}
}

// Child returns the struct field with the given name.
func (p Property) Child(name string) Property {
	rec := p.rec()
	if rec == nil || rec.typ != TypeStruct {
		return Property{}
	}
	for _, c := range rec.children {
		if p.e.props.get(c).name == name {
			return Property{e: p.e, h: c}
		}
	}
	return Property{}
}

// Lookup resolves a dot separated path of field names and array indexes,
// e.g. "channelsData.x.keyframes.2".
func (p Property) Lookup(path string) Property {
	if path == "" {
		return p
	}
	cur := p
	for _, seg := range strings.Split(path, ".") {
		switch cur.Type() {
		case TypeStruct:
			cur = cur.Child(seg)
		case TypeArray:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return Property{}
			}
			cur = cur.ChildAt(i)
		default:
			return Property{}
		}
		if !cur.IsValid() {
			return Property{}
		}
	}
	return cur
}

// Node returns the owning node.
func (p Property) Node() *Node {
	if rec := p.rec(); rec != nil {
		return rec.node
	}
	return nil
}

func (p Property) IsInput() bool {
	rec := p.rec()
	return rec != nil && rec.role == roleInput
}

func (p Property) IsOutput() bool {
	rec := p.rec()
	return rec != nil && rec.role == roleOutput
}

func (p Property) HasIncomingLink() bool {
	rec := p.rec()
	return rec != nil && !rec.source.isZero()
}

func (p Property) HasOutgoingLinks() bool {
	rec := p.rec()
	return rec != nil && rec.targets != nil && rec.targets.Cardinality() > 0
}

// IncomingLink returns the output feeding this input and whether the link is weak.
func (p Property) IncomingLink() (Property, bool) {
	rec := p.rec()
	if rec == nil || rec.source.isZero() {
		return Property{}, false
	}
	return Property{e: p.e, h: rec.source}, rec.weak
}

// Path is a human readable location like "node.outputs.a.0".
func (p Property) Path() string {
	rec := p.rec()
	if rec == nil {
		return "<gone>"
	}
	var segs []string
	h := p.h
	for {
		r := p.e.props.get(h)
		if r.parent.isZero() {
			break
		}
		parent := p.e.props.get(r.parent)
		if parent.typ == TypeArray {
			for i, c := range parent.children {
				if c == h {
					segs = append(segs, strconv.Itoa(i))
				}
			}
		} else {
			segs = append(segs, r.name)
		}
		h = r.parent
	}
	root := "inputs"
	if rec.role == roleOutput {
		root = "outputs"
	}
	segs = append(segs, root, rec.node.name)
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, ".")
}

// assign writes a value without role checks and reports whether it changed.
func (e *Engine) assign(h handle, v Value) bool {
	rec := e.props.get(h)
	if rec.value.Equal(v) {
		return false
	}
	rec.value = v
	return true
}
