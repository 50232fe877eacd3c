package logic

import (
	mapset "github.com/deckarep/golang-set/v2"
)

type linkEnds struct {
	src, dst handle
}

// LinkInfo describes one link.
type LinkInfo struct {
	Source Property
	Target Property
	Weak   bool
}

// Link creates a strong link from an output leaf to an input leaf of the same type.
func (e *Engine) Link(src, dst Property) error {
	return e.link(src, dst, false)
}

// LinkWeak creates a link that is ignored by ordering and cycle detection.
// The target may observe the previous update's value.
func (e *Engine) LinkWeak(src, dst Property) error {
	return e.link(src, dst, true)
}

func (e *Engine) link(src, dst Property, weak bool) error {
	fail := func(err error) error {
		return &LinkError{Source: src.Path(), Target: dst.Path(), Err: err}
	}
	if (src.e != nil && src.e != e) || (dst.e != nil && dst.e != e) {
		return fail(ErrForeignEngine)
	}
	if err := e.guardWrite(true); err != nil {
		return fail(err)
	}
	s, d := src.rec(), dst.rec()
	if s == nil || d == nil {
		return fail(ErrPropertyGone)
	}
	if s.role != roleOutput || d.role != roleInput {
		return fail(ErrLinkDirection)
	}
	if s.typ.IsContainer() || d.typ.IsContainer() {
		return fail(ErrNotLeaf)
	}
	if s.typ != d.typ {
		return fail(ErrTypeMismatch)
	}
	if s.node == d.node {
		return fail(ErrSelfLink)
	}
	if !d.source.isZero() {
		return fail(ErrAlreadyLinked)
	}

	d.source = src.h
	d.weak = weak
	if s.targets == nil {
		s.targets = mapset.NewThreadUnsafeSet[handle]()
	}
	s.targets.Add(dst.h)
	if !weak {
		e.invalidateOrder()
	}
	// the source re-runs so the target receives a value on the next update
	s.node.dirty = true
	d.node.dirty = true
	e.log.Debug("linked", "source", src.Path(), "target", dst.Path(), "weak", weak)
	return nil
}

// Unlink removes the link between src and dst.
func (e *Engine) Unlink(src, dst Property) error {
	if (src.e != nil && src.e != e) || (dst.e != nil && dst.e != e) {
		return &LinkError{Source: src.Path(), Target: dst.Path(), Err: ErrForeignEngine}
	}
	if err := e.guardWrite(true); err != nil {
		return &LinkError{Source: src.Path(), Target: dst.Path(), Err: err}
	}
	s, d := src.rec(), dst.rec()
	if s == nil || d == nil {
		return &LinkError{Source: src.Path(), Target: dst.Path(), Err: ErrPropertyGone}
	}
	if d.source != src.h {
		return &LinkError{Source: src.Path(), Target: dst.Path(), Err: ErrNotLinked}
	}
	e.removeLink(src.h, dst.h)
	e.log.Debug("unlinked", "source", src.Path(), "target", dst.Path())
	return nil
}

func (e *Engine) removeLink(src, dst handle) {
	s, d := e.props.get(src), e.props.get(dst)
	s.targets.Remove(dst)
	d.source = handle{}
	d.weak = false
	d.node.dirty = true
	e.invalidateOrder()
}

// IsLinked reports whether any property of n has an incoming or outgoing link.
func (e *Engine) IsLinked(n *Node) bool {
	if !e.owns(n) {
		return false
	}
	linked := false
	check := func(_ handle, rec *propRecord) {
		if !rec.source.isZero() || (rec.targets != nil && rec.targets.Cardinality() > 0) {
			linked = true
		}
	}
	e.props.walk(n.inputs, check)
	e.props.walk(n.outputs, check)
	return linked
}

// Links lists all links ordered by target node registration and property order.
func (e *Engine) Links() []LinkInfo {
	var out []LinkInfo
	for _, n := range e.nodes {
		e.props.walk(n.inputs, func(h handle, rec *propRecord) {
			if rec.source.isZero() {
				return
			}
			out = append(out, LinkInfo{
				Source: Property{e: e, h: rec.source},
				Target: Property{e: e, h: h},
				Weak:   rec.weak,
			})
		})
	}
	return out
}

// LinkCount is len(Links()) without building the list.
func (e *Engine) LinkCount() int {
	count := 0
	for _, n := range e.nodes {
		e.props.walk(n.inputs, func(_ handle, rec *propRecord) {
			if !rec.source.isZero() {
				count++
			}
		})
	}
	return count
}
