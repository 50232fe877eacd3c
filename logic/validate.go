package logic

import "fmt"

// Warning is a finding of Validate. Warnings never block updates.
type Warning struct {
	Node    string
	Message string
}

func (w Warning) String() string {
	if w.Node == "" {
		return w.Message
	}
	return w.Node + ": " + w.Message
}

// Validate reports graph content that is legal but probably a mistake:
// interfaces with unlinked inputs or unused outputs, nodes that are not
// linked at all, weak links and data arrays no animation uses.
func (e *Engine) Validate() []Warning {
	var out []Warning
	for _, n := range e.nodes {
		switch n.Kind() {
		case KindInterface:
			e.props.walk(n.inputs, func(h handle, rec *propRecord) {
				if !rec.typ.IsContainer() && rec.source.isZero() {
					out = append(out, Warning{Node: n.name, Message: fmt.Sprintf("input %s is not linked", Property{e: e, h: h}.Path())})
				}
			})
			e.props.walk(n.outputs, func(h handle, rec *propRecord) {
				if !rec.typ.IsContainer() && (rec.targets == nil || rec.targets.Cardinality() == 0) {
					out = append(out, Warning{Node: n.name, Message: fmt.Sprintf("output %s is not used", Property{e: e, h: h}.Path())})
				}
			})
		case KindScript, KindAnimation:
			if !e.IsLinked(n) {
				out = append(out, Warning{Node: n.name, Message: "node is not linked to anything"})
			}
		}
	}
	for _, l := range e.Links() {
		if l.Weak {
			out = append(out, Warning{
				Node:    l.Target.Node().name,
				Message: fmt.Sprintf("weak link %s -> %s may deliver values one update late", l.Source.Path(), l.Target.Path()),
			})
		}
	}
	for _, a := range e.arrays {
		if a.users == 0 {
			out = append(out, Warning{Message: fmt.Sprintf("data array %q is not used", a.name)})
		}
	}
	return out
}
