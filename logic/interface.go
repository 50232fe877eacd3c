package logic

type interfaceImpl struct {
	fields []TypeDesc
}

func (*interfaceImpl) kind() NodeKind { return KindInterface }

// CreateInterface creates a node whose outputs mirror its inputs. Interfaces
// give a graph a stable surface other nodes can link against.
func (e *Engine) CreateInterface(name string, fields []TypeDesc) (*Node, error) {
	return e.createInterface(name, fields, 0)
}

func (e *Engine) createInterface(name string, fields []TypeDesc, id NodeID) (*Node, error) {
	if err := validateFields(name, fields); err != nil {
		return nil, configErr(name, err)
	}
	desc := StructOf("", fields...)
	n := e.register(name, id, desc, &desc, &interfaceImpl{fields: fields})
	return n, nil
}

func (e *Engine) updateInterface(n *Node) error {
	in := e.props.leaves(n.inputs)
	out := e.props.leaves(n.outputs)
	for i, h := range in {
		e.assign(out[i], e.props.get(h).value)
	}
	return nil
}
