package logic

const tickerUS = "ticker_us"

type timerImpl struct{}

func (*timerImpl) kind() NodeKind { return KindTimer }

// CreateTimerNode creates an always dirty node with an Int64 `ticker_us`
// input and output. A zero input yields the engine clock in microseconds;
// any other input passes through unchanged.
func (e *Engine) CreateTimerNode(name string) (*Node, error) {
	return e.createTimerNode(name, 0), nil
}

func (e *Engine) createTimerNode(name string, id NodeID) *Node {
	desc := StructOf("", Leaf(tickerUS, TypeInt64))
	n := e.register(name, id, desc, &desc, &timerImpl{})
	n.alwaysDirty = true
	return n
}

func (e *Engine) updateTimer(n *Node) error {
	in := e.props.get(n.inputs).children[0]
	out := e.props.get(n.outputs).children[0]
	ticker := e.props.get(in).value.Int64()
	if ticker == 0 {
		ticker = e.clock().UnixMicro()
	}
	e.assign(out, Int64Val(ticker))
	return nil
}
