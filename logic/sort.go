package logic

import (
	"container/heap"
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// Sort returns the evaluation order, computing and caching it if needed.
// It fails with ErrCycle when strong links form a cycle.
func (e *Engine) Sort() ([]*Node, error) {
	order, err := e.sorted()
	if err != nil {
		return nil, err
	}
	out := make([]*Node, len(order))
	copy(out, order)
	return out, nil
}

func (e *Engine) sorted() ([]*Node, error) {
	if e.orderValid {
		return e.order, nil
	}
	dependents := make(map[*Node][]*Node)
	for _, n := range e.nodes {
		for _, dep := range n.after {
			dependents[dep] = append(dependents[dep], n)
		}
	}
	order, err := topoSort(e.nodes, func(n *Node) mapset.Set[*Node] {
		return e.successors(n, dependents[n])
	})
	if err != nil {
		e.log.Debug("sort failed", "err", err)
		return nil, err
	}
	e.order = order
	e.orderValid = true
	e.log.Debug("sorted", "nodes", len(order))
	return order, nil
}

// successors returns the nodes fed by n through strong links, plus the
// dependents that declared n as an implicit predecessor.
func (e *Engine) successors(n *Node, dependents []*Node) mapset.Set[*Node] {
	succ := mapset.NewThreadUnsafeSet[*Node]()
	e.props.walk(n.outputs, func(_ handle, rec *propRecord) {
		if rec.targets == nil {
			return
		}
		for t := range rec.targets.Iter() {
			target := e.props.get(t)
			if !target.weak {
				succ.Add(target.node)
			}
		}
	})
	for _, d := range dependents {
		succ.Add(d)
	}
	return succ
}

// readyQueue pops the lowest registration position first, which keeps the
// order deterministic for a fixed graph.
type readyQueue []int

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)        { *q = append(*q, x.(int)) }
func (q *readyQueue) Pop() any {
	old := *q
	x := old[len(old)-1]
	*q = old[:len(old)-1]
	return x
}

// topoSort is Kahn's algorithm over nodes given in registration order.
func topoSort(nodes []*Node, successors func(*Node) mapset.Set[*Node]) ([]*Node, error) {
	pos := make(map[*Node]int, len(nodes))
	for i, n := range nodes {
		pos[n] = i
	}
	succ := make([][]int, len(nodes))
	indeg := make([]int, len(nodes))
	for i, n := range nodes {
		for s := range successors(n).Iter() {
			j, ok := pos[s]
			if !ok {
				continue
			}
			succ[i] = append(succ[i], j)
			indeg[j]++
		}
	}

	q := &readyQueue{}
	for i, d := range indeg {
		if d == 0 {
			*q = append(*q, i)
		}
	}
	heap.Init(q)

	order := make([]*Node, 0, len(nodes))
	for q.Len() > 0 {
		i := heap.Pop(q).(int)
		order = append(order, nodes[i])
		for _, j := range succ[i] {
			indeg[j]--
			if indeg[j] == 0 {
				heap.Push(q, j)
			}
		}
	}

	if len(order) < len(nodes) {
		var stuck []string
		for i, d := range indeg {
			if d > 0 {
				stuck = append(stuck, nodes[i].name)
			}
		}
		return nil, errors.Wrapf(ErrCycle, "involving %s", strings.Join(stuck, ", "))
	}
	return order, nil
}

// Fingerprint hashes the current evaluation order. Two engines with the same
// graph built in the same order have equal fingerprints.
func (e *Engine) Fingerprint() (uint64, error) {
	order, err := e.sorted()
	if err != nil {
		return 0, err
	}
	d := xxhash.New()
	var buf [8]byte
	for _, n := range order {
		binary.LittleEndian.PutUint64(buf[:], uint64(n.id))
		d.Write(buf[:])
		d.WriteString(n.name)
	}
	return d.Sum64(), nil
}
