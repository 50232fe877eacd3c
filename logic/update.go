package logic

import (
	"time"

	"github.com/petermattis/goid"
	"github.com/pkg/errors"
)

// NodeTiming is one executed node in an UpdateReport.
type NodeTiming struct {
	ID       NodeID
	Name     string
	Kind     NodeKind
	Duration time.Duration
}

// NodeRef names a node without holding it.
type NodeRef struct {
	ID   NodeID
	Name string
}

// UpdateReport describes one Update call. It is collected only when
// reporting is enabled and never influences execution.
type UpdateReport struct {
	Total           time.Duration
	Sort            time.Duration
	Executed        []NodeTiming
	Skipped         []NodeRef
	LinkActivations int
	Err             error
}

// LastUpdateReport returns the report of the most recent Update.
func (e *Engine) LastUpdateReport() UpdateReport {
	return e.lastReport
}

// Update runs one evaluation pass. On a cycle no node executes. On a runtime
// error the pass stops; nodes that already ran keep their new state.
func (e *Engine) Update() error {
	gid := goid.Get()
	if !e.running.CompareAndSwap(0, gid) {
		owner := e.running.Load()
		if owner == gid {
			return errors.Wrap(ErrUpdateInProgress, "nested update call")
		}
		return errors.Wrapf(ErrUpdateInProgress, "engine is updating on goroutine %d", owner)
	}
	defer e.running.Store(0)

	var report UpdateReport
	start := time.Now()
	err := e.update(&report)
	report.Total = time.Since(start)
	report.Err = err
	if e.reporting {
		e.lastReport = report
	}
	return err
}

// guardWrite rejects mutations while an update runs. Inputs may still be set
// from the updating goroutine, e.g. by scene callbacks; they apply on the
// next update. Structural changes are rejected from every goroutine.
func (e *Engine) guardWrite(structural bool) error {
	owner := e.running.Load()
	if owner == 0 {
		return nil
	}
	if !structural && owner == goid.Get() {
		return nil
	}
	return errors.Wrapf(ErrUpdateInProgress, "engine is updating on goroutine %d", owner)
}

func (e *Engine) update(report *UpdateReport) error {
	sortStart := time.Now()
	order, err := e.sorted()
	report.Sort = time.Since(sortStart)
	if err != nil {
		return err
	}

	for _, n := range order {
		if n.alwaysDirty {
			n.dirty = true
		}
	}

	for _, n := range order {
		if e.dirtyTracking && !n.dirty {
			if e.reporting {
				report.Skipped = append(report.Skipped, NodeRef{ID: n.id, Name: n.name})
			}
			continue
		}

		var nodeStart time.Time
		if e.reporting {
			nodeStart = time.Now()
		}
		if err := e.execute(n); err != nil {
			e.log.Warn("node update failed", "node", n.name, "id", n.id, "err", err)
			return &RuntimeError{Node: n.name, NodeID: n.id, Err: err}
		}
		report.LinkActivations += e.propagate(n)
		n.dirty = false
		if e.reporting {
			report.Executed = append(report.Executed, NodeTiming{
				ID:       n.id,
				Name:     n.name,
				Kind:     n.Kind(),
				Duration: time.Since(nodeStart),
			})
		}
	}
	return nil
}

// propagate pushes every linked output leaf of n to its targets and returns
// the number of link activations.
func (e *Engine) propagate(n *Node) int {
	activations := 0
	e.props.walk(n.outputs, func(_ handle, rec *propRecord) {
		if rec.targets == nil || rec.targets.Cardinality() == 0 {
			return
		}
		for _, t := range rec.targets.ToSlice() {
			activations++
			target := e.props.get(t)
			changed := e.assign(t, rec.value)
			// animation inputs re-run whenever their source fires
			if changed || target.node.impl.kind() == KindAnimation {
				target.node.dirty = true
			}
		}
	})
	return activations
}
