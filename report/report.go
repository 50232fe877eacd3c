// Package report aggregates update reports of a logic engine across frames
// and renders them for humans.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

type nodeStats struct {
	name     string
	kind     logic.NodeKind
	tach     *tachymeter.Tachymeter
	executed int
	skipped  int
}

// Collector keeps timing percentiles per node over the last size updates.
// Update reports must be enabled on the engine.
type Collector struct {
	size        int
	frames      int
	failures    int
	activations int
	total       *tachymeter.Tachymeter
	sort        *tachymeter.Tachymeter
	nodes       map[logic.NodeID]*nodeStats
	order       []logic.NodeID
}

func NewCollector(size int) *Collector {
	if size <= 0 {
		size = 1000
	}
	return &Collector{
		size:  size,
		total: tachymeter.New(&tachymeter.Config{Size: size}),
		sort:  tachymeter.New(&tachymeter.Config{Size: size}),
		nodes: map[logic.NodeID]*nodeStats{},
	}
}

func (c *Collector) stats(id logic.NodeID, name string) *nodeStats {
	s, ok := c.nodes[id]
	if !ok {
		s = &nodeStats{name: name, tach: tachymeter.New(&tachymeter.Config{Size: c.size})}
		c.nodes[id] = s
		c.order = append(c.order, id)
	}
	return s
}

func (c *Collector) Add(r logic.UpdateReport) {
	c.frames++
	if r.Err != nil {
		c.failures++
	}
	c.activations += r.LinkActivations
	c.total.AddTime(r.Total)
	c.sort.AddTime(r.Sort)
	for _, t := range r.Executed {
		s := c.stats(t.ID, t.Name)
		s.kind = t.Kind
		s.executed++
		s.tach.AddTime(t.Duration)
	}
	for _, ref := range r.Skipped {
		c.stats(ref.ID, ref.Name).skipped++
	}
}

func (c *Collector) Frames() int      { return c.frames }
func (c *Collector) Failures() int    { return c.failures }
func (c *Collector) Activations() int { return c.activations }

// Executions returns how often a node ran and was skipped.
func (c *Collector) Executions(id logic.NodeID) (executed, skipped int) {
	if s, ok := c.nodes[id]; ok {
		return s.executed, s.skipped
	}
	return 0, 0
}

// Render writes a per node timing table followed by totals.
func (c *Collector) Render(w io.Writer, title string) {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"node", "kind", "runs", "skips", "avg", "p75", "p99", "max"})
	for _, id := range c.order {
		s := c.nodes[id]
		row := table.Row{s.name, s.kind, humanize.Comma(int64(s.executed)), humanize.Comma(int64(s.skipped))}
		if s.executed > 0 {
			calc := s.tach.Calc()
			row = append(row, calc.Time.Avg, calc.Time.P75, calc.Time.P99, calc.Time.Max)
		} else {
			row = append(row, "-", "-", "-", "-")
		}
		tbl.AppendRow(row)
	}
	total := c.total.Calc()
	tbl.AppendFooter(table.Row{
		"total",
		fmt.Sprintf("%s frames", humanize.Comma(int64(c.frames))),
		fmt.Sprintf("%s links", humanize.Comma(int64(c.activations))),
		fmt.Sprintf("%s failed", humanize.Comma(int64(c.failures))),
		total.Time.Avg, total.Time.P75, total.Time.P99, total.Time.Max,
	})
	tbl.Render()
}

// SortTime is the average time spent obtaining the evaluation order.
func (c *Collector) SortTime() time.Duration {
	if c.frames == 0 {
		return 0
	}
	return c.sort.Calc().Time.Avg
}
