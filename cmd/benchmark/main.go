package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	profile = flag.String("cpuprofile", "", "write a cpu profile to this file")
	ww      = []int{1, 10, 100}
	hh      = []int{1, 10, 100}
	iters   = 100
)

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkPropagate(false, true)
	benchmarkPropagate(true, true)
	benchmarkScripts(true)
}

// chain builds w chains of h interface nodes fed by one source.
//
//	src ─┬─ n0_0 ─ n0_1 ─ … ─ n0_h
//	     ├─ n1_0 ─ n1_1 ─ … ─ n1_h
//	     └─ …
func chain(e *logic.Engine, w, h int) logic.Property {
	fields := []logic.TypeDesc{logic.Leaf("v", logic.TypeInt32)}
	src, err := e.CreateInterface("src", fields)
	if err != nil {
		log.Fatal(err)
	}
	for i := 0; i < w; i++ {
		last := src
		for j := 0; j < h; j++ {
			n, err := e.CreateInterface(fmt.Sprintf("n%d_%d", i, j), fields)
			if err != nil {
				log.Fatal(err)
			}
			if err := e.Link(last.Output("v"), n.Input("v")); err != nil {
				log.Fatal(err)
			}
			last = n
		}
	}
	return src.Input("v")
}

func benchmarkPropagate(everyNode, shouldRender bool) {
	title := "Logic propagate (dirty tracking)"
	if everyNode {
		title = "Logic propagate (every node)"
	}
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			e := logic.New(logic.WithDirtyTracking(!everyNode))
			src := chain(e, w, h)
			if err := e.Update(); err != nil {
				log.Fatal(err)
			}

			for i := 0; i < iters; i++ {
				v, _ := logic.Get[int32](src)
				start := time.Now()
				if _, err := logic.Set(src, v+1); err != nil {
					log.Fatal(err)
				}
				if err := e.Update(); err != nil {
					log.Fatal(err)
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkScripts(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Logic scripts")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	cfg := logic.ScriptConfig{
		Inputs:  []logic.TypeDesc{logic.Leaf("x", logic.TypeFloat)},
		Outputs: []logic.TypeDesc{logic.Leaf("x", logic.TypeFloat)},
		Run:     []logic.Assignment{{Target: "x", Expr: "inputs.x * 0.5 + 1"}},
	}
	for _, h := range hh {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		e := logic.New()
		first, err := e.CreateScript("s0", cfg)
		if err != nil {
			log.Fatal(err)
		}
		last := first
		for j := 1; j < h; j++ {
			n, err := e.CreateScript(fmt.Sprintf("s%d", j), cfg)
			if err != nil {
				log.Fatal(err)
			}
			if err := e.Link(last.Output("x"), n.Input("x")); err != nil {
				log.Fatal(err)
			}
			last = n
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			if _, err := logic.Set(first.Input("x"), float32(i)); err != nil {
				log.Fatal(err)
			}
			if err := e.Update(); err != nil {
				log.Fatal(err)
			}
			tach.AddTime(time.Since(start))
		}

		calc := tach.Calc()
		tbl.AppendRow(table.Row{
			fmt.Sprintf("script chain: %d", h),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		})
	}

	if shouldRender {
		tbl.Render()
	}
}
