package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/delaneyj/logicgraph/scenefile"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

const (
	widthKey   = "width"
	heightKey  = "height"
	scriptsKey = "scripts"
	outKey     = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate chain shaped scene files for load testing logicrun",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  widthKey,
				Usage: "Number of chains fed by the source node",
				Value: 10,
			},
			&cli.UintFlag{
				Name:  heightKey,
				Usage: "Number of nodes per chain",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  scriptsKey,
				Usage: "Use script nodes that increment their input instead of interfaces",
			},
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Output file, .yaml or .toml",
				Value: "chain.yaml",
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	out := cmd.String(outKey)
	log.Printf("Codegen for %s started !", out)
	defer func() {
		log.Printf("Codegen for %s finished in %v", out, time.Since(start))
	}()

	format, err := scenefile.FormatOf(out)
	if err != nil {
		return err
	}
	f := chain(int(cmd.Uint(widthKey)), int(cmd.Uint(heightKey)), cmd.Bool(scriptsKey))
	contents, err := scenefile.Marshal(f, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, contents, 0644); err != nil {
		return err
	}
	log.Printf("Wrote %s nodes, %s links, %s", humanize.Comma(int64(len(f.Nodes))), humanize.Comma(int64(len(f.Links))), humanize.Bytes(uint64(len(contents))))
	return nil
}

// chain describes w chains of h nodes fed by one source.
//
//	src ─┬─ n0_0 ─ n0_1 ─ … ─ n0_h
//	     ├─ n1_0 ─ n1_1 ─ … ─ n1_h
//	     └─ …
func chain(w, h int, scripts bool) *scenefile.File {
	v := []scenefile.Field{{Name: "v", Type: logic.TypeInt32.String()}}
	f := &scenefile.File{
		Nodes: []scenefile.Node{{Name: "src", Kind: logic.KindInterface.String(), Fields: v}},
		Set:   []scenefile.Assign{{Path: "src.v", Value: 1}},
	}
	for i := 0; i < w; i++ {
		last := "src"
		for j := 0; j < h; j++ {
			name := fmt.Sprintf("n%d_%d", i, j)
			n := scenefile.Node{Name: name, Kind: logic.KindInterface.String(), Fields: v}
			if scripts {
				n = scenefile.Node{
					Name:    name,
					Kind:    logic.KindScript.String(),
					Inputs:  v,
					Outputs: v,
					Run:     []logic.Assignment{{Target: "v", Expr: "inputs.v + 1"}},
				}
			}
			f.Nodes = append(f.Nodes, n)
			f.Links = append(f.Links, scenefile.Link{From: last + ".v", To: name + ".v"})
			last = name
		}
	}
	return f
}
