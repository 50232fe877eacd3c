package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/delaneyj/logicgraph/logic"
	"github.com/delaneyj/logicgraph/report"
	"github.com/delaneyj/logicgraph/scenefile"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

const (
	framesKey  = "frames"
	reportKey  = "report"
	verboseKey = "verbose"
	outputKey  = "out"
	noDirtyKey = "no-dirty-tracking"
)

func main() {
	if err := command().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func command() *cli.Command {
	return &cli.Command{
		Name:  "logicrun",
		Usage: "Build and run logic graphs described in YAML or TOML",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log engine diagnostics to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Run a graph for a number of frames and print its outputs",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  framesKey,
						Usage: "Number of updates to run",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  reportKey,
						Usage: "Print per node timings",
					},
					&cli.BoolFlag{
						Name:  noDirtyKey,
						Usage: "Execute every node on every update",
					},
				},
				Action: run,
			},
			{
				Name:      "dot",
				Usage:     "Print the graph in Graphviz DOT",
				ArgsUsage: "FILE",
				Action:    dot,
			},
			{
				Name:      "save",
				Usage:     "Build a graph and write its binary snapshot",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     outputKey,
						Usage:    "Snapshot path",
						Required: true,
					},
				},
				Action: save,
			},
			{
				Name:      "links",
				Usage:     "List the links of a graph",
				ArgsUsage: "FILE",
				Action:    links,
			},
		},
	}
}

func build(cmd *cli.Command, opts ...logic.Option) (*logic.Engine, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, errors.New("missing graph file")
	}
	f, err := scenefile.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Bool(verboseKey) {
		opts = append(opts, logic.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	e, _, err := scenefile.Build(f, opts...)
	if err != nil {
		return nil, err
	}
	for _, w := range e.Validate() {
		log.Printf("warning: %s", w)
	}
	return e, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	frames := int(cmd.Uint(framesKey))
	e, err := build(cmd,
		logic.WithUpdateReport(cmd.Bool(reportKey)),
		logic.WithDirtyTracking(!cmd.Bool(noDirtyKey)),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	collector := report.NewCollector(frames)
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Update(); err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		if cmd.Bool(reportKey) {
			collector.Add(e.LastUpdateReport())
		}
	}
	log.Printf("ran %s frames in %v", humanize.Comma(int64(frames)), time.Since(start))

	w := cmd.Root().Writer
	for _, n := range e.Nodes() {
		out, ok := n.Outputs()
		if !ok {
			continue
		}
		printLeaves(w, n.Name(), out)
	}
	if cmd.Bool(reportKey) {
		collector.Render(w, cmd.Args().First())
	}
	return nil
}

func printLeaves(w io.Writer, prefix string, p logic.Property) {
	if !p.Type().IsContainer() {
		fmt.Fprintf(w, "%s = %s\n", prefix, p.Value())
		return
	}
	for i := 0; i < p.ChildCount(); i++ {
		c := p.ChildAt(i)
		name := c.Name()
		if p.Type() == logic.TypeArray {
			name = fmt.Sprint(i)
		}
		printLeaves(w, prefix+"."+name, c)
	}
}

func dot(ctx context.Context, cmd *cli.Command) error {
	e, err := build(cmd)
	if err != nil {
		return err
	}
	path := cmd.Args().First()
	report.WriteDOT(cmd.Root().Writer, e, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	return nil
}

func save(ctx context.Context, cmd *cli.Command) error {
	e, err := build(cmd)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	n, err := e.Save(&buf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cmd.String(outputKey), buf.Bytes(), 0644); err != nil {
		return err
	}
	log.Printf("wrote %s (%d nodes, %d links) to %s", humanize.Bytes(uint64(n)), len(e.Nodes()), e.LinkCount(), cmd.String(outputKey))
	return nil
}

func links(ctx context.Context, cmd *cli.Command) error {
	e, err := build(cmd)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(cmd.Root().Writer)
	table.SetHeader([]string{"source", "target", "type", "kind"})
	for _, l := range e.Links() {
		kind := "strong"
		if l.Weak {
			kind = "weak"
		}
		table.Append([]string{l.Source.Path(), l.Target.Path(), l.Source.Type().String(), kind})
	}
	table.Render()
	return nil
}
