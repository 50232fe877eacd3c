package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//	src → double
const doubler = `
nodes:
  - name: src
    kind: interface
    fields:
      - {name: v, type: int32}
  - name: double
    kind: script
    inputs:
      - {name: v, type: int32}
    outputs:
      - {name: v, type: int32}
    run:
      - {target: v, expr: "inputs.v * 2"}
links:
  - {from: src.v, to: double.v}
set:
  - {path: src.v, value: 21}
`

func graphFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doubler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doubler), 0644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := command()
	cmd.Writer = &out
	err := cmd.Run(context.Background(), append([]string{"logicrun"}, args...))
	return out.String(), err
}

func TestRunPrintsOutputs(t *testing.T) {
	out, err := runCommand(t, "run", "--frames", "3", graphFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "src.v = int32(21)\n")
	assert.Contains(t, out, "double.v = int32(42)\n")
}

func TestRunReport(t *testing.T) {
	out, err := runCommand(t, "run", "--frames", "2", "--report", graphFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "double.v = int32(42)\n")
	assert.Contains(t, strings.ToLower(out), "2 frames")
}

func TestLinksAndDOT(t *testing.T) {
	path := graphFile(t)

	out, err := runCommand(t, "links", path)
	require.NoError(t, err)
	assert.Contains(t, out, "src.outputs.v")
	assert.Contains(t, out, "double.inputs.v")
	assert.Contains(t, out, "strong")

	out, err = runCommand(t, "dot", path)
	require.NoError(t, err)
	assert.Contains(t, out, `digraph "doubler" {`)
	assert.Contains(t, out, "->")
}

func TestSaveWritesSnapshot(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "doubler.bin")
	_, err := runCommand(t, "save", "--out", snapshot, graphFile(t))
	require.NoError(t, err)

	data, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("LGRAPH")))
}

func TestRunNeedsAFile(t *testing.T) {
	_, err := runCommand(t, "run")
	assert.ErrorContains(t, err, "missing graph file")
}
