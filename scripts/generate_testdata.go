//go:build ignore

// generate_testdata.go creates standard tree datasets for benchmarking and
// manual testing of tk.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/trees/small.json    (100 nodes, random shape)
//	testdata/trees/medium.json   (1000 nodes, random shape)
//	testdata/trees/large.yaml    (5000 nodes, random shape)
//	testdata/trees/deep.json     (chain of 500)
//	testdata/trees/wide.json     (2000 roots)
//	testdata/trees/balanced.yaml (depth 6, breadth 4)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/treekit/pkg/loader"
	"github.com/vanderheijden86/treekit/pkg/testutil"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

type datasetSpec struct {
	name   string
	format loader.Format
	build  func(g *testutil.Generator) []*tree.Node
}

var datasets = []datasetSpec{
	{"small", loader.FormatJSON, func(g *testutil.Generator) []*tree.Node { return g.Random(100) }},
	{"medium", loader.FormatJSON, func(g *testutil.Generator) []*tree.Node { return g.Random(1000) }},
	{"large", loader.FormatYAML, func(g *testutil.Generator) []*tree.Node { return g.Random(5000) }},
	{"deep", loader.FormatJSON, func(g *testutil.Generator) []*tree.Node { return g.Chain(500) }},
	{"wide", loader.FormatJSON, func(g *testutil.Generator) []*tree.Node { return g.Wide(2000) }},
	{"balanced", loader.FormatYAML, func(g *testutil.Generator) []*tree.Node { return g.Balanced(6, 4) }},
}

func main() {
	outputDir := "testdata/trees"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for i, ds := range datasets {
		// Reproducible per dataset.
		roots := ds.build(testutil.New(int64(i + 1)))
		tree.Normalize(roots, tree.CheckPolicy{})

		data, err := loader.Encode(roots, ds.format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.name, err)
			os.Exit(1)
		}
		outputPath := filepath.Join(outputDir, ds.name+"."+ds.format.String())
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s (%d bytes, %d nodes)\n", outputPath, len(data), tree.Count(roots))
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}
