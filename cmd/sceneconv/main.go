// sceneconv converts a stored snapshot payload (the JSON in
// scene_snapshots.payload) to a scene description YAML file.
package main

import (
	"fmt"
	"os"

	"github.com/scenekit/engine/internal/data"
	"github.com/scenekit/engine/internal/persist"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: sceneconv <snapshot.json> <output.yaml>")
		os.Exit(1)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	snap, err := persist.DecodeSnapshot(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	desc, err := snap.SceneDesc()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := os.Create(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Fprintf(out, "# Scene %q, auto-generated from snapshot of frame %d (%d nodes)\n", desc.Name, snap.Frame, desc.Count())
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(sceneFile{Name: desc.Name, Nodes: desc.Nodes}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	enc.Close()

	fmt.Printf("Wrote %d nodes to %s\n", desc.Count(), os.Args[2])
}

// sceneFile mirrors data.SceneDesc without its lookup index.
type sceneFile struct {
	Name  string          `yaml:"name"`
	Nodes []data.NodeDesc `yaml:"nodes"`
}
