// Profiling:
// go build ./cmd/sceneprof
// ./sceneprof -mode cpu -depth 8 -width 4 -frames 2000
// go tool pprof -http=":8000" ./sceneprof cpu.pprof

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/memory"
	coresys "github.com/scenekit/engine/internal/core/system"
	"github.com/scenekit/engine/internal/scene"
	"go.uber.org/zap"
)

func main() {
	mode := flag.String("mode", "cpu", "profile mode: cpu, mem or allocs")
	depth := flag.Int("depth", 6, "hierarchy depth")
	width := flag.Int("width", 4, "children per node")
	frames := flag.Int("frames", 1000, "frames to run")
	flag.Parse()

	var opt func(*profile.Profile)
	switch *mode {
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfile
	case "allocs":
		opt = profile.MemProfileAllocs
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook)
	n, elapsed, err := run(*depth, *width, *frames)
	p.Stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d nodes, %d frames in %s (%s/frame)\n", n, *frames, elapsed, elapsed/time.Duration(*frames))
}

// run builds a full tree and moves every root each frame, so every world
// matrix below it goes stale and is recomputed in PreRender.
func run(depth, width, frames int) (int, time.Duration, error) {
	nodes := 0
	for d, level := 0, 1; d < depth; d++ {
		nodes += level
		level *= width
	}

	log := zap.NewNop()
	mm, err := memory.NewManager(memory.Capacities{
		CPUGeneric:      nodes*512 + 4096,
		GPUInstanceData: nodes*128 + 4096,
	}, log)
	if err != nil {
		return 0, 0, err
	}
	world := ecs.NewWorld(mm, log, ecs.WithDefaultMaxCount(nodes))
	sc, err := scene.New(world, scene.Config{MaxTransforms: nodes, MaxSceneGraphs: nodes}, log)
	if err != nil {
		return 0, 0, err
	}

	root, err := sc.CreateGroupEntity()
	if err != nil {
		return 0, 0, err
	}
	level := []*scene.GroupEntity{root}
	for d := 1; d < depth; d++ {
		var next []*scene.GroupEntity
		for _, parent := range level {
			for i := 0; i < width; i++ {
				g, err := sc.CreateGroupEntity()
				if err != nil {
					return 0, 0, err
				}
				g.Transform().SetTranslate(mgl32.Vec3{float32(i), 1, 0})
				if err := parent.AddChild(g); err != nil {
					return 0, 0, err
				}
				next = append(next, g)
			}
		}
		level = next
	}

	runner := coresys.NewRunner(world, ecs.ApproachUniform, log)
	dt := 16 * time.Millisecond
	start := time.Now()
	for f := 0; f < frames; f++ {
		root.Transform().SetRotate(mgl32.Vec3{0, float32(f) * 0.01, 0})
		runner.Tick(dt)
	}
	return nodes, time.Since(start), nil
}
