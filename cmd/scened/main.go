package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/scenekit/engine/internal/config"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/memory"
	coresys "github.com/scenekit/engine/internal/core/system"
	"github.com/scenekit/engine/internal/data"
	"github.com/scenekit/engine/internal/importer"
	"github.com/scenekit/engine/internal/inspect"
	"github.com/scenekit/engine/internal/persist"
	"github.com/scenekit/engine/internal/scene"
	"github.com/scenekit/engine/internal/scripting"
	"github.com/scenekit/engine/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Engine host ───────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg := config.Default()
	cfgPath := "config/scene.toml"
	if p := os.Getenv("SCENE_CONFIG"); p != "" {
		cfgPath = p
	}
	if _, err := os.Stat(cfgPath); err == nil || os.Getenv("SCENE_CONFIG") != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if cfg.Frame.TickRate <= 0 {
		return fmt.Errorf("load config: tick_rate must be positive, got %s", cfg.Frame.TickRate)
	}

	// 2. Init logger. The inspector owns the terminal, so logs go to a file.
	if cfg.Scene.Inspect && cfg.Logging.File == "" {
		cfg.Logging.File = cfg.Engine.Name + ".log"
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Memory, world and the built-in component classes
	printSection("Engine")
	mm, err := memory.NewManager(memory.Capacities{
		CPUGeneric:      cfg.Memory.CPUGeneric,
		GPUInstanceData: cfg.Memory.GPUInstanceData,
		GPUVertexData:   cfg.Memory.GPUVertexData,
		UBOGeneric:      cfg.Memory.UBOGeneric,
	}, log)
	if err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	world := ecs.NewWorld(mm, log, ecs.WithDefaultMaxCount(cfg.Components.DefaultMaxCount))
	sc, err := scene.New(world, scene.Config{
		MaxTransforms:  cfg.Components.MaxTransforms,
		MaxSceneGraphs: cfg.Components.MaxSceneGraphs,
	}, log)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	scripts, err := scripting.NewEngine(cfg.Scripting.Dir, sc, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()
	scriptTID, err := scripts.RegisterClass(cfg.Components.MaxScripts)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	printOK("component classes registered")

	// 4. Optional persistence
	var snapRepo *persist.SnapshotRepo
	var journalRepo *persist.JournalRepo
	if cfg.Database.DSN != "" {
		printSection("Database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		snapRepo = persist.NewSnapshotRepo(db)
		journalRepo = persist.NewJournalRepo(db, cfg.Engine.Name)
	}

	// 5. Populate the scene
	printSection("Scene")
	opts := []importer.Option{importer.WithScripts(scripts, scriptTID)}
	if cfg.Scene.Prefabs != "" {
		prefabs, err := data.LoadPrefabTable(cfg.Scene.Prefabs)
		if err != nil {
			return fmt.Errorf("prefabs: %w", err)
		}
		printStat("prefabs", prefabs.Count())
		opts = append(opts, importer.WithPrefabs(prefabs))
	}
	im := importer.New(sc, log, opts...)
	desc, err := sceneDesc(cfg, snapRepo)
	if err != nil {
		return err
	}
	if desc != nil {
		res, err := im.Import(desc)
		if err != nil {
			return fmt.Errorf("import scene: %w", err)
		}
		printStat("nodes", len(res.Entities))
		printStat("roots", len(res.Roots))
	} else {
		printOK("empty scene")
	}

	// 6. Systems
	runner := coresys.NewRunner(world, ecs.ParseProcessApproach(cfg.Frame.ProcessApproach), log)
	runner.Register(system.NewGridSystem(sc, cfg.Scene.GridCellSize))
	runner.Register(system.NewStatsSystem(world, cfg.Frame.StatsEvery, log))
	var persistSys *system.PersistenceSystem
	if snapRepo != nil {
		interval := system.SnapshotEveryFrames(cfg.Database.SnapshotInterval, cfg.Frame.TickRate)
		persistSys = system.NewPersistenceSystem(sc, cfg.Engine.Name, snapRepo, journalRepo, log, interval)
		runner.Register(persistSys)
	}
	runner.Register(system.NewCleanupSystem(world, log))

	// 7. Optional hierarchy viewer
	var viewer *inspect.Viewer
	var termEvents chan tcell.Event
	if cfg.Scene.Inspect {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("inspector: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("inspector: %w", err)
		}
		defer screen.Fini()
		viewer = inspect.NewViewer(screen, sc)
		termEvents = make(chan tcell.Event, 100)
		go func() {
			for {
				ev := screen.PollEvent()
				if ev == nil {
					return
				}
				termEvents <- ev
			}
		}()
	}

	// 8. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Frame.TickRate)
	defer ticker.Stop()

	log.Info("frame loop started",
		zap.String("engine", cfg.Engine.Name),
		zap.Duration("tick", cfg.Frame.TickRate),
		zap.Uint64("max_frames", cfg.Frame.MaxFrames),
	)

	stop := func(reason string) error {
		if persistSys != nil {
			persistSys.SaveNow()
		}
		log.Info("engine stopped", zap.String("reason", reason), zap.Uint64("frames", runner.Frame()))
		return nil
	}

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			runner.Tick(now.Sub(last))
			last = now
			if viewer != nil {
				viewer.Draw(runner.Frame())
			}
			if cfg.Frame.MaxFrames > 0 && runner.Frame() >= cfg.Frame.MaxFrames {
				return stop("max frames")
			}
		case ev := <-termEvents:
			if viewer.HandleEvent(ev) {
				return stop("inspector quit")
			}
		case sig := <-shutdownCh:
			return stop(sig.String())
		}
	}
}

// sceneDesc picks what to load: the configured description file, else the
// latest stored snapshot, else nothing.
func sceneDesc(cfg *config.Config, snaps *persist.SnapshotRepo) (*data.SceneDesc, error) {
	if cfg.Scene.Path != "" {
		d, err := data.LoadSceneDesc(cfg.Scene.Path)
		if err != nil {
			return nil, fmt.Errorf("scene description: %w", err)
		}
		return d, nil
	}
	if snaps == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := snaps.Latest(ctx, cfg.Engine.Name)
	if errors.Is(err, persist.ErrNoSnapshot) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	printOK(fmt.Sprintf("restored snapshot of frame %d", snap.Frame))
	return snap.SceneDesc()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	return zapCfg.Build()
}
