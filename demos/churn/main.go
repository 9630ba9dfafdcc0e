// churn stress-tests the arbor hierarchy: it builds deep chains and wide fans,
// then reparents random entities every frame, validating the arena after each
// round and logging relocation statistics. Optionally replays a YAML script
// and profiles the run.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/arbor"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

type options struct {
	configPath  string
	scriptPath  string
	entities    int
	rounds      int
	opsPerRound int
	seed        uint64
	profile     string
	verbose     bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "churn",
		Short:        "Stress-test arbor reparenting and teardown",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "TOML scene config")
	f.StringVarP(&opts.scriptPath, "script", "s", "", "YAML hierarchy script to replay before churning")
	f.IntVarP(&opts.entities, "entities", "n", 1000, "entities to create")
	f.IntVarP(&opts.rounds, "rounds", "r", 100, "churn rounds")
	f.IntVar(&opts.opsPerRound, "ops", 100, "reparent operations per round")
	f.Uint64Var(&opts.seed, "seed", 1, "random seed")
	f.StringVar(&opts.profile, "profile", "", "write a profile: cpu or mem")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func run(opts options) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           log.InfoLevel,
	})
	if opts.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile %q (want cpu or mem)", opts.profile)
	}

	cfg := arbor.Config{Capacity: opts.entities}
	if opts.configPath != "" {
		loaded, err := arbor.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cfg.Capacity < opts.entities {
		return fmt.Errorf("capacity %d is smaller than --entities %d", cfg.Capacity, opts.entities)
	}
	scene := arbor.NewScene(cfg)
	scene.SetLogger(logger.WithPrefix("arbor"))

	if opts.scriptPath != "" {
		if err := replay(scene, opts.scriptPath); err != nil {
			return err
		}
		logger.Info("script replayed", "path", opts.scriptPath, "entities", scene.Len())
	}

	start := time.Now()
	ents := make([]*arbor.Entity, 0, opts.entities)
	for len(ents) < opts.entities && scene.HighWater() < scene.Capacity() {
		e := scene.NewEntity(fmt.Sprintf("e%d", len(ents)))
		e.Transform().SetLocalPosition(mgl64.Vec3{1, 0, 0})
		ents = append(ents, e)
	}
	logger.Info("created", "entities", len(ents), "elapsed", time.Since(start).Round(time.Microsecond))
	if len(ents) == 0 {
		return fmt.Errorf("no room left for churn entities (capacity %d)", scene.Capacity())
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	for round := 0; round < opts.rounds; round++ {
		t0 := time.Now()
		cycles := 0
		for i := 0; i < opts.opsPerRound; i++ {
			e := ents[rng.IntN(len(ents))]
			var p *arbor.Entity
			if rng.IntN(8) != 0 {
				p = ents[rng.IntN(len(ents))]
			}
			if p != nil && (p == e || e.IsAncestorOf(p)) {
				cycles++
				continue
			}
			e.SetParent(p)
		}
		scene.Update()
		if err := scene.Validate(); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		st := scene.Stats()
		logger.Debug("round", "n", round, "elapsed", time.Since(t0).Round(time.Microsecond),
			"skipped cycles", cycles, "relocations", st.Relocations, "moved", st.TotalMoved)
	}

	st := scene.Stats()
	logger.Info("churn done", "rounds", opts.rounds, "relocations", st.Relocations,
		"records moved", st.TotalMoved, "scratch peak", st.ScratchPeak, "roots", len(scene.Roots()))

	// Tail-first, so every teardown is a pure shrink of the high-water mark.
	t0 := time.Now()
	roots := scene.Roots()
	for i := len(roots) - 1; i >= 0; i-- {
		roots[i].Destroy()
	}
	logger.Info("teardown", "high-water", scene.HighWater(), "elapsed", time.Since(t0).Round(time.Microsecond))
	return nil
}

func replay(scene *arbor.Scene, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script %s: %w", path, err)
	}
	runner, err := arbor.LoadScript(data)
	if err != nil {
		return err
	}
	return runner.Run(scene)
}
