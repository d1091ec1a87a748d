// Command loom runs the artifact pipeline: it connects to the graph store,
// executes the generation stages in order, writes the application tree, and
// records provenance edges between the stored artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loomkit/loom/internal/config"
	"github.com/loomkit/loom/internal/generate"
	"github.com/loomkit/loom/internal/logbook"
	"github.com/loomkit/loom/internal/memex"
	"github.com/loomkit/loom/internal/pipeline"
	"github.com/loomkit/loom/internal/project"
	"github.com/loomkit/loom/internal/registry"
	"github.com/loomkit/loom/internal/stagedef"
	"github.com/loomkit/loom/internal/tui"
)

func main() {
	var (
		dir   string
		noTUI bool
	)
	flag.StringVar(&dir, "dir", "", "project directory (defaults to the working directory)")
	flag.BoolVar(&noTUI, "no-tui", false, "print plain progress instead of the interactive view")
	flag.Parse()

	if err := run(dir, noTUI); err != nil {
		fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, noTUI bool) error {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		dir = cwd
	}

	if err := config.InitLoomDir(dir); err != nil {
		return fmt.Errorf("initialize %s: %w", config.LoomDir, err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return err
	}

	log, err := logbook.New(cfg.LogPath())
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}
	defer log.Close()
	log.Info("run started: app %s, model %s", cfg.Project.App.Name, cfg.Project.Generator.Model)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := memex.NewClient(cfg.Project.Store.Binary, cfg.StagingFile(), cfg.Project.Store.Timeout.Std())
	// Init fails when the repository already exists; that is the common case
	// on reruns, so log and move on. Connect failing is fatal.
	if err := store.Init(ctx, cfg.Project.Store.Repository); err != nil {
		log.Warn("store init: %v", err)
	}
	if err := store.Connect(ctx, cfg.Project.Store.File); err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}

	apiKey, err := cfg.LoadAPIKey()
	if err != nil {
		return err
	}
	gen := generate.NewClient(
		cfg.Project.Generator.BaseURL,
		cfg.Project.Generator.Model,
		apiKey,
		cfg.Project.Generator.Timeout.Std(),
	)

	layout := project.NewLayout(cfg.OutputDir())
	if err := layout.Initialize(); err != nil {
		return fmt.Errorf("initialize output tree: %w", err)
	}

	custom, err := loadCustomStages(cfg.StageDefinitionsDir())
	if err != nil {
		return err
	}
	if len(custom) > 0 {
		log.Info("loaded %d custom stages", len(custom))
	}

	reg := registry.New(store)
	opts := []pipeline.Option{
		pipeline.WithLogbook(log),
		pipeline.WithGeneratorTimeout(cfg.Project.Generator.Timeout.Std()),
		pipeline.WithCustomStages(custom),
	}

	if noTUI {
		return runPlain(ctx, reg, gen, layout, opts)
	}
	return runTUI(ctx, cfg.Project.App.Name, reg, gen, layout, opts, custom)
}

func loadCustomStages(dir string) ([]stagedef.StageDefinition, error) {
	yamlDefs, err := stagedef.LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	goDefs, err := stagedef.LoadGoDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	var defs []stagedef.StageDefinition
	for _, file := range append(yamlDefs, goDefs...) {
		defs = append(defs, file.Definition)
	}
	return defs, nil
}

// plainObserver prints one line per stage event for non-interactive runs.
type plainObserver struct{}

func (plainObserver) StageStarted(stage string) {
	fmt.Printf("▸ %s\n", stage)
}

func (plainObserver) StageCompleted(stage string, record pipeline.StageRecord) {
	fmt.Printf("✓ %s (%d nodes, %d files)\n", stage, len(record.Nodes), len(record.Files))
}

func (plainObserver) StageFailed(stage string, err error) {
	fmt.Printf("✗ %s: %v\n", stage, err)
}

func runPlain(ctx context.Context, reg *registry.Registry, gen generate.Generator, layout *project.Layout, opts []pipeline.Option) error {
	opts = append(opts, pipeline.WithObserver(plainObserver{}))
	orch := pipeline.New(reg, gen, layout, opts...)
	records, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("done: %d stages, output in %s\n", len(records), layout.Root())
	return nil
}

func runTUI(ctx context.Context, appName string, reg *registry.Registry, gen generate.Generator, layout *project.Layout, opts []pipeline.Option, custom []stagedef.StageDefinition) error {
	stages := make([]string, 0, len(pipeline.Sequence())+len(custom))
	for _, stage := range pipeline.Sequence() {
		stages = append(stages, stage.String())
	}
	for _, def := range custom {
		stages = append(stages, def.ID)
	}

	app := tui.NewApp(appName, stages)
	program := tea.NewProgram(app, tea.WithContext(ctx))

	opts = append(opts, pipeline.WithObserver(tui.NewProgramObserver(program)))
	orch := pipeline.New(reg, gen, layout, opts...)
	go func() {
		_, err := orch.Run(ctx)
		program.Send(tui.RunFinishedMsg{Err: err})
	}()

	model, err := program.Run()
	if err != nil {
		return fmt.Errorf("run progress view: %w", err)
	}
	if final, ok := model.(*tui.App); ok {
		return final.Err()
	}
	return nil
}
