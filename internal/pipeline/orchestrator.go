package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/loomkit/loom/internal/extract"
	"github.com/loomkit/loom/internal/generate"
	"github.com/loomkit/loom/internal/logbook"
	"github.com/loomkit/loom/internal/project"
	"github.com/loomkit/loom/internal/registry"
	"github.com/loomkit/loom/internal/stagedef"
)

// Observer receives stage lifecycle notifications. All methods are called
// from the goroutine running the pipeline.
type Observer interface {
	StageStarted(stage string)
	StageCompleted(stage string, record StageRecord)
	StageFailed(stage string, err error)
}

// Orchestrator drives the stages in order against a shared registry,
// generator, and output layout. A failed stage stops the run; completed
// stages are not rolled back.
type Orchestrator struct {
	reg     *registry.Registry
	gen     generate.Generator
	layout  *project.Layout
	log     *logbook.Logbook
	timeout time.Duration
	custom  []stagedef.StageDefinition
	observe Observer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogbook attaches a logbook for stage progress entries.
func WithLogbook(log *logbook.Logbook) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithObserver attaches an observer for stage lifecycle events.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observe = obs }
}

// WithCustomStages appends user-defined stages that run after the built-in
// sequence, in the given order.
func WithCustomStages(defs []stagedef.StageDefinition) Option {
	return func(o *Orchestrator) { o.custom = defs }
}

// WithGeneratorTimeout bounds each individual generator call.
func WithGeneratorTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// New builds an orchestrator over the run's registry, generator, and output
// layout.
func New(reg *registry.Registry, gen generate.Generator, layout *project.Layout, opts ...Option) *Orchestrator {
	o := &Orchestrator{reg: reg, gen: gen, layout: layout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the built-in stages in order, then any custom stages. It
// returns the records of every stage that completed, including none or all.
func (o *Orchestrator) Run(ctx context.Context) ([]StageRecord, error) {
	var records []StageRecord
	for _, stage := range Sequence() {
		record, err := o.runStage(ctx, stage)
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
	for _, def := range o.custom {
		record, err := o.runCustom(ctx, def)
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
	o.log.Info("pipeline complete: %d stages", len(records))
	return records, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage) (StageRecord, error) {
	name := stage.String()
	o.started(name)
	var (
		record StageRecord
		err    error
	)
	switch stage {
	case StageConfig:
		record, err = o.runConfig(ctx)
	case StageStructure:
		record, err = o.runStructure(ctx)
	case StageComponent:
		record, err = o.runComponent(ctx)
	case StageHook:
		record, err = o.runHook(ctx)
	case StageBackend:
		record, err = o.runBackend(ctx)
	case StageDeployment:
		record, err = o.runDeployment(ctx)
	default:
		err = fmt.Errorf("pipeline: no runner for stage %s", name)
	}
	return o.finish(name, record, err)
}

func (o *Orchestrator) finish(name string, record StageRecord, err error) (StageRecord, error) {
	if err != nil {
		wrapped := fmt.Errorf("pipeline: %s stage: %w", name, err)
		o.log.Error("stage %s failed: %v", name, err)
		o.failed(name, wrapped)
		return StageRecord{}, wrapped
	}
	record.Stage = name
	o.log.Info("stage %s complete: %d nodes, %d files", name, len(record.Nodes), len(record.Files))
	o.completed(name, record)
	return record, nil
}

// runConfig seeds the graph with the fixed configuration and plan documents.
// No generator call happens here.
func (o *Orchestrator) runConfig(ctx context.Context) (StageRecord, error) {
	var record StageRecord
	configID, err := o.reg.Store(ctx, DescProjectConfig, configDocument)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescProjectConfig, NodeID: configID})
	planID, err := o.reg.Store(ctx, DescProjectPlan, planDocument)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescProjectPlan, NodeID: planID})
	return record, nil
}

// runStructure materializes the project scaffolding from the stored
// configuration document: dependency manifests and TypeScript config by
// heading extraction, plus fixed build files.
func (o *Orchestrator) runStructure(ctx context.Context) (StageRecord, error) {
	record := StageRecord{Inputs: []string{DescProjectConfig}}
	config, err := o.reg.Resolve(ctx, DescProjectConfig)
	if err != nil {
		return record, err
	}
	files := []struct {
		path    string
		content string
	}{
		{o.layout.FrontendPackagePath(), extract.JSONObject(config, "Frontend Dependencies")},
		{o.layout.BackendPackagePath(), extract.JSONObject(config, "Backend Dependencies")},
		{o.layout.FrontendTSConfigPath(), extract.JSONObject(config, "Frontend TypeScript Config")},
		{o.layout.CSSTypesPath(), extract.Section(config, "CSS Modules Type Definition")},
		{o.layout.ViteConfigPath(), viteConfigTemplate},
		{o.layout.IndexHTMLPath(), indexHTMLTemplate},
		{o.layout.BackendTSConfigPath(), backendTSConfigTemplate},
	}
	for _, f := range files {
		if err := project.WriteFile(f.path, f.content); err != nil {
			return record, err
		}
		record.Files = append(record.Files, f.path)
	}
	return record, nil
}

// runComponent generates the weather display component from the project
// plan, stores it, writes the extracted TSX and optional CSS module, and
// records the design decisions behind it.
func (o *Orchestrator) runComponent(ctx context.Context) (StageRecord, error) {
	record := StageRecord{Inputs: []string{DescProjectPlan}, GeneratorCall: true}
	plan, err := o.reg.Resolve(ctx, DescProjectPlan)
	if err != nil {
		return record, err
	}
	raw, err := o.generateText(ctx, fmt.Sprintf(componentPrompt, plan))
	if err != nil {
		return record, err
	}
	componentID, err := o.reg.Store(ctx, DescComponent, raw)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescComponent, NodeID: componentID})
	if err := project.WriteFile(o.layout.ComponentPath(), extract.CodeBlock(raw, "tsx")); err != nil {
		return record, err
	}
	record.Files = append(record.Files, o.layout.ComponentPath())
	// The styles file is written only when the response carries a fenced
	// css block; the whole-input fallback would not be CSS.
	if css := extract.CodeBlock(raw, "css"); css != raw {
		if err := project.WriteFile(o.layout.ComponentStylesPath(), css); err != nil {
			return record, err
		}
		record.Files = append(record.Files, o.layout.ComponentStylesPath())
	}
	notesID, err := o.reg.Store(ctx, DescFrontendNotes, frontendDecisionsDocument)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescFrontendNotes, NodeID: notesID})
	edges := []Edge{
		{From: DescComponent, To: DescProjectPlan, Relation: RelationImplements},
		{From: DescFrontendNotes, To: DescComponent, Relation: RelationExplains},
	}
	if err := o.link(ctx, &record, edges); err != nil {
		return record, err
	}
	return record, nil
}

// runHook generates the data fetching hook from the frontend decisions and
// links it to the component it feeds.
func (o *Orchestrator) runHook(ctx context.Context) (StageRecord, error) {
	record := StageRecord{Inputs: []string{DescFrontendNotes}, GeneratorCall: true}
	notes, err := o.reg.Resolve(ctx, DescFrontendNotes)
	if err != nil {
		return record, err
	}
	raw, err := o.generateText(ctx, fmt.Sprintf(hookPrompt, notes))
	if err != nil {
		return record, err
	}
	hookID, err := o.reg.Store(ctx, DescHook, raw)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescHook, NodeID: hookID})
	if err := project.WriteFile(o.layout.HookPath(), extract.CodeBlock(raw, "typescript")); err != nil {
		return record, err
	}
	record.Files = append(record.Files, o.layout.HookPath())
	edges := []Edge{
		{From: DescHook, To: DescComponent, Relation: RelationProvidesData},
	}
	if err := o.link(ctx, &record, edges); err != nil {
		return record, err
	}
	return record, nil
}

// runBackend generates the Express server from the frontend decisions and
// hook source, then records the backend design decisions.
func (o *Orchestrator) runBackend(ctx context.Context) (StageRecord, error) {
	record := StageRecord{Inputs: []string{DescFrontendNotes, DescHook}, GeneratorCall: true}
	notes, err := o.reg.Resolve(ctx, DescFrontendNotes)
	if err != nil {
		return record, err
	}
	hook, err := o.reg.Resolve(ctx, DescHook)
	if err != nil {
		return record, err
	}
	raw, err := o.generateText(ctx, fmt.Sprintf(backendPrompt, notes, hook))
	if err != nil {
		return record, err
	}
	backendID, err := o.reg.Store(ctx, DescBackend, raw)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescBackend, NodeID: backendID})
	if err := project.WriteFile(o.layout.ServerPath(), extract.CodeBlock(raw, "typescript")); err != nil {
		return record, err
	}
	record.Files = append(record.Files, o.layout.ServerPath())
	notesID, err := o.reg.Store(ctx, DescBackendNotes, backendDecisionsDocument)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescBackendNotes, NodeID: notesID})
	edges := []Edge{
		{From: DescBackend, To: DescHook, Relation: RelationServes},
		{From: DescBackendNotes, To: DescBackend, Relation: RelationExplains},
	}
	if err := o.link(ctx, &record, edges); err != nil {
		return record, err
	}
	return record, nil
}

// runDeployment generates the Docker artifacts from the backend source and
// decisions, then records the deployment decisions.
func (o *Orchestrator) runDeployment(ctx context.Context) (StageRecord, error) {
	record := StageRecord{Inputs: []string{DescBackend, DescBackendNotes}, GeneratorCall: true}
	backend, err := o.reg.Resolve(ctx, DescBackend)
	if err != nil {
		return record, err
	}
	notes, err := o.reg.Resolve(ctx, DescBackendNotes)
	if err != nil {
		return record, err
	}
	raw, err := o.generateText(ctx, fmt.Sprintf(deploymentPrompt, backend, notes))
	if err != nil {
		return record, err
	}
	deployID, err := o.reg.Store(ctx, DescDeployment, raw)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescDeployment, NodeID: deployID})
	files := []struct {
		path    string
		content string
	}{
		{o.layout.DockerfilePath(), extract.CodeBlock(raw, "dockerfile")},
		{o.layout.ComposePath(), extract.CodeBlock(raw, "yaml")},
	}
	for _, f := range files {
		if err := project.WriteFile(f.path, f.content); err != nil {
			return record, err
		}
		record.Files = append(record.Files, f.path)
	}
	notesID, err := o.reg.Store(ctx, DescDeploymentNotes, deploymentDecisionsDocument)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: DescDeploymentNotes, NodeID: notesID})
	edges := []Edge{
		{From: DescDeployment, To: DescBackend, Relation: RelationDeploys},
		{From: DescDeploymentNotes, To: DescDeployment, Relation: RelationExplains},
	}
	if err := o.link(ctx, &record, edges); err != nil {
		return record, err
	}
	return record, nil
}

// runCustom executes a user-defined stage: resolve its declared inputs,
// generate from its prompt, store the artifact, write its outputs under the
// layout root, and record its edges.
func (o *Orchestrator) runCustom(ctx context.Context, def stagedef.StageDefinition) (StageRecord, error) {
	name := def.ID
	o.started(name)
	record, err := o.runCustomStage(ctx, def)
	return o.finish(name, record, err)
}

func (o *Orchestrator) runCustomStage(ctx context.Context, def stagedef.StageDefinition) (StageRecord, error) {
	record := StageRecord{Inputs: def.Inputs, GeneratorCall: true}
	prompt := def.Prompt
	for _, input := range def.Inputs {
		content, err := o.reg.Resolve(ctx, input)
		if err != nil {
			return record, err
		}
		prompt = fmt.Sprintf("%s\n\n%s:\n%s", prompt, input, content)
	}
	raw, err := o.generateText(ctx, prompt)
	if err != nil {
		return record, err
	}
	id, err := o.reg.Store(ctx, def.Description, raw)
	if err != nil {
		return record, err
	}
	record.Nodes = append(record.Nodes, StoredNode{Description: def.Description, NodeID: id})
	for _, out := range def.Outputs {
		content := raw
		if out.Language != "" {
			content = extract.CodeBlock(raw, out.Language)
		}
		path := filepath.Join(o.layout.Root(), filepath.FromSlash(out.Path))
		if err := project.WriteFile(path, content); err != nil {
			return record, err
		}
		record.Files = append(record.Files, path)
	}
	var edges []Edge
	for _, e := range def.Edges {
		edges = append(edges, Edge{From: def.Description, To: e.To, Relation: e.Relation})
	}
	if err := o.link(ctx, &record, edges); err != nil {
		return record, err
	}
	return record, nil
}

func (o *Orchestrator) link(ctx context.Context, record *StageRecord, edges []Edge) error {
	for _, edge := range edges {
		if err := o.reg.Link(ctx, edge.From, edge.To, edge.Relation); err != nil {
			return fmt.Errorf("link %s -> %s: %w", edge.From, edge.To, err)
		}
		record.Edges = append(record.Edges, edge)
	}
	return nil
}

func (o *Orchestrator) generateText(ctx context.Context, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.gen.Generate(ctx, prompt)
}

func (o *Orchestrator) started(stage string) {
	o.log.Info("stage %s started", stage)
	if o.observe != nil {
		o.observe.StageStarted(stage)
	}
}

func (o *Orchestrator) completed(stage string, record StageRecord) {
	if o.observe != nil {
		o.observe.StageCompleted(stage, record)
	}
}

func (o *Orchestrator) failed(stage string, err error) {
	if o.observe != nil {
		o.observe.StageFailed(stage, err)
	}
}
