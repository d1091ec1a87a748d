// Package pipeline sequences the generation stages that produce the target
// application. Stages run strictly in order; each one resolves prior
// artifacts through the description registry, optionally calls the
// generator, stores the result as a graph node, extracts file contents, and
// records provenance edges.
package pipeline

// Stage enumerates the pipeline's states in execution order.
type Stage int

const (
	StageConfig Stage = iota
	StageStructure
	StageComponent
	StageHook
	StageBackend
	StageDeployment
	StageDone
)

var stageNames = map[Stage]string{
	StageConfig:     "config",
	StageStructure:  "structure",
	StageComponent:  "frontend-component",
	StageHook:       "frontend-hook",
	StageBackend:    "backend",
	StageDeployment: "deployment",
	StageDone:       "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Next returns the stage that follows s. Done is terminal.
func (s Stage) Next() Stage {
	if s >= StageDone {
		return StageDone
	}
	return s + 1
}

// Sequence returns the runnable stages in execution order.
func Sequence() []Stage {
	return []Stage{
		StageConfig,
		StageStructure,
		StageComponent,
		StageHook,
		StageBackend,
		StageDeployment,
	}
}

// Descriptions under which stage artifacts are registered. Each is written
// at most once per run.
const (
	DescProjectConfig   = "project-config"
	DescProjectPlan     = "project-plan"
	DescComponent       = "display-component"
	DescFrontendNotes   = "frontend-decisions"
	DescHook            = "data-hook"
	DescBackend         = "backend"
	DescBackendNotes    = "backend-decisions"
	DescDeployment      = "deployment"
	DescDeploymentNotes = "deployment-decisions"
)

// Edge relations recorded between artifact nodes.
const (
	RelationImplements   = "implements"
	RelationExplains     = "explains"
	RelationServes       = "serves"
	RelationDeploys      = "deploys"
	RelationProvidesData = "provides-data"
)

// StoredNode pairs a description with the node id the store assigned.
type StoredNode struct {
	Description string
	NodeID      string
}

// Edge records a provenance relation between two described nodes.
type Edge struct {
	From     string
	To       string
	Relation string
}

// StageRecord captures what one stage consumed and produced, making the
// dependency graph between stages auditable.
type StageRecord struct {
	Stage         string
	Inputs        []string
	Nodes         []StoredNode
	Files         []string
	Edges         []Edge
	GeneratorCall bool
}
