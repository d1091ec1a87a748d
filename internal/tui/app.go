// Package tui renders pipeline progress with bubbletea. The pipeline runs in
// its own goroutine and reports through an observer that forwards stage
// events to the program as messages.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/loomkit/loom/internal/pipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingLeft(4)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingTop(1)
)

// StageStartedMsg marks a stage as running.
type StageStartedMsg struct {
	Stage string
}

// StageCompletedMsg carries the record of a finished stage.
type StageCompletedMsg struct {
	Stage  string
	Record pipeline.StageRecord
}

// StageFailedMsg carries a stage failure.
type StageFailedMsg struct {
	Stage string
	Err   error
}

// RunFinishedMsg signals the end of the whole run, successful or not.
type RunFinishedMsg struct {
	Err error
}

type stageState int

const (
	statePending stageState = iota
	stateRunning
	stateDone
	stateFailed
)

type stageRow struct {
	name   string
	state  stageState
	nodes  int
	files  int
	failed error
}

// App is the progress model for one pipeline run.
type App struct {
	appName string
	spinner spinner.Model
	rows    []stageRow
	index   map[string]int

	finished bool
	runErr   error
}

// NewApp builds the progress model for the given stage names in run order.
func NewApp(appName string, stages []string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle
	rows := make([]stageRow, len(stages))
	index := make(map[string]int, len(stages))
	for i, name := range stages {
		rows[i] = stageRow{name: name, state: statePending}
		index[name] = i
	}
	return &App{appName: appName, spinner: sp, rows: rows, index: index}
}

func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		}
	case StageStartedMsg:
		a.setState(msg.Stage, stateRunning, pipeline.StageRecord{}, nil)
	case StageCompletedMsg:
		a.setState(msg.Stage, stateDone, msg.Record, nil)
	case StageFailedMsg:
		a.setState(msg.Stage, stateFailed, pipeline.StageRecord{}, msg.Err)
	case RunFinishedMsg:
		a.finished = true
		a.runErr = msg.Err
		return a, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("⬡ %s", a.appName)))
	b.WriteString("\n\n")
	for _, row := range a.rows {
		b.WriteString(a.renderRow(row))
		b.WriteString("\n")
	}
	if a.finished {
		if a.runErr != nil {
			b.WriteString("\n" + failStyle.Render(fmt.Sprintf("run failed: %v", a.runErr)) + "\n")
		} else {
			b.WriteString("\n" + doneStyle.Render("run complete") + "\n")
		}
	} else {
		b.WriteString(helpStyle.Render("q to abort"))
		b.WriteString("\n")
	}
	return b.String()
}

// Err returns the run error, if any, once the run has finished.
func (a *App) Err() error {
	return a.runErr
}

func (a *App) renderRow(row stageRow) string {
	switch row.state {
	case stateRunning:
		return fmt.Sprintf("  %s %s", a.spinner.View(), runningStyle.Render(row.name))
	case stateDone:
		line := fmt.Sprintf("  %s %s", doneStyle.Render("✓"), row.name)
		if row.nodes > 0 || row.files > 0 {
			line += "\n" + detailStyle.Render(fmt.Sprintf("%d nodes, %d files", row.nodes, row.files))
		}
		return line
	case stateFailed:
		return fmt.Sprintf("  %s %s\n%s", failStyle.Render("✗"), row.name,
			detailStyle.Render(row.failed.Error()))
	default:
		return pendingStyle.Render(fmt.Sprintf("  · %s", row.name))
	}
}

func (a *App) setState(stage string, state stageState, record pipeline.StageRecord, err error) {
	i, ok := a.index[stage]
	if !ok {
		return
	}
	a.rows[i].state = state
	a.rows[i].nodes = len(record.Nodes)
	a.rows[i].files = len(record.Files)
	a.rows[i].failed = err
}

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramObserver adapts pipeline stage events into program messages.
type ProgramObserver struct {
	sender Sender
}

// NewProgramObserver wraps a sender, usually the *tea.Program itself.
func NewProgramObserver(sender Sender) *ProgramObserver {
	return &ProgramObserver{sender: sender}
}

func (p *ProgramObserver) StageStarted(stage string) {
	p.sender.Send(StageStartedMsg{Stage: stage})
}

func (p *ProgramObserver) StageCompleted(stage string, record pipeline.StageRecord) {
	p.sender.Send(StageCompletedMsg{Stage: stage, Record: record})
}

func (p *ProgramObserver) StageFailed(stage string, err error) {
	p.sender.Send(StageFailedMsg{Stage: stage, Err: err})
}
