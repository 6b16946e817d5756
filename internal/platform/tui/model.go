package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/neuroflap/internal/config"
	"github.com/vovakirdan/neuroflap/internal/core"
	"github.com/vovakirdan/neuroflap/internal/eval"
	"github.com/vovakirdan/neuroflap/internal/sim"
	"github.com/vovakirdan/neuroflap/internal/storage"
)

const maxSpeed = 32

// Population builds the policies for a round started with the given seed.
type Population func(seed int64) (sim.Policies, error)

// ViewerOptions configures a round viewer.
type ViewerOptions struct {
	Policy     string // Shown in the HUD and stored with results
	Population Population
	Sim        config.SimConfig
	Runtime    core.RuntimeConfig
	Store      *storage.Store // Optional
	Logger     *log.Logger    // Optional
}

// Model is the Bubble Tea model that plays a round live.
type Model struct {
	opts     ViewerOptions
	round    *sim.Round
	pop      sim.Policies
	roundID  string
	screen   *core.Screen
	keys     ViewerKeyMap
	help     help.Model
	paused   bool
	speed    int // Ticks per frame
	saved    bool
	err      error
	quitting bool
}

// NewModel creates a viewer and starts its first round.
func NewModel(opts ViewerOptions) (Model, error) {
	if opts.Runtime.Seed == 0 {
		opts.Runtime.Seed = time.Now().UnixNano()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := Model{
		opts:   opts,
		screen: core.NewScreen(opts.Runtime.ScreenW, core.Max(opts.Runtime.ScreenH-1, 2)),
		keys:   DefaultViewerKeyMap(),
		help:   help.New(),
		speed:  1,
	}
	if err := m.startRound(opts.Runtime.Seed); err != nil {
		return Model{}, err
	}
	return m, nil
}

// startRound replaces the current round with a fresh one.
func (m *Model) startRound(seed int64) error {
	pop, err := m.opts.Population(seed)
	if err != nil {
		return fmt.Errorf("tui: cannot build population: %w", err)
	}
	round, err := sim.StartRound(m.opts.Sim, sim.DefaultAssets(), len(pop), seed)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	m.opts.Runtime.Seed = seed
	m.round = round
	m.pop = pop
	m.roundID = uuid.NewString()
	m.saved = false
	m.opts.Logger.Debug("viewer round started", "round", m.roundID, "seed", seed, "agents", len(pop))
	return nil
}

// Init starts the frame loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.opts.Runtime.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.opts.Runtime.ScreenW = msg.Width
		m.opts.Runtime.ScreenH = msg.Height
		m.screen.Resize(msg.Width, core.Max(msg.Height-1, 2))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.advance()
		return m, tickCmd(m.opts.Runtime.TickRate)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused

	case key.Matches(msg, m.keys.Restart):
		// A round abandoned midway is still recorded, marked as halted.
		m.save()
		if err := m.startRound(m.opts.Runtime.Seed + 1); err != nil {
			m.err = err
		}
		m.paused = false

	case key.Matches(msg, m.keys.Faster):
		m.speed = core.Min(m.speed*2, maxSpeed)

	case key.Matches(msg, m.keys.Slower):
		m.speed = core.Max(m.speed/2, 1)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// advance runs one frame worth of ticks and saves the result when the
// round ends.
func (m *Model) advance() {
	if m.paused || m.round.Finished() {
		return
	}
	for i := 0; i < m.speed && !m.round.Finished(); i++ {
		m.round.Tick(m.pop)
	}
	if m.round.Finished() {
		m.save()
	}
}

// Report summarises the current round.
func (m Model) Report() *eval.Report {
	return &eval.Report{
		RoundID: m.roundID,
		Seed:    m.round.Seed(),
		Ticks:   m.round.TickCount(),
		Score:   m.round.Score(),
		Halted:  !m.round.Finished(),
		Results: m.round.Results(),
	}
}

// save stores the current round once. Rounds that never ticked are skipped.
func (m *Model) save() {
	if m.saved || m.round.TickCount() == 0 {
		return
	}
	m.saved = true

	report := m.Report()
	best := report.Best()
	m.opts.Logger.Info("viewer round finished",
		"round", report.RoundID,
		"score", report.Score,
		"ticks", report.Ticks,
		"best_fitness", fmt.Sprintf("%.1f", best.Fitness),
		"halted", report.Halted,
	)

	if m.opts.Store == nil {
		return
	}
	round, agents := report.Record(m.opts.Policy)
	if _, err := m.opts.Store.SaveRound(round, agents); err != nil {
		m.opts.Logger.Warn("could not save round", "round", report.RoundID, "error", err)
	}
}

// Round returns the round being shown.
func (m Model) Round() *sim.Round {
	return m.round
}

// Paused reports whether the simulation is paused.
func (m Model) Paused() bool {
	return m.paused
}

// Saved reports whether the current round has been recorded.
func (m Model) Saved() bool {
	return m.saved
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	DrawArena(m.screen, m.round, HUD{Policy: m.opts.Policy, Paused: m.paused, Speed: m.speed})
	view := RenderScreen(m.screen)

	footer := m.help.View(m.keys)
	if m.err != nil {
		footer = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.err.Error())
	}
	return view + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(footer)
}

// Run starts the Bubble Tea program with a viewer model.
func Run(opts ViewerOptions) error {
	model, err := NewModel(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		// Quitting midway still records what was watched.
		fm.save()
	}
	return nil
}
