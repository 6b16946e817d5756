package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/neuroflap/internal/storage"
)

// History layout constants
const (
	minWidthForSidebar = 90  // Minimum width to show the policy sidebar
	sidebarWidth       = 24  // Width of the policy sidebar
	maxRounds          = 100 // Max rounds to load per policy
	maxAgentRows       = 10  // Agents listed in the detail pane
)

// allPolicies is the sidebar entry that lists rounds of every policy.
const allPolicies = ""

// HistoryKeyMap defines the key bindings for the history browser.
type HistoryKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	NextPolicy key.Binding
	PrevPolicy key.Binding
	Details    key.Binding
	Quit       key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextPolicy, k.Details, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPolicy, k.PrevPolicy},
		{k.Details, k.Quit},
	}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextPolicy: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next policy"),
		),
		PrevPolicy: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev policy"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "agents"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HistoryModel is the Bubble Tea model for browsing saved rounds.
type HistoryModel struct {
	store       *storage.Store
	stats       []storage.PolicyStats
	policies    []string // Sidebar entries; the first lists every policy
	cursor      int
	rounds      []storage.RoundRecord
	agents      []storage.AgentRecord // Detail pane of the selected round
	showAgents  bool
	table       table.Model
	help        help.Model
	keys        HistoryKeyMap
	width       int
	height      int
	showSidebar bool
	loadErr     error
	quitting    bool
}

// NewHistoryModel creates a new history browser.
func NewHistoryModel(store *storage.Store, width, height int) HistoryModel {
	m := HistoryModel{
		store:       store,
		policies:    []string{allPolicies},
		keys:        DefaultHistoryKeyMap(),
		help:        help.New(),
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}

	if store != nil {
		stats, err := store.PolicyStats()
		if err != nil {
			m.loadErr = err
		}
		m.stats = stats
		for _, s := range stats {
			m.policies = append(m.policies, s.Policy)
		}
	}

	m.table = m.createTable()
	m.loadRounds()
	return m
}

// createTable creates a new table sized to the window.
func (m *HistoryModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "Policy", Width: 11},
		{Title: "Score", Width: 6},
		{Title: "Best", Width: 8},
		{Title: "Ticks", Width: 7},
		{Title: "Agents", Width: 6},
		{Title: "Seed", Width: 12},
		{Title: "Date", Width: 12},
	}

	height := m.height - 10
	if m.showAgents {
		height -= maxAgentRows + 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRounds loads the top rounds for the selected policy.
func (m *HistoryModel) loadRounds() {
	m.rounds = nil
	m.agents = nil
	if m.store != nil {
		rounds, err := m.store.TopRounds(m.policies[m.cursor], maxRounds)
		if err != nil {
			m.loadErr = err
		}
		m.rounds = rounds
	}
	m.updateTableRows()
}

// updateTableRows updates the table with the loaded rounds.
func (m *HistoryModel) updateTableRows() {
	rows := make([]table.Row, len(m.rounds))
	for i, r := range m.rounds {
		status := fmt.Sprintf("%d", r.Ticks)
		if r.Halted {
			status += "*"
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			r.Policy,
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%.1f", r.BestFitness),
			status,
			fmt.Sprintf("%d", r.Agents),
			fmt.Sprintf("%d", r.Seed),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// loadAgents loads the agent results of the selected round.
func (m *HistoryModel) loadAgents() {
	m.agents = nil
	i := m.table.Cursor()
	if m.store == nil || i < 0 || i >= len(m.rounds) {
		return
	}
	agents, err := m.store.AgentResults(m.rounds[i].RoundID)
	if err != nil {
		m.loadErr = err
		return
	}
	m.agents = agents
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history browser.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextPolicy):
			m.cursor = (m.cursor + 1) % len(m.policies)
			m.loadRounds()
			return m, nil

		case key.Matches(msg, m.keys.PrevPolicy):
			m.cursor = (m.cursor - 1 + len(m.policies)) % len(m.policies)
			m.loadRounds()
			return m, nil

		case key.Matches(msg, m.keys.Details):
			m.showAgents = !m.showAgents
			m.resizeTable()
			if m.showAgents {
				m.loadAgents()
			}
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			if m.showAgents {
				m.loadAgents()
			}
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.help.Width = msg.Width
		m.resizeTable()
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// resizeTable rebuilds the table keeping the selected row.
func (m *HistoryModel) resizeTable() {
	cursor := m.table.Cursor()
	m.table = m.createTable()
	m.updateTableRows()
	m.table.SetCursor(cursor)
}

// View renders the history browser.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))

	b.WriteString(titleStyle.Render(centerText("ROUND HISTORY - "+policyTitle(m.policies[m.cursor]), m.width)))
	b.WriteString("\n\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	content := boxStyle.Render(m.renderTableContent())
	if m.showSidebar {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), "  ", content)
	}
	b.WriteString(content)
	b.WriteString("\n")

	if m.showAgents {
		b.WriteString(boxStyle.Render(m.renderAgents()))
		b.WriteString("\n")
	}

	if m.loadErr != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.loadErr.Error()))
		b.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render("* halted before the population died out  " + m.help.View(m.keys)))

	return b.String()
}

// renderSidebar lists policies with their aggregate statistics.
func (m HistoryModel) renderSidebar() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sb strings.Builder
	sb.WriteString("Policies\n")
	sb.WriteString(strings.Repeat("-", sidebarWidth-4))
	sb.WriteString("\n")

	for i, p := range m.policies {
		cursor := "  "
		line := lipgloss.NewStyle()
		if i == m.cursor {
			cursor = "> "
			line = line.Bold(true).Foreground(lipgloss.Color("229"))
		}
		sb.WriteString(line.Render(cursor + policyTitle(p)))
		sb.WriteString("\n")

		for _, s := range m.stats {
			if s.Policy == p {
				sb.WriteString(fmt.Sprintf("    %d rounds, best %d\n", s.Rounds, s.BestScore))
			}
		}
	}
	return style.Render(sb.String())
}

// renderTableContent renders the table or empty message.
func (m HistoryModel) renderTableContent() string {
	if len(m.rounds) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render("No rounds recorded yet.\nRun or watch a round to fill the history!")
	}
	return m.table.View()
}

// renderAgents lists the fittest agents of the selected round.
func (m HistoryModel) renderAgents() string {
	if len(m.agents) == 0 {
		return "No agent results for this round."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-6s %10s %8s  %s\n", "Agent", "Fitness", "Ticks", "Reason"))
	for i, a := range m.agents {
		if i == maxAgentRows {
			sb.WriteString(fmt.Sprintf("... %d more", len(m.agents)-maxAgentRows))
			break
		}
		sb.WriteString(fmt.Sprintf("%-6d %10.1f %8d  %s\n", a.AgentID, a.Fitness, a.TicksAlive, a.Reason))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func policyTitle(p string) string {
	if p == allPolicies {
		return "all policies"
	}
	return p
}

// centerText pads text so it sits in the middle of width columns.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}

// RunHistory runs the history browser.
func RunHistory(store *storage.Store, width, height int) error {
	p := tea.NewProgram(
		NewHistoryModel(store, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
