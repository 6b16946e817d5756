package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/neuroflap/internal/config"
	"github.com/vovakirdan/neuroflap/internal/core"
	"github.com/vovakirdan/neuroflap/internal/sim"
	"github.com/vovakirdan/neuroflap/internal/storage"
)

func idlePopulation(n int) Population {
	return func(int64) (sim.Policies, error) {
		return make(sim.Policies, n), nil
	}
}

func newTestModel(t *testing.T, store *storage.Store) Model {
	t.Helper()
	m, err := NewModel(ViewerOptions{
		Policy:     "idle",
		Population: idlePopulation(2),
		Sim:        config.DefaultSimConfig(),
		Runtime:    core.RuntimeConfig{ScreenW: 55, ScreenH: 22, TickRate: 30, Seed: 5},
		Store:      store,
	})
	if err != nil {
		t.Fatalf("NewModel() failed: %v", err)
	}
	return m
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return nm
}

func TestViewerTicksAndSaves(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	m := newTestModel(t, store)
	for i := 0; i < 100 && !m.Round().Finished(); i++ {
		m = update(t, m, TickMsg(time.Now()))
	}

	if !m.Round().Finished() {
		t.Fatal("idle agents should fall out of the playfield")
	}
	if !m.Saved() {
		t.Fatal("finished round should be saved")
	}

	rounds, err := store.RecentRounds(10)
	if err != nil {
		t.Fatalf("RecentRounds() failed: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("expected 1 saved round, got %d", len(rounds))
	}
	if rounds[0].Policy != "idle" || rounds[0].Ticks != 36 || rounds[0].Halted {
		t.Errorf("unexpected saved round %+v", rounds[0])
	}

	// Further ticks must not save twice.
	m = update(t, m, TickMsg(time.Now()))
	if rounds, _ := store.RecentRounds(10); len(rounds) != 1 {
		t.Errorf("round saved %d times", len(rounds))
	}
}

func TestViewerPause(t *testing.T) {
	m := newTestModel(t, nil)

	m = update(t, m, keyMsg('p'))
	if !m.Paused() {
		t.Fatal("p should pause")
	}
	m = update(t, m, TickMsg(time.Now()))
	if m.Round().TickCount() != 0 {
		t.Error("paused viewer should not advance")
	}

	m = update(t, m, keyMsg('p'))
	m = update(t, m, TickMsg(time.Now()))
	if m.Round().TickCount() != 1 {
		t.Errorf("TickCount() = %d, expected 1 after resuming", m.Round().TickCount())
	}
	if !strings.Contains(m.View(), "tick 1") {
		t.Error("view should show the tick counter")
	}
}

func TestViewerRestartAndSpeed(t *testing.T) {
	m := newTestModel(t, nil)
	first := m.Round()

	m = update(t, m, keyMsg('+'))
	m = update(t, m, keyMsg('+'))
	m = update(t, m, TickMsg(time.Now()))
	if m.Round().TickCount() != 4 {
		t.Errorf("TickCount() = %d, expected 4 at x4 speed", m.Round().TickCount())
	}

	m = update(t, m, keyMsg('r'))
	if m.Round() == first {
		t.Fatal("r should start a new round")
	}
	if m.Round().Seed() != 6 {
		t.Errorf("restart seed = %d, expected 6", m.Round().Seed())
	}
	if m.Round().TickCount() != 0 {
		t.Error("new round should start at tick 0")
	}
}

func TestViewerQuit(t *testing.T) {
	m := newTestModel(t, nil)

	next, cmd := m.Update(keyMsg('q'))
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if next.(Model).View() != "" {
		t.Error("quitting viewer should render nothing")
	}
}

func TestViewerPopulationError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewModel(ViewerOptions{
		Population: func(int64) (sim.Policies, error) { return nil, boom },
		Sim:        config.DefaultSimConfig(),
		Runtime:    core.DefaultConfig(),
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected population error, got %v", err)
	}
}
