package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/neuroflap/internal/core"
	"github.com/vovakirdan/neuroflap/internal/sim"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = func() map[core.Color]lipgloss.Style {
	codes := map[core.Color]string{
		core.ColorRed:          "1",
		core.ColorGreen:        "2",
		core.ColorYellow:       "3",
		core.ColorOrange:       "208",
		core.ColorGray:         "245",
		core.ColorBrightYellow: "11",
		core.ColorBrightWhite:  "15",
	}
	styles := map[core.Color]lipgloss.Style{core.ColorDefault: lipgloss.NewStyle()}
	for c, code := range codes {
		styles[c] = lipgloss.NewStyle().Foreground(lipgloss.Color(code))
	}
	return styles
}()

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells of the same color share one escape sequence.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y, h := 0, s.Height(); y < h; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			color := s.GetCell(x, y).Color

			var run strings.Builder
			for ; x < s.Width(); x++ {
				cell := s.GetCell(x, y)
				if cell.Color != color {
					break
				}
				run.WriteRune(cell.Rune)
			}

			style, ok := colorStyles[color]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// HUD is the status shown on the top row of the arena.
type HUD struct {
	Policy string
	Paused bool
	Speed  int // Simulation ticks per frame
}

const (
	barrierRune = '█'
	agentColor  = core.ColorBrightYellow
	tiltEdge    = 20 // Degrees of tilt before the glyph changes
)

// arenaScale maps playfield units onto the screen below the HUD row.
type arenaScale struct {
	fieldW, fieldH int
	cols, rows     int
}

func (s arenaScale) col(x int) int {
	return floorDiv(x*s.cols, s.fieldW)
}

func (s arenaScale) row(y int) int {
	return 1 + floorDiv(y*s.rows, s.fieldH)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// DrawArena renders the round into dst: barriers, the floor with its
// scrolling texture, every live agent and the HUD line.
func DrawArena(dst *core.Screen, r *sim.Round, hud HUD) {
	dst.Clear()
	if dst.Height() < 2 || dst.Width() < 1 {
		return
	}

	cfg := r.Config()
	sc := arenaScale{
		fieldW: cfg.Playfield.Width,
		fieldH: cfg.Playfield.Height,
		cols:   dst.Width(),
		rows:   dst.Height() - 1,
	}
	ground := r.Ground()
	groundRow := sc.row(ground.Y)

	for _, o := range r.Obstacles() {
		x0 := sc.col(o.X)
		x1 := core.Max(sc.col(o.RightEdge()), x0+1)
		rect := core.NewRect(x0, 1, x1-x0, sc.row(o.GapY)-1)
		dst.FillRect(rect, barrierRune, core.ColorGreen)

		lowerTop := sc.row(o.LowerBound)
		dst.FillRect(core.NewRect(x0, lowerTop, x1-x0, groundRow-lowerTop), barrierRune, core.ColorGreen)
	}

	drawGround(dst, sc, ground, groundRow)

	frames := r.Assets().AgentFrames
	for _, a := range r.Agents() {
		m := frames[a.Frame%len(frames)]
		x := sc.col(a.X + m.Width()/2)
		y := sc.row(int(a.Y) + m.Height()/2)
		if y >= groundRow {
			y = groundRow - 1
		}
		dst.SetColored(x, y, agentGlyph(a.Tilt), agentColor)
	}

	dst.DrawTextColored(0, 0, hudLine(r, hud), core.ColorBrightWhite)
}

// drawGround fills everything below the floor line. The top row carries a
// stripe pattern anchored to the leading segment so it scrolls with it.
func drawGround(dst *core.Screen, sc arenaScale, g sim.Ground, top int) {
	offset := sc.col(g.X1)
	for y := top; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			if y == top {
				r := '░'
				if ((x-offset)%4+4)%4 < 2 {
					r = '▓'
				}
				dst.SetColored(x, y, r, core.ColorOrange)
				continue
			}
			dst.SetColored(x, y, '▒', core.ColorYellow)
		}
	}
}

func agentGlyph(tilt float64) rune {
	switch {
	case tilt > tiltEdge:
		return '^'
	case tilt < -tiltEdge:
		return 'v'
	default:
		return '>'
	}
}

func hudLine(r *sim.Round, hud HUD) string {
	line := fmt.Sprintf(" %s  score %d  alive %d/%d  tick %d", hud.Policy, r.Score(), r.Alive(), r.Size(), r.TickCount())
	if hud.Speed > 1 {
		line += fmt.Sprintf("  x%d", hud.Speed)
	}
	switch {
	case r.Finished():
		line += "  FINISHED (r: new round)"
	case hud.Paused:
		line += "  PAUSED"
	}
	return line
}
