package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/Yeicor/scene-ui/internal/panel"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Panel layout, in screen pixels
const (
	panelMargin    = 8
	panelWidth     = 320
	panelRowHeight = 16
	panelIndent    = 12
)

var (
	panelBackground = color.NRGBA{R: 20, G: 20, B: 24, A: 200}
	panelSelected   = color.NRGBA{R: 60, G: 90, B: 140, A: 220}
)

// overlayState is the presentation state of the on-screen panel and the pointer.
type overlayState struct {
	selected     int  // Row index
	hidden       bool // Panel hidden with H
	dragging     bool // Pointer drag that started outside of the panel
	lastX, lastY int
	hovered      int // Row under the pointer (-1 if none)
}

//-----------------------------------------------------------------------------
// INPUT
//-----------------------------------------------------------------------------

// onUpdateInputs handles inputs
func (s *Session) onUpdateInputs() {
	s.onUpdateInputsPanel()
	s.onUpdateInputsCamera()
}

func (s *Session) onUpdateInputsPanel() {
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		s.ui.hidden = !s.ui.hidden
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		s.controls.Reset()
	}
	if s.registry == nil || s.ui.hidden {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		s.registry.Revert()
		s.lastEdit = "reverted every control"
	}
	rows := s.registry.Rows()
	if repeating(ebiten.KeyDown) {
		s.ui.selected++
	}
	if repeating(ebiten.KeyUp) {
		s.ui.selected--
	}
	s.ui.selected = clampRow(s.ui.selected, len(rows))
	if len(rows) == 0 {
		return
	}
	row := rows[s.ui.selected]
	scale := 1.
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		scale = 10
	}
	dir := 0
	if repeating(ebiten.KeyRight) {
		dir++
	}
	if repeating(ebiten.KeyLeft) {
		dir--
	}
	activate := inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeySpace)
	switch {
	case row.Group != nil:
		if activate {
			row.Group.Collapsed = !row.Group.Collapsed
		} else if dir != 0 {
			row.Group.Collapsed = dir < 0
		}
	case row.Control != nil:
		if dir != 0 {
			row.Control.Step(dir, scale)
		} else if activate && row.Control.Kind() != panel.KindNumber {
			row.Control.Step(1, 1)
		}
	}
}

func (s *Session) onUpdateInputsCamera() {
	x, y := ebiten.CursorPosition()
	_, height := s.surface.Size()
	s.ui.hovered = s.panelRowAt(x, y)

	// Wheel
	if _, wy := ebiten.Wheel(); wy != 0 && s.ui.hovered < 0 {
		s.controls.Dolly(wy)
	}

	// Drags
	left, right := ebiten.MouseButtonLeft, ebiten.MouseButtonRight
	if inpututil.IsMouseButtonJustPressed(left) || inpututil.IsMouseButtonJustPressed(right) {
		if s.ui.hovered >= 0 { // Click on a panel row selects it
			s.ui.selected = s.ui.hovered
			s.ui.dragging = false
		} else {
			s.ui.dragging = true
		}
		s.ui.lastX, s.ui.lastY = x, y
	}
	if !ebiten.IsMouseButtonPressed(left) && !ebiten.IsMouseButtonPressed(right) {
		s.ui.dragging = false
		return
	}
	if !s.ui.dragging {
		return
	}
	dx, dy := float64(x-s.ui.lastX), float64(y-s.ui.lastY)
	s.ui.lastX, s.ui.lastY = x, y
	if dx == 0 && dy == 0 {
		return
	}
	if ebiten.IsMouseButtonPressed(right) || ebiten.IsKeyPressed(ebiten.KeyShift) {
		s.controls.Pan(dx, dy, float64(height))
	} else {
		s.controls.Rotate(dx, dy, float64(height))
	}
}

// repeating reports a key press, repeated while the key is held.
func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d > 20 && d%3 == 0)
}

func clampRow(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	return min(i, n-1)
}

// panelRowAt returns the panel row under the given screen position, or -1.
func (s *Session) panelRowAt(x, y int) int {
	if s.registry == nil || s.ui.hidden || x < panelMargin || x > panelMargin+panelWidth || y < panelMargin {
		return -1
	}
	i := (y - panelMargin) / panelRowHeight
	if i >= len(s.registry.Rows()) {
		return -1
	}
	return i
}

//-----------------------------------------------------------------------------
// OVERLAY
//-----------------------------------------------------------------------------

// drawUI draws the panel and the status line over the rendered frame.
func (s *Session) drawUI(screen *ebiten.Image) {
	if s.registry != nil && !s.ui.hidden {
		rows := s.registry.Rows()
		vector.DrawFilledRect(screen, panelMargin, panelMargin, panelWidth, float32(len(rows)*panelRowHeight), panelBackground, false)
		for i, row := range rows {
			y := panelMargin + i*panelRowHeight
			if i == s.ui.selected {
				vector.DrawFilledRect(screen, panelMargin, float32(y), panelWidth, panelRowHeight, panelSelected, false)
			}
			ebitenutil.DebugPrintAt(screen, rowText(row), panelMargin+4+row.Depth*panelIndent, y)
		}
	}
	h := screen.Bounds().Dy()
	ebitenutil.DebugPrintAt(screen, s.statusText(), panelMargin, h-panelMargin-panelRowHeight)
}

func rowText(row panel.Row) string {
	if row.Group != nil {
		if row.Group.Collapsed {
			return "[+] " + row.Group.Name()
		}
		return "[-] " + row.Group.Name()
	}
	c := row.Control
	switch c.Kind() {
	case panel.KindBool:
		mark := " "
		if v, _ := c.Value().(bool); v {
			mark = "x"
		}
		return fmt.Sprintf("[%s] %s", mark, c.Label())
	case panel.KindChoice:
		return fmt.Sprintf("%s: < %s >", c.Label(), c.String())
	default:
		lo, hi, _ := c.Range()
		return fmt.Sprintf("%s: %s  [%g, %g]", c.Label(), c.String(), lo, hi)
	}
}

// statusText is the one line summary shown at the bottom of the window.
func (s *Session) statusText() string {
	var parts []string
	switch {
	case !s.loop.started() && s.envErr != nil:
		parts = append(parts, "environment map failed: "+s.envErr.Error())
	case !s.loop.started():
		parts = append(parts, "waiting for the environment map...")
	default:
		parts = append(parts, fmt.Sprintf("%.0f FPS, frame %d", ebiten.ActualFPS(), s.loop.frames))
	}
	if n := len(s.pending); n > 0 {
		parts = append(parts, fmt.Sprintf("%d loading", n))
	}
	if s.remoteBound != "" {
		parts = append(parts, "remote panel on "+s.remoteBound)
	}
	if s.lastEdit != "" {
		parts = append(parts, s.lastEdit)
	}
	return strings.Join(parts, " | ")
}
