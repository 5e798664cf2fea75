// Package tui is a small tcell session picker used by the browse
// command: a session list on the left, a transcript preview on the
// right, Enter selects.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

var errQuit = errors.New("quit")

// SessionRow is one selectable entry.
type SessionRow struct {
	Path      string
	SessionID string
	TypeLabel string
	Messages  int
	Modified  string
}

// Options configure the picker.
type Options struct {
	LoadSessions func(context.Context) ([]SessionRow, error)
	Preview      func(path string) (string, error)
	Title        string
}

type rect struct {
	x int
	y int
	w int
	h int
}

type uiState struct {
	rows      []SessionRow
	loadError error
	selected  int
	scroll    int
	preview   map[string]string
}

// SelectSession runs the picker and returns the chosen row, or nil when
// the user cancelled.
func SelectSession(ctx context.Context, opts Options) (*SessionRow, error) {
	if opts.LoadSessions == nil {
		return nil, errors.New("LoadSessions is required")
	}

	rows, err := opts.LoadSessions(ctx)
	state := &uiState{
		rows:      rows,
		loadError: err,
		preview:   map[string]string{},
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	defer screen.Fini()

	for {
		draw(screen, state, opts)
		ev := screen.PollEvent()
		switch tev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			row, err := handleKey(tev, state)
			if err != nil {
				if errors.Is(err, errQuit) {
					return nil, nil
				}
				return nil, err
			}
			if row != nil {
				return row, nil
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
}

func handleKey(ev *tcell.EventKey, state *uiState) (*SessionRow, error) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return nil, errQuit
	case tcell.KeyUp:
		state.move(-1)
		return nil, nil
	case tcell.KeyDown:
		state.move(1)
		return nil, nil
	case tcell.KeyPgUp:
		state.move(-10)
		return nil, nil
	case tcell.KeyPgDn:
		state.move(10)
		return nil, nil
	case tcell.KeyEnter:
		if state.selected >= 0 && state.selected < len(state.rows) {
			row := state.rows[state.selected]
			return &row, nil
		}
		return nil, nil
	}
	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'q':
			return nil, errQuit
		case 'j':
			state.move(1)
		case 'k':
			state.move(-1)
		}
	}
	return nil, nil
}

func (s *uiState) move(delta int) {
	s.selected = clamp(s.selected+delta, 0, max(0, len(s.rows)-1))
}

func draw(screen tcell.Screen, state *uiState, opts Options) {
	screen.Clear()
	maxX, maxY := screen.Size()

	title := opts.Title
	if title == "" {
		title = "Sessions"
	}
	writeText(screen, 0, 0, truncate(title, maxX), tcell.StyleDefault.Bold(true))

	listW := maxX
	var previewArea rect
	if maxX >= 80 {
		listW = maxX / 2
		previewArea = rect{x: listW + 1, y: 1, w: maxX - listW - 1, h: maxY - 2}
	}
	listArea := rect{x: 0, y: 1, w: listW, h: maxY - 2}

	if state.loadError != nil {
		writeText(screen, listArea.x, listArea.y, truncate("error: "+state.loadError.Error(), listArea.w), tcell.StyleDefault)
	} else if len(state.rows) == 0 {
		writeText(screen, listArea.x, listArea.y, "no sessions found", tcell.StyleDefault)
	} else {
		drawList(screen, state, listArea)
	}

	if previewArea.w > 0 && state.selected < len(state.rows) {
		drawPreview(screen, state, opts, previewArea)
	}

	status := "enter: build transcript   q/esc: quit   j/k: move"
	writeText(screen, 0, maxY-1, truncate(status, maxX), tcell.StyleDefault.Reverse(true))
	screen.Show()
}

func drawList(screen tcell.Screen, state *uiState, area rect) {
	if area.h <= 0 {
		return
	}
	if state.selected < state.scroll {
		state.scroll = state.selected
	}
	if state.selected >= state.scroll+area.h {
		state.scroll = state.selected - area.h + 1
	}
	for i := 0; i < area.h; i++ {
		idx := state.scroll + i
		if idx >= len(state.rows) {
			break
		}
		row := state.rows[idx]
		label := row.SessionID
		if row.TypeLabel != "" && row.TypeLabel != "regular" {
			label += " [" + row.TypeLabel + "]"
		}
		if row.Modified != "" {
			label += "  " + row.Modified
		}
		style := tcell.StyleDefault
		if idx == state.selected {
			style = style.Reverse(true)
			label = padRight(label, area.w)
		}
		writeText(screen, area.x, area.y+i, truncate(label, area.w), style)
	}
}

func drawPreview(screen tcell.Screen, state *uiState, opts Options, area rect) {
	row := state.rows[state.selected]
	text, ok := state.preview[row.Path]
	if !ok {
		text = "(no preview)"
		if opts.Preview != nil {
			if p, err := opts.Preview(row.Path); err != nil {
				text = "preview error: " + err.Error()
			} else {
				text = p
			}
		}
		state.preview[row.Path] = text
	}

	lines := strings.Split(text, "\n")
	for i := 0; i < area.h && i < len(lines); i++ {
		writeText(screen, area.x, area.y+i, truncate(lines[i], area.w), tcell.StyleDefault)
	}
}

func writeText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	offset := 0
	for _, ch := range text {
		width := runewidth.RuneWidth(ch)
		if width == 0 {
			continue
		}
		screen.SetContent(x+offset, y, ch, nil, style)
		offset += width
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	var buf strings.Builder
	curWidth := 0
	for _, ch := range s {
		chWidth := runewidth.RuneWidth(ch)
		if chWidth == 0 {
			buf.WriteRune(ch)
			continue
		}
		if curWidth+chWidth > width {
			break
		}
		buf.WriteRune(ch)
		curWidth += chWidth
	}
	return buf.String()
}

func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
