package tui

import (
	"errors"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestTruncateByDisplayWidth(t *testing.T) {
	if got := truncate("游戏开始", 4); got != "游戏" {
		t.Fatalf("expected wide runes to count double, got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("short strings pass through, got %q", got)
	}
	if got := truncate("abc", 0); got != "" {
		t.Fatalf("zero width yields empty, got %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("unexpected padding: %q", got)
	}
	if got := padRight("abcd", 2); got != "abcd" {
		t.Fatalf("no padding expected: %q", got)
	}
}

func TestMoveClampsSelection(t *testing.T) {
	state := &uiState{rows: make([]SessionRow, 3)}
	state.move(-5)
	if state.selected != 0 {
		t.Fatalf("expected clamp at 0, got %d", state.selected)
	}
	state.move(10)
	if state.selected != 2 {
		t.Fatalf("expected clamp at 2, got %d", state.selected)
	}
}

func TestHandleKeyQuit(t *testing.T) {
	state := &uiState{rows: []SessionRow{{SessionID: "s"}}}
	for _, ev := range []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
	} {
		if _, err := handleKey(ev, state); !errors.Is(err, errQuit) {
			t.Fatalf("expected quit for %v, got %v", ev.Key(), err)
		}
	}
}

func TestHandleKeyEnterSelects(t *testing.T) {
	state := &uiState{rows: []SessionRow{{SessionID: "a"}, {SessionID: "b"}}}
	state.selected = 1
	row, err := handleKey(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), state)
	if err != nil {
		t.Fatalf("handleKey: %v", err)
	}
	if row == nil || row.SessionID != "b" {
		t.Fatalf("expected row b, got %+v", row)
	}
}

func TestHandleKeyNavigation(t *testing.T) {
	state := &uiState{rows: make([]SessionRow, 5)}
	if _, err := handleKey(tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone), state); err != nil {
		t.Fatalf("handleKey: %v", err)
	}
	if state.selected != 1 {
		t.Fatalf("expected selection 1, got %d", state.selected)
	}
	if _, err := handleKey(tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone), state); err != nil {
		t.Fatalf("handleKey: %v", err)
	}
	if state.selected != 0 {
		t.Fatalf("expected selection 0, got %d", state.selected)
	}
}
