// Package inspect is a read-only terminal viewer over a persisted
// simulation snapshot (the file cachesim -o writes): the final register
// file and the requested memory window. It never re-runs the simulation —
// it is a view over already-produced output, in the same spirit as the
// teacher project's debugger being a view over already-loaded VM state.
package inspect

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/rv32-cachesim/image"
)

// TUI is the inspector's terminal interface.
type TUI struct {
	snapshot image.Snapshot

	App          *tview.Application
	Layout       *tview.Flex
	RegisterView *tview.TextView
	MemoryView   *tview.TextView

	memOffset int
}

// New builds an inspector over an already-loaded snapshot.
func New(snapshot image.Snapshot) *TUI {
	t := &TUI{
		snapshot: snapshot,
		App:      tview.NewApplication(),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	t.render()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory window ")
}

func (t *TUI) buildLayout() {
	t.Layout = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.RegisterView, 28, 0, false).
		AddItem(t.MemoryView, 0, 1, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			t.App.Stop()
			return nil
		}
		switch event.Rune() {
		case 'q':
			t.App.Stop()
			return nil
		case 'j':
			t.scrollMemory(16)
		case 'k':
			t.scrollMemory(-16)
		}
		return event
	})
}

func (t *TUI) scrollMemory(delta int) {
	t.memOffset += delta
	if t.memOffset < 0 {
		t.memOffset = 0
	}
	if t.memOffset >= len(t.snapshot.Window) {
		t.memOffset = len(t.snapshot.Window) - 1
	}
	if t.memOffset < 0 {
		t.memOffset = 0
	}
	t.render()
}

func (t *TUI) render() {
	t.RegisterView.SetText(formatRegisters(t.snapshot.Regs))
	t.MemoryView.SetText(formatMemory(t.snapshot.WindowBase, t.snapshot.Window, t.memOffset))
}

func formatRegisters(regs image.Registers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]pc[white]  0x%08X\n\n", regs[0])
	for r := 1; r < len(regs); r++ {
		fmt.Fprintf(&b, "[yellow]x%-2d[white] 0x%08X\n", r, regs[r])
	}
	return b.String()
}

func formatMemory(base uint32, window []byte, offset int) string {
	var b strings.Builder
	const bytesPerLine = 16
	start := offset - offset%bytesPerLine
	for row := start; row < len(window) && row < start+bytesPerLine*24; row += bytesPerLine {
		fmt.Fprintf(&b, "[yellow]0x%08X[white]  ", base+uint32(row))
		end := row + bytesPerLine
		if end > len(window) {
			end = len(window)
		}
		for _, v := range window[row:end] {
			fmt.Fprintf(&b, "%02X ", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Run starts the terminal UI and blocks until the user quits.
func (t *TUI) Run() error {
	return t.App.SetRoot(t.Layout, true).SetFocus(t.MemoryView).Run()
}
