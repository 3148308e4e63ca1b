package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/book-expert/speech-desk/internal/core"
)

// consoleView implements core.View by printing status lines. The other
// view state has no console rendering and is only recorded.
type consoleView struct {
	mu          sync.Mutex
	out         io.Writer
	lastStatus  string
	inputOn     bool
	saveOn      bool
	readOn      bool
	dirty       bool
	highlighted map[core.Field]bool
}

func newConsoleView(out io.Writer) *consoleView {
	return &consoleView{out: out, highlighted: make(map[core.Field]bool)}
}

func (v *consoleView) ShowStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if text == v.lastStatus {
		return
	}

	v.lastStatus = text
	fmt.Fprintln(v.out, text)
}

func (v *consoleView) SetInputEnabled(enabled bool) {
	v.mu.Lock()
	v.inputOn = enabled
	v.mu.Unlock()
}

func (v *consoleView) SetFieldHighlight(field core.Field, invalid bool) {
	v.mu.Lock()
	v.highlighted[field] = invalid
	v.mu.Unlock()
}

func (v *consoleView) SetSaveEnabled(enabled bool) {
	v.mu.Lock()
	v.saveOn = enabled
	v.mu.Unlock()
}

func (v *consoleView) SetReadEnabled(enabled bool) {
	v.mu.Lock()
	v.readOn = enabled
	v.mu.Unlock()
}

func (v *consoleView) SetDirty(dirty bool) {
	v.mu.Lock()
	v.dirty = dirty
	v.mu.Unlock()
}
