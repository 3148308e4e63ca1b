// Package notify implements core.Notifier for terminals.
package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/browser"
)

const bell = "\a"

// Terminal rings the terminal bell and opens files with the desktop's
// default application.
type Terminal struct {
	out    io.Writer
	opener func(path string) error
}

// NewTerminal writes the bell to out. A nil out means stderr.
func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stderr
	}

	return &Terminal{out: out, opener: browser.OpenFile}
}

// WithOpener replaces the function used to open files.
func (t *Terminal) WithOpener(opener func(path string) error) *Terminal {
	t.opener = opener

	return t
}

// Alert rings the bell.
func (t *Terminal) Alert() {
	_, _ = io.WriteString(t.out, bell)
}

// Open opens path with the default application.
func (t *Terminal) Open(path string) error {
	_, statErr := os.Stat(path)
	if statErr != nil {
		return fmt.Errorf("cannot open %s: %w", path, statErr)
	}

	err := t.opener(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	return nil
}
