package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// TerminalPicker asks for a directory on the controlling terminal. It
// returns nil when the answer is empty or stdin is not a terminal.
type TerminalPicker struct {
	In  io.Reader
	Out io.Writer
	// Interactive reports whether In is attached to a user. Defaults to a
	// terminal check on os.Stdin.
	Interactive func() bool
}

func NewTerminalPicker() *TerminalPicker {
	return &TerminalPicker{
		In:  os.Stdin,
		Out: os.Stdout,
		Interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

func (p *TerminalPicker) PickDirectory(ctx context.Context) (*string, error) {
	if p.Interactive != nil && !p.Interactive() {
		return nil, nil
	}

	fmt.Fprint(p.Out, "Storage directory (empty to cancel): ")

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		ch <- answer{line, err}
	}()

	var a answer
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case a = <-ch:
	}
	if a.err != nil && a.err != io.EOF {
		return nil, fmt.Errorf("failed to read directory: %w", a.err)
	}

	dir := strings.TrimSpace(a.line)
	if dir == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &abs, nil
}
