// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter collects the password from the user.
type Prompter interface {
	ReadPassword(prompt string) (string, error)
}

// TerminalPrompter reads the password from stdin without echo. When stdin is
// not a terminal it warns on Err and reads a single line instead, so the
// tool still works with piped input.
type TerminalPrompter struct {
	In  *os.File
	Err io.Writer
}

// NewTerminalPrompter returns a prompter bound to the process stdin and stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Err: os.Stderr}
}

func (p *TerminalPrompter) ReadPassword(prompt string) (string, error) {
	fd := int(p.In.Fd())
	fmt.Fprint(p.Err, prompt)

	if !term.IsTerminal(fd) {
		fmt.Fprintln(p.Err)
		fmt.Fprintln(p.Err, "warning: cannot control echo on this input; password may be echoed")
		return readLine(p.In)
	}

	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Err) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// readLine returns the first line of r without its terminator.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}
