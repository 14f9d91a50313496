// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchain locates and invokes the external PDF decrypt tool.
// The tool receives the password through a file and never on its command
// line, so the secret does not show up in process listings.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	kerrors "github.com/kmorita/pdf-decrypt/internal/errors"
)

// DefaultBinary is the decrypt tool looked up on PATH when none is configured.
const DefaultBinary = "qpdf"

// installHint is appended to ErrToolNotFound so the user knows how to fix it.
const installHint = `Please install qpdf using the following command:

  # Ubuntu/Debian
  sudo apt install qpdf

  # macOS (Homebrew)
  brew install qpdf

  # Windows (scoop)
  scoop install qpdf`

// Tool decrypts a single PDF using a password file.
type Tool interface {
	// Name returns the binary name or path used to invoke the tool.
	Name() string

	// Available returns nil when the tool can be executed, or an error
	// wrapping ErrToolNotFound with installation guidance.
	Available() error

	// Decrypt writes a decrypted copy of src to dst. A non-zero exit is
	// reported as a *ToolError.
	Decrypt(ctx context.Context, passwordFile, src, dst string) error
}

// ToolError describes a decrypt tool invocation that exited unsuccessfully.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

func (e *ToolError) Unwrap() error { return e.Err }

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// QPDF invokes qpdf with --password-file and --decrypt.
type QPDF struct {
	bin  string
	exec executor
}

var defaultExec = &osExecutor{}

// NewQPDF returns a QPDF tool for the given binary. An empty bin selects
// DefaultBinary.
func NewQPDF(bin string) *QPDF {
	return newQPDF(bin, defaultExec)
}

func newQPDF(bin string, exec executor) *QPDF {
	if bin == "" {
		bin = DefaultBinary
	}
	return &QPDF{bin: bin, exec: exec}
}

func (q *QPDF) Name() string { return q.bin }

func (q *QPDF) Available() error {
	if _, err := q.exec.LookPath(q.bin); err != nil {
		return fmt.Errorf("%w: '%s' is not installed.\n%s", kerrors.ErrToolNotFound, q.bin, installHint)
	}
	return nil
}

// Args returns the argument vector passed to qpdf for one file.
func (q *QPDF) Args(passwordFile, src, dst string) []string {
	return []string{
		"--password-file=" + passwordFile,
		"--decrypt",
		src,
		dst,
	}
}

func (q *QPDF) Decrypt(ctx context.Context, passwordFile, src, dst string) error {
	var stdout, stderr bytes.Buffer
	err := q.exec.Run(ctx, q.bin, q.Args(passwordFile, src, dst), &stdout, &stderr)
	if err == nil {
		return nil
	}

	toolErr := &ToolError{
		Tool:     q.bin,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	return toolErr
}
