// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decrypt

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/kmorita/pdf-decrypt/internal/errors"
	"github.com/kmorita/pdf-decrypt/internal/logging"
	"github.com/kmorita/pdf-decrypt/internal/secrets"
	"github.com/kmorita/pdf-decrypt/internal/toolchain"
	"github.com/kmorita/pdf-decrypt/pkg/types"
)

// fakeTool decrypts a file by copying it when the password file holds
// the expected password. Files listed in broken always fail.
type fakeTool struct {
	missing       bool
	password      string
	broken        map[string]bool
	skipWrite     bool
	calls         []string
	passwordFiles []string
}

func (f *fakeTool) Name() string { return "qpdf" }

func (f *fakeTool) Available() error {
	if f.missing {
		return kerrors.ErrToolNotFound
	}
	return nil
}

func (f *fakeTool) Decrypt(_ context.Context, passwordFile, src, dst string) error {
	f.calls = append(f.calls, filepath.Base(src))
	f.passwordFiles = append(f.passwordFiles, passwordFile)

	pw, err := os.ReadFile(passwordFile)
	if err != nil {
		return err
	}
	if string(pw) != f.password || f.broken[filepath.Base(src)] {
		return &toolchain.ToolError{Tool: "qpdf", ExitCode: 2, Stderr: "qpdf: " + filepath.Base(src) + ": invalid password"}
	}
	if f.skipWrite {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Chmod(dst, 0o644)
}

type recordingProgress struct {
	started []string
	stops   int
}

func (p *recordingProgress) Start(file string) { p.started = append(p.started, file) }
func (p *recordingProgress) Stop()             { p.stops++ }

func setupInput(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.7 "+name), 0o644))
	}
	return dir
}

func newOptions(t *testing.T, in, out string, tool *fakeTool) (Options, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	return Options{
		Config:   types.RunConfig{InputDir: in, OutputDir: out},
		Password: "pw",
		Tool:     tool,
		Log:      logging.Logger{Out: &stdout, Err: &stderr},
	}, &stdout, &stderr
}

func TestRunDecryptsAllCandidates(t *testing.T) {
	in := setupInput(t, "b.pdf", "a.pdf", "notes.txt", "upper.PDF")
	out := filepath.Join(t.TempDir(), "nested", "out")
	tool := &fakeTool{password: "pw"}
	opts, stdout, _ := newOptions(t, in, out, tool)

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Decrypted)
	assert.Equal(t, 0, result.Failed)
	assert.False(t, result.HasFailures())
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, tool.calls, "candidates run in name order")

	for _, name := range []string{"a.pdf", "b.pdf"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7 "+name, string(data))
	}
	assert.NoFileExists(t, filepath.Join(out, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(out, "upper.PDF"))

	assert.Contains(t, stdout.String(), "Decrypted: a.pdf\n")
	assert.Contains(t, stdout.String(), "Decrypted: b.pdf\n")
	assert.Contains(t, stdout.String(), "Batch summary: 2 decrypted, 0 failed (total: 2)")
}

func TestRunContinuesPastFailures(t *testing.T) {
	in := setupInput(t, "a.pdf", "b.pdf", "c.pdf")
	out := t.TempDir()
	tool := &fakeTool{password: "pw", broken: map[string]bool{"b.pdf": true}}
	opts, stdout, _ := newOptions(t, in, out, tool)

	result, err := Run(context.Background(), opts)
	require.NoError(t, err, "per-file failures must not fail the run")

	assert.Equal(t, 2, result.Decrypted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, tool.calls)

	assert.FileExists(t, filepath.Join(out, "a.pdf"))
	assert.NoFileExists(t, filepath.Join(out, "b.pdf"))
	assert.FileExists(t, filepath.Join(out, "c.pdf"))

	assert.Contains(t, stdout.String(), "Failed to decrypt: b.pdf\n")
	assert.NotContains(t, stdout.String(), "invalid password", "tool output only shown when verbose")
}

func TestRunVerboseShowsToolOutput(t *testing.T) {
	in := setupInput(t, "a.pdf")
	tool := &fakeTool{password: "other"}
	opts, stdout, _ := newOptions(t, in, t.TempDir(), tool)
	opts.Config.Verbose = true

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, stdout.String(), "Failed to decrypt: a.pdf\nqpdf: a.pdf: invalid password\n")
	assert.Equal(t, "qpdf: a.pdf: invalid password", result.Outcomes[0].Detail)
}

func TestRunRemovesPasswordFile(t *testing.T) {
	tests := []struct {
		name   string
		tool   *fakeTool
		inputs []string
	}{
		{name: "all succeed", tool: &fakeTool{password: "pw"}, inputs: []string{"a.pdf", "b.pdf"}},
		{name: "all fail", tool: &fakeTool{password: "wrong"}, inputs: []string{"a.pdf", "b.pdf"}},
		{name: "no candidates", tool: &fakeTool{password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _, _ := newOptions(t, setupInput(t, tt.inputs...), t.TempDir(), tt.tool)
			var created string
			opts.newPasswordFile = func(pw string) (*secrets.PasswordFile, error) {
				pf, err := secrets.NewPasswordFile(pw)
				if err == nil {
					created = pf.Path()
				}
				return pf, err
			}

			_, err := Run(context.Background(), opts)
			require.NoError(t, err)

			require.NotEmpty(t, created)
			assert.NoFileExists(t, created)
			for _, p := range tt.tool.passwordFiles {
				assert.Equal(t, created, p, "every invocation uses the same password file")
			}
		})
	}
}

func TestRunRemovesPasswordFileOnCancel(t *testing.T) {
	in := setupInput(t, "a.pdf", "b.pdf")
	tool := &fakeTool{password: "pw"}
	opts, _, _ := newOptions(t, in, t.TempDir(), tool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var created string
	opts.newPasswordFile = func(pw string) (*secrets.PasswordFile, error) {
		pf, err := secrets.NewPasswordFile(pw)
		if err == nil {
			created = pf.Path()
		}
		return pf, err
	}

	_, err := Run(ctx, opts)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tool.calls)
	require.NotEmpty(t, created)
	assert.NoFileExists(t, created)
}

func TestRunCreatesOutputDirWithNoCandidates(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a", "b")
	opts, stdout, _ := newOptions(t, setupInput(t), out, &fakeTool{password: "pw"})

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.DirExists(t, out)
	assert.Equal(t, 0, result.Total())
	assert.Contains(t, stdout.String(), "total: 0")
}

func TestRunToolMissing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	tool := &fakeTool{missing: true}
	opts, _, _ := newOptions(t, setupInput(t, "a.pdf"), out, tool)

	_, err := Run(context.Background(), opts)
	require.ErrorIs(t, err, kerrors.ErrToolNotFound)
	assert.NoDirExists(t, out)
	assert.Empty(t, tool.calls)
}

func TestRunRejectsNewlinePassword(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	tool := &fakeTool{password: "pw"}
	opts, _, _ := newOptions(t, setupInput(t, "a.pdf"), out, tool)
	opts.Password = "pw\n"

	_, err := Run(context.Background(), opts)
	require.ErrorIs(t, err, kerrors.ErrPasswordNewline)
	assert.Empty(t, tool.calls)
	assert.NoDirExists(t, out)
}

func TestRunMissingInputDir(t *testing.T) {
	tool := &fakeTool{password: "pw"}
	opts, _, _ := newOptions(t, filepath.Join(t.TempDir(), "missing"), t.TempDir(), tool)

	_, err := Run(context.Background(), opts)
	require.ErrorIs(t, err, kerrors.ErrInputDirNotFound)
	assert.Empty(t, tool.calls)
}

func TestRunAppliesFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions only")
	}
	tests := []struct {
		name string
		mode *os.FileMode
		want os.FileMode
	}{
		{name: "strict", mode: modePtr(StrictFileMode), want: 0o600},
		{name: "explicit 0640", mode: modePtr(0o640), want: 0o640},
		{name: "unset keeps tool default", mode: nil, want: 0o644},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			opts, _, _ := newOptions(t, setupInput(t, "a.pdf", "b.pdf"), out, &fakeTool{password: "pw"})
			opts.Config.FileMode = tt.mode

			_, err := Run(context.Background(), opts)
			require.NoError(t, err)

			for _, name := range []string{"a.pdf", "b.pdf"} {
				info, err := os.Stat(filepath.Join(out, name))
				require.NoError(t, err)
				assert.Equal(t, tt.want, info.Mode().Perm(), name)
			}
		})
	}
}

func TestRunFileModeFailureIsWarning(t *testing.T) {
	tool := &fakeTool{password: "pw", skipWrite: true}
	opts, stdout, stderr := newOptions(t, setupInput(t, "a.pdf"), t.TempDir(), tool)
	opts.Config.FileMode = modePtr(0o600)

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Decrypted)
	assert.Equal(t, 1, result.ModeWarnings)
	assert.Contains(t, stderr.String(), "Could not set permissions on a.pdf")
	assert.Contains(t, stdout.String(), "Decrypted: a.pdf")
}

func TestRunReportsProgress(t *testing.T) {
	progress := &recordingProgress{}
	opts, _, _ := newOptions(t, setupInput(t, "x.pdf", "y.pdf"), t.TempDir(), &fakeTool{password: "pw"})
	opts.Progress = progress

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"x.pdf", "y.pdf"}, progress.started)
	assert.Equal(t, 2, progress.stops)
}

func TestRunPasswordFileError(t *testing.T) {
	tool := &fakeTool{password: "pw"}
	opts, _, _ := newOptions(t, setupInput(t, "a.pdf"), t.TempDir(), tool)
	opts.newPasswordFile = func(string) (*secrets.PasswordFile, error) {
		return nil, errors.New("disk full")
	}

	_, err := Run(context.Background(), opts)
	require.EqualError(t, err, "disk full")
	assert.Empty(t, tool.calls)
}

func TestDecryptOneFailureUsesErrorWhenNoStderr(t *testing.T) {
	tool := &stubTool{err: errors.New("signal: killed")}
	o := DecryptOne(context.Background(), tool, "/tmp/pw", "in/a.pdf", "out", nil)

	assert.Equal(t, types.DecryptionFailed, o.Status)
	assert.Equal(t, "a.pdf", o.File)
	assert.Equal(t, "signal: killed", o.Detail)
	assert.Empty(t, o.Destination)
}

func TestDecryptOneWritesUnderOutputDir(t *testing.T) {
	tool := &stubTool{}
	o := DecryptOne(context.Background(), tool, "/tmp/pw", filepath.Join("in", "sub", "a.pdf"), "out", nil)

	assert.Equal(t, types.DecryptionDone, o.Status)
	assert.Equal(t, filepath.Join("out", "a.pdf"), o.Destination)
	assert.Equal(t, filepath.Join("out", "a.pdf"), tool.dst)
}

// interruptingTool writes a partial output and then cancels the run, as a
// SIGINT arriving mid-write would.
type interruptingTool struct {
	cancel context.CancelFunc
	calls  int
}

func (i *interruptingTool) Name() string     { return "qpdf" }
func (i *interruptingTool) Available() error { return nil }
func (i *interruptingTool) Decrypt(_ context.Context, _, _, dst string) error {
	i.calls++
	if err := os.WriteFile(dst, []byte("%PDF-1.7 trunc"), 0o644); err != nil {
		return err
	}
	i.cancel()
	return &toolchain.ToolError{Tool: "qpdf", ExitCode: -1, Err: context.Canceled}
}

func TestRunRemovesPartialOutputWhenInterrupted(t *testing.T) {
	out := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tool := &interruptingTool{cancel: cancel}

	var stdout, stderr bytes.Buffer
	opts := Options{
		Config:   types.RunConfig{InputDir: setupInput(t, "a.pdf", "b.pdf"), OutputDir: out},
		Password: "pw",
		Tool:     tool,
		Log:      logging.Logger{Out: &stdout, Err: &stderr},
	}

	result, err := Run(ctx, opts)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, tool.calls, "no file is started after the interruption")
	assert.Equal(t, 1, result.Failed)
	assert.NoFileExists(t, filepath.Join(out, "a.pdf"))
	assert.NoFileExists(t, filepath.Join(out, "b.pdf"))
}

func TestDecryptOneKeepsOutputWhenNotInterrupted(t *testing.T) {
	out := t.TempDir()
	dst := filepath.Join(out, "a.pdf")
	require.NoError(t, os.WriteFile(dst, []byte("previous run"), 0o644))

	o := DecryptOne(context.Background(), &stubTool{err: errors.New("exit status 2")}, "/tmp/pw", "in/a.pdf", out, nil)
	assert.Equal(t, types.DecryptionFailed, o.Status)
	assert.FileExists(t, dst)
}

type stubTool struct {
	err error
	dst string
}

func (s *stubTool) Name() string     { return "stub" }
func (s *stubTool) Available() error { return nil }
func (s *stubTool) Decrypt(_ context.Context, _, _, dst string) error {
	s.dst = dst
	return s.err
}

func modePtr(m os.FileMode) *os.FileMode { return &m }
