// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decrypt runs a batch of PDFs through the external decrypt tool.
//
// Files are processed one at a time in name order. A file that fails to
// decrypt is reported and skipped; it never stops the rest of the batch.
// The password file backing the run is removed before Run returns,
// whatever happened to the individual files.
package decrypt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kmorita/pdf-decrypt/internal/logging"
	"github.com/kmorita/pdf-decrypt/internal/secrets"
	"github.com/kmorita/pdf-decrypt/internal/toolchain"
	"github.com/kmorita/pdf-decrypt/pkg/types"
)

// Progress is notified around each tool invocation, e.g. to drive a spinner.
type Progress interface {
	Start(file string)
	Stop()
}

// Options bundles everything one run needs.
type Options struct {
	Config   types.RunConfig
	Password string
	Tool     toolchain.Tool
	Log      logging.Logger

	// Progress may be nil.
	Progress Progress

	// newPasswordFile is overridden in tests.
	newPasswordFile func(string) (*secrets.PasswordFile, error)
}

// BatchResult holds the outcome of a decryption run.
type BatchResult struct {
	Decrypted    int
	Failed       int
	ModeWarnings int
	Outcomes     []types.Outcome
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Total returns the number of candidate files processed.
func (r BatchResult) Total() int {
	return r.Decrypted + r.Failed
}

// HasFailures reports whether any file failed to decrypt.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(o types.Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case types.DecryptionDone:
		r.Decrypted++
		if o.ModeWarning != "" {
			r.ModeWarnings++
		}
	case types.DecryptionFailed:
		r.Failed++
	}
}

// Run decrypts every candidate in opts.Config.InputDir into
// opts.Config.OutputDir. It returns an error only when the run cannot start
// (tool missing, bad password, unusable directories) or is cancelled through
// ctx; per-file failures are recorded in the result instead.
func Run(ctx context.Context, opts Options) (result BatchResult, err error) {
	cfg := opts.Config
	log := opts.Log
	result.StartedAt = time.Now().UTC()
	defer func() { result.FinishedAt = time.Now().UTC() }()

	if err := opts.Tool.Available(); err != nil {
		return result, err
	}
	if err := secrets.ValidatePassword(opts.Password); err != nil {
		return result, err
	}
	if err := EnsureOutputDir(cfg.OutputDir); err != nil {
		return result, err
	}

	candidates, err := Discover(cfg.InputDir)
	if err != nil {
		return result, err
	}
	log.Debugf("found %d candidate file(s) in %s", len(candidates), cfg.InputDir)

	newPF := opts.newPasswordFile
	if newPF == nil {
		newPF = secrets.NewPasswordFile
	}
	pf, err := newPF(opts.Password)
	if err != nil {
		return result, err
	}
	defer func() {
		if cerr := pf.Close(); cerr != nil {
			log.Warnf("Could not delete temporary password file: %v", cerr)
		}
	}()

	for _, src := range candidates {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("run interrupted after %d file(s): %w", result.Total(), err)
		}

		if opts.Progress != nil {
			opts.Progress.Start(filepath.Base(src))
		}
		outcome := DecryptOne(ctx, opts.Tool, pf.Path(), src, cfg.OutputDir, cfg.FileMode)
		if opts.Progress != nil {
			opts.Progress.Stop()
		}

		report(log, outcome, cfg.Verbose)
		result.add(outcome)
	}

	log.Printf("\nBatch summary: %d decrypted, %d failed (total: %d)",
		result.Decrypted, result.Failed, result.Total())
	return result, nil
}

// DecryptOne runs the tool for a single file, writing the result to
// outDir under the same name. When mode is non-nil it is applied to the
// output; failing to apply it leaves the outcome successful but sets
// ModeWarning. If ctx is cancelled while the tool runs, any partial output
// is removed.
func DecryptOne(ctx context.Context, tool toolchain.Tool, passwordFile, src, outDir string, mode *os.FileMode) types.Outcome {
	name := filepath.Base(src)
	dst := filepath.Join(outDir, name)
	start := time.Now()

	outcome := types.Outcome{File: name, Source: src}

	if err := tool.Decrypt(ctx, passwordFile, src, dst); err != nil {
		// An interrupted tool may leave a truncated file behind.
		if ctx.Err() != nil {
			if rerr := os.Remove(dst); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
				err = fmt.Errorf("%w (partial output %s not removed: %v)", err, dst, rerr)
			}
		}
		outcome.Status = types.DecryptionFailed
		outcome.Detail = failureDetail(err)
		outcome.Duration = time.Since(start)
		return outcome
	}

	outcome.Status = types.DecryptionDone
	outcome.Destination = dst
	if mode != nil {
		if err := os.Chmod(dst, *mode); err != nil {
			outcome.ModeWarning = err.Error()
		}
	}
	outcome.Duration = time.Since(start)
	return outcome
}

func failureDetail(err error) string {
	var toolErr *toolchain.ToolError
	if errors.As(err, &toolErr) {
		if toolErr.Stderr != "" {
			return toolErr.Stderr
		}
	}
	return err.Error()
}

// report prints the console lines for one outcome.
func report(log logging.Logger, o types.Outcome, verbose bool) {
	switch o.Status {
	case types.DecryptionDone:
		if o.ModeWarning != "" {
			log.Warnf("Could not set permissions on %s: %s", o.File, o.ModeWarning)
		}
		log.Printf("Decrypted: %s", o.File)
	case types.DecryptionFailed:
		log.Printf("Failed to decrypt: %s", o.File)
		if verbose && o.Detail != "" {
			log.Printf("%s", o.Detail)
		}
	}
}
