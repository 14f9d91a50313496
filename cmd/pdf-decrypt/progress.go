// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"

	"github.com/kmorita/pdf-decrypt/internal/decrypt"
)

// spinnerProgress shows a spinner on stderr while qpdf works on a file.
type spinnerProgress struct {
	s *spinner.Spinner
}

// newSpinnerProgress returns nil unless stderr is an interactive terminal.
// Verbose runs print diagnostics between files, so they get no spinner.
func newSpinnerProgress(verbose bool) decrypt.Progress {
	fd := os.Stderr.Fd()
	if verbose || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	return &spinnerProgress{s: s}
}

func (p *spinnerProgress) Start(file string) {
	p.s.Suffix = " Decrypting " + file
	p.s.Start()
}

func (p *spinnerProgress) Stop() {
	p.s.Stop()
}
