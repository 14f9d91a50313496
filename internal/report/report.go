// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes a YAML summary of a decryption run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/kmorita/pdf-decrypt/internal/decrypt"
	"github.com/kmorita/pdf-decrypt/pkg/types"
)

// Report is the serialized form of a run.
type Report struct {
	InputDir   string          `yaml:"input_dir"`
	OutputDir  string          `yaml:"output_dir"`
	FileMode   string          `yaml:"file_mode,omitempty"`
	StartedAt  time.Time       `yaml:"started_at"`
	FinishedAt time.Time       `yaml:"finished_at"`
	Decrypted  int             `yaml:"decrypted"`
	Failed     int             `yaml:"failed"`
	Files      []types.Outcome `yaml:"files"`
}

// New builds a Report from a finished run.
func New(cfg types.RunConfig, result decrypt.BatchResult) Report {
	r := Report{
		InputDir:   cfg.InputDir,
		OutputDir:  cfg.OutputDir,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Decrypted:  result.Decrypted,
		Failed:     result.Failed,
		Files:      result.Outcomes,
	}
	if cfg.FileMode != nil {
		r.FileMode = fmt.Sprintf("%04o", uint32(*cfg.FileMode))
	}
	return r
}

// Write marshals r as YAML to path, creating parent directories.
func Write(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Read loads a report written by Write.
func Read(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("reading report %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return r, nil
}
