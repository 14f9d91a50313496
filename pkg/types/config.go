// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "os"

// RunConfig holds the resolved settings for one decryption run. It is built
// once from flags and config files and is not modified afterwards. The
// password is deliberately absent: it is prompted for and never persisted.
type RunConfig struct {
	// InputDir is the directory scanned for encrypted PDFs.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives decrypted copies under the same file names.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// FileMode, when non-nil, is applied to every decrypted output file.
	FileMode *os.FileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`

	// Verbose surfaces the decrypt tool's stderr on failures.
	Verbose bool `json:"verbose" yaml:"verbose"`

	// ToolPath is the decrypt tool binary name or path (default "qpdf").
	ToolPath string `json:"tool_path" yaml:"tool_path"`

	// JournalPath, when set, is the SQLite database recording run outcomes.
	JournalPath string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`

	// ReportPath, when set, is where a YAML summary of the run is written.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}
