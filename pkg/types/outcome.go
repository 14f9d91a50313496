// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DecryptionStatus is the result of decrypting a single candidate file.
type DecryptionStatus string

const (
	DecryptionDone   DecryptionStatus = "decrypted"
	DecryptionFailed DecryptionStatus = "failed"
)

// Outcome records what happened to one candidate file. Outcomes are reported
// to the console and, when requested, to the journal or report file.
type Outcome struct {
	// File is the base name of the candidate (e.g. "statement.pdf").
	File string `json:"file" yaml:"file"`

	// Source is the full input path.
	Source string `json:"source" yaml:"source"`

	// Destination is the output path; set only on success.
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`

	Status DecryptionStatus `json:"status" yaml:"status"`

	// Detail holds the tool's diagnostic output for failures.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`

	// ModeWarning is set when the file decrypted but its permissions could
	// not be changed.
	ModeWarning string `json:"mode_warning,omitempty" yaml:"mode_warning,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}
