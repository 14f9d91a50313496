// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errors provides typed error values for pdf-decrypt.
//
// Callers match these with errors.Is rather than comparing message text.
// Environment and input errors abort a run before any file is processed;
// per-file failures are never surfaced through these values.
package errors

import "errors"

// Environment errors indicate the host is missing something the run needs.
var (
	// ErrToolNotFound indicates the external decrypt tool is not on PATH.
	ErrToolNotFound = errors.New("decrypt tool not found")
)

// Input errors indicate malformed arguments or secrets.
var (
	// ErrInvalidFileMode indicates a permission mode that is not 3 or 4 octal digits.
	ErrInvalidFileMode = errors.New("invalid file mode")

	// ErrConflictingModes indicates both strict permissions and an explicit mode were requested.
	ErrConflictingModes = errors.New("strict permissions and file mode are mutually exclusive")

	// ErrPasswordNewline indicates the password contains a line break.
	ErrPasswordNewline = errors.New("password must not contain newline characters")

	// ErrInputDirNotFound indicates the input path is missing or not a directory.
	ErrInputDirNotFound = errors.New("input directory not found")
)
