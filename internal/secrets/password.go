// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets handles the decryption password for the duration of a run.
//
// The password is collected with a non-echoing prompt and handed to the
// decrypt tool through a short-lived file readable only by the owner. The
// file must be released with Close on every exit path; callers defer it
// immediately after NewPasswordFile succeeds.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	kerrors "github.com/kmorita/pdf-decrypt/internal/errors"
)

// passwordFilePattern names the temp file; the random suffix is added by os.CreateTemp.
const passwordFilePattern = "pdf-decrypt-pw-*"

// secureFileMode restricts the password file to owner read/write.
const secureFileMode os.FileMode = 0o600

// ValidatePassword rejects passwords the decrypt tool cannot read back.
// The password file is read line by line, so a line break would truncate it.
func ValidatePassword(password string) error {
	if strings.ContainsAny(password, "\r\n") {
		return kerrors.ErrPasswordNewline
	}
	return nil
}

// PasswordFile is an on-disk copy of the password, owned by one run.
type PasswordFile struct {
	path   string
	closed bool
}

// NewPasswordFile writes password to a new file in the system temp
// directory. Permissions are restricted before any content is written.
// On failure no file is left behind.
func NewPasswordFile(password string) (*PasswordFile, error) {
	return newPasswordFile("", password)
}

func newPasswordFile(dir, password string) (pf *PasswordFile, err error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(dir, passwordFilePattern)
	if err != nil {
		return nil, fmt.Errorf("creating password file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err := f.Chmod(secureFileMode); err != nil {
		return nil, fmt.Errorf("restricting password file permissions: %w", err)
	}
	if _, err := f.WriteString(password); err != nil {
		return nil, fmt.Errorf("writing password file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing password file: %w", err)
	}

	return &PasswordFile{path: f.Name()}, nil
}

// Path returns the location of the password file.
func (p *PasswordFile) Path() string {
	return p.path
}

// Close deletes the password file. It is safe to call more than once, and a
// file that is already gone is not an error.
func (p *PasswordFile) Close() error {
	if p == nil || p.closed {
		return nil
	}
	p.closed = true
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing password file %s: %w", p.path, err)
	}
	return nil
}
