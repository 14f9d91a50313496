// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decrypt

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	kerrors "github.com/kmorita/pdf-decrypt/internal/errors"
)

// StrictFileMode is applied by --strict-permissions.
const StrictFileMode os.FileMode = 0o600

var fileModePattern = regexp.MustCompile(`^0?[0-7]{3}$`)

// ParseFileMode parses octal permission text such as "600" or "0644".
func ParseFileMode(s string) (os.FileMode, error) {
	if !fileModePattern.MatchString(s) {
		return 0, fmt.Errorf("%w %q: use octal format like 600, 0600, or 0644", kerrors.ErrInvalidFileMode, s)
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", kerrors.ErrInvalidFileMode, s, err)
	}
	return os.FileMode(v), nil
}

// ResolveFileMode picks the output mode from the two mutually exclusive
// settings. It returns nil when neither is set, meaning output files keep
// whatever permissions the decrypt tool gave them.
func ResolveFileMode(strict bool, mode string) (*os.FileMode, error) {
	switch {
	case strict && mode != "":
		return nil, kerrors.ErrConflictingModes
	case strict:
		m := StrictFileMode
		return &m, nil
	case mode != "":
		m, err := ParseFileMode(mode)
		if err != nil {
			return nil, err
		}
		return &m, nil
	}
	return nil, nil
}
