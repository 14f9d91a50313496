// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decrypt

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/kmorita/pdf-decrypt/internal/errors"
)

func TestParseFileMode(t *testing.T) {
	tests := []struct {
		input   string
		want    os.FileMode
		wantErr bool
	}{
		{input: "600", want: 0o600},
		{input: "0600", want: 0o600},
		{input: "0644", want: 0o644},
		{input: "640", want: 0o640},
		{input: "000", want: 0},
		{input: "777", want: 0o777},
		{input: "89", wantErr: true},
		{input: "abcd", wantErr: true},
		{input: "60", wantErr: true},
		{input: "1644", wantErr: true},
		{input: "00600", wantErr: true},
		{input: "680", wantErr: true},
		{input: "", wantErr: true},
		{input: " 600", wantErr: true},
		{input: "600\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFileMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, kerrors.ErrInvalidFileMode)
				assert.Contains(t, err.Error(), "octal format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFileMode(t *testing.T) {
	m, err := ResolveFileMode(false, "")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = ResolveFileMode(true, "")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, os.FileMode(0o600), *m)

	m, err = ResolveFileMode(false, "0640")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, os.FileMode(0o640), *m)

	_, err = ResolveFileMode(true, "0640")
	assert.ErrorIs(t, err, kerrors.ErrConflictingModes)

	_, err = ResolveFileMode(false, "89")
	assert.ErrorIs(t, err, kerrors.ErrInvalidFileMode)
}
