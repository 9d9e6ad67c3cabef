package rawsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, "v0", info.Major)
	assert.Equal(t, "v0.1", info.MajorMinor)
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		required string
		wantErr  error
	}{
		{"v0.1.0", nil},
		{"v0.1", nil},
		{"v0.0.9", ErrIncompatible},
		{"v0.1.1", ErrIncompatible},
		{"v0.2.0", ErrIncompatible},
		{"v1.0.0", ErrIncompatible},
		{"0.1.0", ErrInvalidVersion},
		{"", ErrInvalidVersion},
	}
	for _, tt := range tests {
		err := Compatible(tt.required)
		if tt.wantErr == nil {
			assert.NoError(t, err, tt.required)
			continue
		}
		assert.ErrorIs(t, err, tt.wantErr, tt.required)
	}
}
