package rawsync

import (
	"errors"
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the library version, in semantic version form.
const Version = "v0.1.0"

var (
	// ErrInvalidVersion is returned by Compatible for malformed versions.
	ErrInvalidVersion = errors.New("rawsync: invalid version")

	// ErrIncompatible is returned by Compatible when this build cannot
	// satisfy the requested version.
	ErrIncompatible = errors.New("rawsync: incompatible version")
)

// Info provides build information about the library.
type Info struct {
	// Version is the full version string.
	Version string

	// Major is the major version prefix, e.g. "v0".
	Major string

	// MajorMinor is the major.minor prefix, e.g. "v0.1".
	MajorMinor string

	// Tracing indicates whether happens-before tracing is active.
	Tracing bool
}

// GetInfo returns information about the library.
//
// Example:
//
//	info := rawsync.GetInfo()
//	fmt.Printf("rawsync %s (tracing=%t)\n", info.Version, info.Tracing)
func GetInfo() Info {
	return Info{
		Version:    Version,
		Major:      semver.Major(Version),
		MajorMinor: semver.MajorMinor(Version),
		Tracing:    TracingEnabled(),
	}
}

// Compatible reports whether this build satisfies a caller that needs
// version required: same major version (same minor while the major is v0)
// and not older.
func Compatible(required string) error {
	if !semver.IsValid(required) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, required)
	}
	sameLine := semver.Major(required) == semver.Major(Version)
	if semver.Major(Version) == "v0" {
		sameLine = semver.MajorMinor(required) == semver.MajorMinor(Version)
	}
	if !sameLine || semver.Compare(Version, required) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrIncompatible, Version, required)
	}
	return nil
}
