package paludis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version wraps semver.Version with a package revision ("-r2").
// The original text is kept so that specs print back the way they were written.
type Version struct {
	*semver.Version
	raw      string
	revision int
}

var (
	revisionRegex = regexp.MustCompile(`-r([0-9]+)$`)
	suffixRegex   = regexp.MustCompile(`_(alpha|beta|pre|rc)([0-9]*)`)
)

// NewVersion creates a new Version from a string such as "1.2", "2.0_rc1" or "1.0-r3"
func NewVersion(v string) (*Version, error) {
	if v == "" {
		return nil, fmt.Errorf("invalid version %q: empty", v)
	}

	cleaned, revision, err := cleanVersionString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", v, err)
	}

	sv, err := semver.NewVersion(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", v, err)
	}
	return &Version{Version: sv, raw: v, revision: revision}, nil
}

// MustVersion creates a new Version from a string and panics on error
func MustVersion(v string) *Version {
	version, err := NewVersion(v)
	if err != nil {
		panic(err)
	}
	return version
}

// String returns the version as originally written
func (v *Version) String() string {
	if v == nil || v.Version == nil {
		return ""
	}
	if v.raw != "" {
		return v.raw
	}
	return v.Version.String()
}

// Revision returns the package revision, zero when none was given
func (v *Version) Revision() int {
	return v.revision
}

// Equal checks if two versions are equal, revision included
func (v *Version) Equal(other *Version) bool {
	return v.Compare(other) == 0
}

// Compare compares two versions
// Returns -1 if v < other, 0 if v == other, 1 if v > other
func (v *Version) Compare(other *Version) int {
	if c := v.CompareIgnoringRevision(other); c != 0 {
		return c
	}
	switch {
	case v.revision < other.revision:
		return -1
	case v.revision > other.revision:
		return 1
	}
	return 0
}

// CompareIgnoringRevision compares the upstream part only
func (v *Version) CompareIgnoringRevision(other *Version) int {
	if v == nil || other == nil || v.Version == nil || other.Version == nil {
		switch {
		case (v == nil || v.Version == nil) && (other == nil || other.Version == nil):
			return 0
		case v == nil || v.Version == nil:
			return -1
		default:
			return 1
		}
	}
	return v.Version.Compare(other.Version)
}

// LessThan checks if this version is less than another
func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}

// GreaterThan checks if this version is greater than another
func (v *Version) GreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// cleanVersionString turns a package version into something semver accepts,
// splitting off the revision
func cleanVersionString(v string) (string, int, error) {
	revision := 0
	if match := revisionRegex.FindStringSubmatch(v); match != nil {
		r, err := strconv.Atoi(match[1])
		if err != nil {
			return "", 0, err
		}
		revision = r
		v = strings.TrimSuffix(v, match[0])
	}

	if strings.Contains(v, "_p") && !strings.Contains(v, "_pre") {
		return "", 0, fmt.Errorf("patch level suffixes are not supported")
	}

	// 2.0_rc1 becomes 2.0-rc.1 so that semver prerelease ordering applies
	v = suffixRegex.ReplaceAllStringFunc(v, func(s string) string {
		m := suffixRegex.FindStringSubmatch(s)
		if m[2] == "" {
			return "-" + m[1]
		}
		return "-" + m[1] + "." + m[2]
	})

	return v, revision, nil
}
