// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion indicates the provided version string is not a dotted triple.
var ErrInvalidVersion = errors.New("invalid semantic version")

// Version is a release version made of three non-negative integers.
// The zero value is 0.0.0 and is never used to mean "absent".
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse reads a dotted triple such as "1.2.3". A single leading "v" is
// accepted, which is how Git tags usually spell versions. Shorthand forms,
// leading zeros, and pre-release or build suffixes are rejected.
func Parse(s string) (Version, error) {
	tag := "v" + strings.TrimPrefix(strings.TrimSpace(s), "v")
	if !semver.IsValid(tag) || semver.Canonical(tag) != tag || semver.Prerelease(tag) != "" {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	parts := strings.Split(strings.TrimPrefix(tag, "v"), ".")
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version without a prefix, e.g. "1.2.3".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Tag returns the version as a Git tag, e.g. "v1.2.3".
func (v Version) Tag() string {
	return "v" + v.String()
}

// Compare returns -1, 0 or +1 depending on whether a < b, a == b or a > b.
func Compare(a, b Version) int {
	return semver.Compare(a.Tag(), b.Tag())
}

// GreaterThan reports whether v is strictly newer than other.
func (v Version) GreaterThan(other Version) bool {
	return Compare(v, other) > 0
}

// MarshalText implements encoding.TextMarshaler so reports render versions as strings.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
