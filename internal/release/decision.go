// SPDX-License-Identifier: MPL-2.0

package release

import (
	"fmt"

	"github.com/pyrelease/pyrelease/internal/hosting"
	"github.com/pyrelease/pyrelease/internal/version"
)

// Decision is the outcome of comparing the local version with the remote lookup.
type Decision struct {
	Proceed      bool   // Run the step plan
	Warn         bool   // Reason should be reported as a warning
	FirstRelease bool   // The repository has no release yet
	Reason       string // One-line explanation
}

// Decide applies the release rule: a first release always proceeds, an
// unreachable or malformed lookup never does, and otherwise the local version
// must be strictly greater than the released one.
func Decide(local version.Version, lookup hosting.Lookup) Decision {
	switch lookup.State {
	case hosting.StateNoReleases:
		return Decision{
			Proceed:      true,
			FirstRelease: true,
			Reason:       fmt.Sprintf("no release published yet; releasing %s as the first version", local),
		}
	case hosting.StateReleased:
		if local.GreaterThan(lookup.Version) {
			return Decision{
				Proceed: true,
				Reason:  fmt.Sprintf("local version %s is newer than released %s", local, lookup.Version),
			}
		}
		return Decision{
			Warn:   true,
			Reason: fmt.Sprintf("not released: local version %s is not newer than released %s; increase your version", local, lookup.Version),
		}
	case hosting.StateMalformed:
		return Decision{
			Warn:   true,
			Reason: fmt.Sprintf("not released: the latest release could not be interpreted: %v", lookup.Err),
		}
	default:
		return Decision{
			Warn:   true,
			Reason: fmt.Sprintf("not released: the latest release could not be retrieved (private or missing repository?): %v", lookup.Err),
		}
	}
}
