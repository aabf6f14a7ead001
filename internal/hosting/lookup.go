// SPDX-License-Identifier: MPL-2.0

package hosting

import (
	"fmt"

	"github.com/pyrelease/pyrelease/internal/version"
)

const (
	// StateUnreachable means the repository could not be queried: network
	// failure, timeout, rate limiting, or a private or nonexistent repository.
	StateUnreachable State = iota
	// StateNoReleases means the repository exists but has no published release.
	StateNoReleases
	// StateReleased means a latest release exists and Lookup.Version is set.
	StateReleased
	// StateMalformed means the API answered but the release payload could not
	// be interpreted (invalid JSON, missing tag_name, non-semver tag).
	StateMalformed
)

type (
	// State classifies the outcome of a remote version lookup.
	State int

	// Lookup is the result of asking the hosting platform for the latest release.
	Lookup struct {
		State   State
		Version version.Version // Valid only when State == StateReleased
		Tag     string          // Raw tag_name, when one was returned
		URL     string          // Browser URL of the release or repository
		Err     error           // Cause for StateUnreachable and StateMalformed
	}
)

// String returns a short lowercase name for the state.
func (s State) String() string {
	switch s {
	case StateUnreachable:
		return "unreachable"
	case StateNoReleases:
		return "no-releases"
	case StateReleased:
		return "released"
	case StateMalformed:
		return "malformed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// String describes the lookup for log lines.
func (l Lookup) String() string {
	switch l.State {
	case StateReleased:
		return fmt.Sprintf("released %s", l.Version)
	case StateNoReleases:
		return "no releases yet"
	case StateUnreachable, StateMalformed:
		if l.Err != nil {
			return fmt.Sprintf("%s: %v", l.State, l.Err)
		}
	}
	return l.State.String()
}

func unreachable(err error) Lookup {
	return Lookup{State: StateUnreachable, Err: err}
}

func malformed(tag string, err error) Lookup {
	return Lookup{State: StateMalformed, Tag: tag, Err: err}
}
