package rts

import "strings"

// Profile names a runtime profile: the subset of runtime features a build
// provides.
type Profile string

const (
	// ProfileLight is the sequential runtime without tasking support.
	ProfileLight Profile = "light"
	// ProfileLightTasking adds the restricted tasking subset.
	ProfileLightTasking Profile = "light-tasking"
	// ProfileEmbedded is the full embedded runtime with tasking.
	ProfileEmbedded Profile = "embedded"
)

func (p Profile) String() string {
	return string(p)
}

// Tasking reports whether builds for the profile need the tasking sources.
func (p Profile) Tasking() bool {
	switch p {
	case ProfileLightTasking, ProfileEmbedded:
		return true
	default:
		return false
	}
}

// ParseProfile converts value into a known Profile. The second result is
// false for unrecognised names.
func ParseProfile(value string) (Profile, bool) {
	switch Profile(strings.ToLower(strings.TrimSpace(value))) {
	case ProfileLight:
		return ProfileLight, true
	case ProfileLightTasking:
		return ProfileLightTasking, true
	case ProfileEmbedded:
		return ProfileEmbedded, true
	default:
		return "", false
	}
}

// ProfileSet is the ordered set of profiles a builder supports.
type ProfileSet []Profile

// DefaultProfiles returns the profiles every descriptor is expected to cover.
func DefaultProfiles() ProfileSet {
	return ProfileSet{ProfileLight, ProfileLightTasking, ProfileEmbedded}
}

// Contains reports whether p is part of the set.
func (s ProfileSet) Contains(p Profile) bool {
	for _, candidate := range s {
		if candidate == p {
			return true
		}
	}
	return false
}

// Strings returns the profile names in order.
func (s ProfileSet) Strings() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = string(p)
	}
	return out
}

func (s ProfileSet) clone() ProfileSet {
	if len(s) == 0 {
		return nil
	}
	out := make(ProfileSet, len(s))
	copy(out, s)
	return out
}
