package rts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTarget reports an identifier no resolver recognises.
	ErrUnknownTarget = errors.New("rts: unknown target")
	// ErrProfileNotSupported reports a descriptor without a system file for a
	// requested profile.
	ErrProfileNotSupported = errors.New("rts: profile not supported")
	// ErrSourceNotFound reports a file missing from every search directory.
	ErrSourceNotFound = errors.New("rts: source not found")
	// ErrRegistrationClosed reports an extension registered after the first
	// resolution.
	ErrRegistrationClosed = errors.New("rts: registration closed")
	// ErrInvalidDefinition reports a definition that cannot produce a
	// descriptor.
	ErrInvalidDefinition = errors.New("rts: invalid definition")
)

// UnknownTargetError carries the identifier that failed to resolve and the
// identifiers that were known at the time.
type UnknownTargetError struct {
	ID    string
	Known []string
}

func (e *UnknownTargetError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Known) == 0 {
		return fmt.Sprintf("rts: unknown target %q", e.ID)
	}
	return fmt.Sprintf("rts: unknown target %q (known: %s)", e.ID, strings.Join(e.Known, ", "))
}

func (e *UnknownTargetError) Is(target error) bool {
	return target == ErrUnknownTarget
}

// ProfileNotSupportedError names the descriptor and the missing profile.
type ProfileNotSupportedError struct {
	Target  string
	Profile Profile
}

func (e *ProfileNotSupportedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("rts: target %q has no system file for profile %q", e.Target, e.Profile)
}

func (e *ProfileNotSupportedError) Is(target error) bool {
	return target == ErrProfileNotSupported
}

// SourceNotFoundError names the missing file and every directory searched.
type SourceNotFoundError struct {
	Name     string
	Searched []string
}

func (e *SourceNotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Searched) == 0 {
		return fmt.Sprintf("rts: source %q not found (search path is empty)", e.Name)
	}
	return fmt.Sprintf("rts: source %q not found in %s", e.Name, strings.Join(e.Searched, ", "))
}

func (e *SourceNotFoundError) Is(target error) bool {
	return target == ErrSourceNotFound
}

func invalidDefinition(name, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidDefinition, name, fmt.Sprintf(format, args...))
}
