package activity

import (
	"strings"
	"time"
)

// Verbs and object types used by the rts environment.
const (
	VerbTargetResolved       = "target.resolved"
	VerbTargetResolveFailed  = "target.resolve_failed"
	VerbExtensionRegistered  = "extension.registered"
	ObjectTypeTarget         = "target"
	ObjectTypeExtension      = "extension"
	fallbackExtensionObject  = "extension"
	fallbackTargetObjectName = "unknown"
)

// TargetEventInput describes a target resolution.
type TargetEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	Target     string
	Lineage    []string
	Profiles   []string
	Err        error
	Duration   time.Duration
	Metadata   map[string]any
	OccurredAt time.Time
}

// ExtensionEventInput describes an extension registration.
type ExtensionEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	Name       string
	Dirs       []string
	Targets    []string
	Override   bool
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildTargetResolvedEvent constructs the event for a successful resolution.
func BuildTargetResolvedEvent(input TargetEventInput) Event {
	return buildTargetEvent(VerbTargetResolved, input)
}

// BuildTargetResolveFailedEvent constructs the event for a failed resolution.
func BuildTargetResolveFailedEvent(input TargetEventInput) Event {
	return buildTargetEvent(VerbTargetResolveFailed, input)
}

// BuildExtensionRegisteredEvent constructs the event for an extension
// registration.
func BuildExtensionRegisteredEvent(input ExtensionEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if len(input.Dirs) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["dirs"] = append([]string{}, input.Dirs...)
	}
	if len(input.Targets) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["targets"] = append([]string{}, input.Targets...)
	}
	if input.Override {
		metadata = ensureMetadata(metadata)
		metadata["override"] = true
	}

	objectID := strings.TrimSpace(input.Name)
	if objectID == "" {
		objectID = fallbackExtensionObject
	}
	return Event{
		Verb:       VerbExtensionRegistered,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeExtension,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func buildTargetEvent(verb string, input TargetEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if len(input.Lineage) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["lineage"] = append([]string{}, input.Lineage...)
	}
	if len(input.Profiles) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["profiles"] = append([]string{}, input.Profiles...)
	}
	if input.Err != nil {
		metadata = ensureMetadata(metadata)
		metadata["error"] = input.Err.Error()
	}
	if input.Duration > 0 {
		metadata = ensureMetadata(metadata)
		metadata["duration_ms"] = input.Duration.Milliseconds()
	}

	objectID := strings.TrimSpace(input.Target)
	if objectID == "" {
		objectID = fallbackTargetObjectName
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeTarget,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
