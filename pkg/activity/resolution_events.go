package activity

import (
	"strings"
	"time"
)

const (
	// VerbInstanceResolved is emitted once per instance after resolution.
	VerbInstanceResolved = "browser.instance.resolved"
	// VerbLayerApplied is emitted for every layer that fed a resolution.
	VerbLayerApplied = "browser.layer.applied"

	objectTypeInstance = "browser.instance"
	objectTypeLayer    = "browser.layer"
)

// ScopeContext captures scope metadata associated with a layer snapshot.
type ScopeContext struct {
	Name       string
	Label      string
	Priority   int
	Metadata   map[string]any
	SnapshotID string
}

// ResolutionInput describes the fields shared by resolution events.
type ResolutionInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any

	Project        string
	Instance       string
	Browser        string
	Provider       string
	Headless       bool
	HeadlessSource string
	Scope          ScopeContext
	OccurredAt     time.Time
}

// BuildInstanceResolvedEvent reports the effective headless value of one
// instance together with the scope that supplied it.
func BuildInstanceResolvedEvent(input ResolutionInput) Event {
	metadata := baseMetadata(input)
	metadata["headless"] = input.Headless
	if source := strings.TrimSpace(input.HeadlessSource); source != "" {
		metadata["headless_source"] = source
	}
	objectID := firstNonEmpty(input.Instance, input.Browser, objectTypeInstance)
	return buildEvent(VerbInstanceResolved, objectTypeInstance, objectID, input, metadata)
}

// BuildLayerAppliedEvent reports a single scope layer that took part in an
// instance resolution. The snapshot ID is preferred as object ID.
func BuildLayerAppliedEvent(input ResolutionInput) Event {
	metadata := baseMetadata(input)
	if input.Scope.Name != "" {
		metadata["scope_name"] = input.Scope.Name
		metadata["scope_priority"] = input.Scope.Priority
		if input.Scope.Label != "" {
			metadata["scope_label"] = input.Scope.Label
		}
		if len(input.Scope.Metadata) > 0 {
			metadata["scope_metadata"] = cloneMap(input.Scope.Metadata)
		}
	}
	if input.Scope.SnapshotID != "" {
		metadata["snapshot_id"] = input.Scope.SnapshotID
	}
	var scoped string
	if input.Instance != "" && input.Scope.Name != "" {
		scoped = input.Instance + "/" + input.Scope.Name
	}
	objectID := firstNonEmpty(input.Scope.SnapshotID, scoped, objectTypeLayer)
	return buildEvent(VerbLayerApplied, objectTypeLayer, objectID, input, metadata)
}

func baseMetadata(input ResolutionInput) map[string]any {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	for key, value := range map[string]string{
		"project":  input.Project,
		"instance": input.Instance,
		"browser":  input.Browser,
		"provider": input.Provider,
	} {
		if value = strings.TrimSpace(value); value != "" {
			metadata[key] = value
		}
	}
	return metadata
}

func buildEvent(verb, objectType, objectID string, input ResolutionInput, metadata map[string]any) Event {
	var recipients []string
	if len(input.Recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}
	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
