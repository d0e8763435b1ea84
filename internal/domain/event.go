package domain

import (
	"strings"
	"time"
)

// EventKind identifies a change made to a stored report.
type EventKind int

const (
	EventCreated EventKind = iota
	EventUpdated
	EventDeleted
)

var eventKindLabels = map[EventKind]string{
	EventCreated: "created",
	EventUpdated: "updated",
	EventDeleted: "deleted",
}

var eventKindCodes = map[string]EventKind{
	"created": EventCreated,
	"updated": EventUpdated,
	"deleted": EventDeleted,
}

// String returns the wire label for an event kind.
func (k EventKind) String() string {
	if label, ok := eventKindLabels[k]; ok {
		return label
	}

	return "unknown"
}

// ParseEventKind returns the kind for a given label (case-insensitive).
func ParseEventKind(label string) (EventKind, bool) {
	kind, ok := eventKindCodes[strings.ToLower(strings.TrimSpace(label))]

	return kind, ok
}

// ReportEvent describes a change to a stored report.
type ReportEvent struct {
	Kind     EventKind
	ReportID string
	Type     string
	At       time.Time
}
