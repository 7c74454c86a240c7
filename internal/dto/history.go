package dto

import (
	"fmt"
	"time"

	"quizforge/internal/domain"
)

// SnapshotResponse represents one history entry in the API response
// @Description Append-only history record of a mutation
type SnapshotResponse struct {
	ID         int64     `json:"id"`
	EntityKind string    `json:"entity_kind"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
	// Restorable reports whether this snapshot carries a previous state a
	// revert could replay.
	Restorable bool   `json:"restorable"`
	Summary    string `json:"summary"`
}

// RevertRequest selects the snapshot to restore. When SnapshotID is nil the
// latest restorable snapshot is used.
type RevertRequest struct {
	SnapshotID *int64 `json:"snapshot_id,omitempty"`
}

// ToSnapshotResponse maps a snapshot to its API form.
func ToSnapshotResponse(s *domain.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:         s.ID,
		EntityKind: string(s.EntityKind),
		EntityID:   s.EntityID,
		Action:     string(s.Action),
		Timestamp:  s.Timestamp,
		Restorable: s.HasState(),
		Summary:    summarizeAction(s),
	}
}

// ToSnapshotResponses maps a snapshot list, preserving order.
func ToSnapshotResponses(snapshots []*domain.Snapshot) []SnapshotResponse {
	out := make([]SnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, ToSnapshotResponse(s))
	}
	return out
}

func summarizeAction(s *domain.Snapshot) string {
	switch s.Action {
	case domain.ActionCreate:
		return fmt.Sprintf("Created %s %d", s.EntityKind, s.EntityID)
	case domain.ActionUpdate:
		return fmt.Sprintf("Updated %s %d", s.EntityKind, s.EntityID)
	case domain.ActionDelete:
		return fmt.Sprintf("Deleted %s %d", s.EntityKind, s.EntityID)
	case domain.ActionRegenerate:
		return fmt.Sprintf("Regenerated %s %d", s.EntityKind, s.EntityID)
	case domain.ActionRevert:
		return fmt.Sprintf("Reverted %s %d", s.EntityKind, s.EntityID)
	case domain.ActionAddQuiz:
		return fmt.Sprintf("Added a quiz to project %d", s.EntityID)
	case domain.ActionRemoveQuiz:
		return fmt.Sprintf("Removed a quiz from project %d", s.EntityID)
	case domain.ActionReorder:
		return fmt.Sprintf("Reordered quizzes of project %d", s.EntityID)
	default:
		return fmt.Sprintf("%s on %s %d", s.Action, s.EntityKind, s.EntityID)
	}
}
