package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// HistoryDatabaseAdapter implements domain.HistoryRepository using sqlx.
// Snapshots are append-only; there is no update path.
type HistoryDatabaseAdapter struct {
	db *sqlx.DB
}

// NewHistoryDatabaseAdapter creates a new instance of HistoryDatabaseAdapter
func NewHistoryDatabaseAdapter(db *sqlx.DB) domain.HistoryRepository {
	return &HistoryDatabaseAdapter{db: db}
}

const snapshotColumns = `id, entity_kind, entity_id, actor_id, action, timestamp, previous_state`

// Save implements domain.HistoryRepository.
func (a *HistoryDatabaseAdapter) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	exec := GetExecutor(ctx, a.db)
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now()
	}

	var state sql.NullString
	if snapshot.HasState() {
		state = sql.NullString{String: string(snapshot.PreviousState), Valid: true}
	}

	result, err := exec.ExecContext(ctx,
		`INSERT INTO history_snapshots (entity_kind, entity_id, actor_id, action, timestamp, previous_state)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(snapshot.EntityKind),
		snapshot.EntityID,
		snapshot.ActorID,
		string(snapshot.Action),
		snapshot.Timestamp,
		state,
	)
	if err != nil {
		return fmt.Errorf("failed to save history snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read created snapshot id: %w", err)
	}
	snapshot.ID = id
	return nil
}

// GetByID implements domain.HistoryRepository. The kind guards against a
// snapshot ID of one entity family being replayed onto another.
func (a *HistoryDatabaseAdapter) GetByID(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Snapshot, error) {
	exec := GetExecutor(ctx, a.db)

	var m models.HistorySnapshot
	err := exec.GetContext(ctx, &m,
		`SELECT `+snapshotColumns+` FROM history_snapshots WHERE id = ? AND entity_kind = ?`,
		id, string(kind))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot %d: %w", id, err)
	}
	return toDomainSnapshot(&m), nil
}

// ListByEntity implements domain.HistoryRepository, newest first.
func (a *HistoryDatabaseAdapter) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID int64, limit int) ([]*domain.Snapshot, error) {
	exec := GetExecutor(ctx, a.db)
	if limit <= 0 {
		limit = 50
	}

	var modelSnapshots []models.HistorySnapshot
	err := exec.SelectContext(ctx, &modelSnapshots,
		`SELECT `+snapshotColumns+` FROM history_snapshots
		WHERE entity_kind = ? AND entity_id = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`,
		string(kind), entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for %s %d: %w", kind, entityID, err)
	}
	return toDomainSnapshots(modelSnapshots), nil
}

// LatestWithState implements domain.HistoryRepository. Returns nil when the
// entity has no restorable snapshot.
func (a *HistoryDatabaseAdapter) LatestWithState(ctx context.Context, kind domain.EntityKind, entityID int64) (*domain.Snapshot, error) {
	exec := GetExecutor(ctx, a.db)

	var m models.HistorySnapshot
	err := exec.GetContext(ctx, &m,
		`SELECT `+snapshotColumns+` FROM history_snapshots
		WHERE entity_kind = ? AND entity_id = ? AND previous_state IS NOT NULL
		ORDER BY timestamp DESC, id DESC LIMIT 1`,
		string(kind), entityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest restorable snapshot for %s %d: %w", kind, entityID, err)
	}
	return toDomainSnapshot(&m), nil
}

// ListByActor implements domain.HistoryRepository, newest first across all
// entity kinds. Backs the activity log.
func (a *HistoryDatabaseAdapter) ListByActor(ctx context.Context, actorID int64, limit int) ([]*domain.Snapshot, error) {
	exec := GetExecutor(ctx, a.db)
	if limit <= 0 {
		limit = 50
	}

	var modelSnapshots []models.HistorySnapshot
	err := exec.SelectContext(ctx, &modelSnapshots,
		`SELECT `+snapshotColumns+` FROM history_snapshots
		WHERE actor_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for actor %d: %w", actorID, err)
	}
	return toDomainSnapshots(modelSnapshots), nil
}

// DeleteByEntity implements domain.HistoryRepository.
func (a *HistoryDatabaseAdapter) DeleteByEntity(ctx context.Context, kind domain.EntityKind, entityID int64) error {
	exec := GetExecutor(ctx, a.db)
	_, err := exec.ExecContext(ctx,
		`DELETE FROM history_snapshots WHERE entity_kind = ? AND entity_id = ?`,
		string(kind), entityID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshots for %s %d: %w", kind, entityID, err)
	}
	return nil
}

func toDomainSnapshot(m *models.HistorySnapshot) *domain.Snapshot {
	var state json.RawMessage
	if m.PreviousState.Valid {
		state = json.RawMessage(m.PreviousState.String)
	}
	return &domain.Snapshot{
		ID:            m.ID,
		EntityKind:    domain.EntityKind(m.EntityKind),
		EntityID:      m.EntityID,
		ActorID:       m.ActorID,
		Action:        domain.ActionType(m.Action),
		Timestamp:     m.Timestamp,
		PreviousState: state,
	}
}

func toDomainSnapshots(modelSnapshots []models.HistorySnapshot) []*domain.Snapshot {
	snapshots := make([]*domain.Snapshot, 0, len(modelSnapshots))
	for i := range modelSnapshots {
		snapshots = append(snapshots, toDomainSnapshot(&modelSnapshots[i]))
	}
	return snapshots
}
