package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"qa-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type journalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates an insert-only sink for audit events.
func NewJournalRepository(pool *pgxpool.Pool) domain.JournalSink {
	return &journalRepository{pool: pool}
}

func (r *journalRepository) Record(ctx context.Context, event domain.JournalEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal journal event: %w", err)
	}
	query := `
		INSERT INTO journal_events (id, kind, payload, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := r.pool.Exec(ctx, query, uuid.New(), event.Kind(), payload); err != nil {
		return fmt.Errorf("failed to insert journal event: %w", err)
	}
	return nil
}
