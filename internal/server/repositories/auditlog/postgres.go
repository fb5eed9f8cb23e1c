package auditlog

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/auravita/privacykit/internal/audit"
	"github.com/auravita/privacykit/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, event *audit.Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("metadata encode: %w", err)
	}

	query :=
		`INSERT INTO audit_log (id, user_id, action, resource_type, resource_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.UserID, string(event.Action), string(event.ResourceType),
		event.ResourceID, metadata, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
