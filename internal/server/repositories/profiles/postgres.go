package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/auravita/privacykit/internal/common"
	"github.com/auravita/privacykit/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetSalt(ctx context.Context, userID string) (string, error) {
	query :=
		`SELECT encryption_salt FROM user_profiles
		 WHERE user_id = $1
		 `

	var salt sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	if !salt.Valid || salt.String == "" {
		return "", common.ErrorNotFound
	}

	return salt.String, nil
}

func (r *PostgresRepository) SetSaltIfAbsent(ctx context.Context, userID, salt string) error {
	query :=
		`INSERT INTO user_profiles (user_id, encryption_salt)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id)
		 DO UPDATE SET encryption_salt = EXCLUDED.encryption_salt, updated_at = now()
		 WHERE user_profiles.encryption_salt IS NULL OR user_profiles.encryption_salt = ''
		 `

	res, err := r.db.ExecContext(ctx, query, userID, salt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing changed: a salt already exists. Same value means an idempotent
	// replay; anything else is a conflict.
	existing, err := r.GetSalt(ctx, userID)
	if err != nil {
		return err
	}
	if existing != salt {
		return common.ErrSaltConflict
	}
	return nil
}
