package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/basset-hound/automation/internal/model"
)

// ConfigRepository provides data access for fill configs.
type ConfigRepository struct {
	db *sql.DB
}

// NewConfigRepository creates a new ConfigRepository.
func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Upsert inserts or replaces the config for an origin. Repeat submissions
// for the same origin overwrite the stored fields.
func (r *ConfigRepository) Upsert(ctx context.Context, config *model.FillConfig) error {
	fieldsJSON, err := config.FieldsToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize fields: %w", err)
	}

	query := `
		INSERT INTO fill_configs (origin, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(origin) DO UPDATE SET
			fields = excluded.fields,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query,
		config.Origin,
		fieldsJSON,
		config.CreatedAt,
		config.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert config: %w", err)
	}

	return nil
}

// GetByOrigin retrieves the config stored for an origin.
func (r *ConfigRepository) GetByOrigin(ctx context.Context, origin string) (*model.FillConfig, error) {
	query := `
		SELECT origin, fields, created_at, updated_at
		FROM fill_configs
		WHERE origin = ?
	`

	config := &model.FillConfig{}
	var fieldsJSON string

	err := r.db.QueryRowContext(ctx, query, origin).Scan(
		&config.Origin,
		&fieldsJSON,
		&config.CreatedAt,
		&config.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	if err := config.FieldsFromJSON(fieldsJSON); err != nil {
		return nil, fmt.Errorf("failed to parse fields: %w", err)
	}

	return config, nil
}

// List retrieves all stored configs, most recently updated first.
func (r *ConfigRepository) List(ctx context.Context) ([]*model.FillConfig, error) {
	query := `
		SELECT origin, fields, created_at, updated_at
		FROM fill_configs
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	defer rows.Close()

	var configs []*model.FillConfig
	for rows.Next() {
		config := &model.FillConfig{}
		var fieldsJSON string

		err := rows.Scan(
			&config.Origin,
			&fieldsJSON,
			&config.CreatedAt,
			&config.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}

		if err := config.FieldsFromJSON(fieldsJSON); err != nil {
			return nil, fmt.Errorf("failed to parse fields: %w", err)
		}

		configs = append(configs, config)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating configs: %w", err)
	}

	return configs, nil
}

// Delete removes the config for an origin.
func (r *ConfigRepository) Delete(ctx context.Context, origin string) error {
	query := `DELETE FROM fill_configs WHERE origin = ?`

	result, err := r.db.ExecContext(ctx, query, origin)
	if err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrConfigNotFound
	}

	return nil
}

// Exists checks if a config exists for an origin.
func (r *ConfigRepository) Exists(ctx context.Context, origin string) (bool, error) {
	query := `SELECT 1 FROM fill_configs WHERE origin = ? LIMIT 1`

	var exists int
	err := r.db.QueryRowContext(ctx, query, origin).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check config existence: %w", err)
	}

	return true, nil
}
