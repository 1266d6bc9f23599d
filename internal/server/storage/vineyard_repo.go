package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

type VineyardRepository struct {
	db *DB
}

func NewVineyardRepository(db *DB) *VineyardRepository {
	return &VineyardRepository{db: db}
}

func (r *VineyardRepository) Create(ctx context.Context, vineyard *models.Vineyard) error {
	if vineyard.OwnerList == nil {
		vineyard.OwnerList = pq.StringArray{}
	}
	query := `
		INSERT INTO vineyards (vineyard_id, name, owner_list, center, boundaries, is_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		vineyard.VineyardID, vineyard.Name, vineyard.OwnerList,
		vineyard.Center, vineyard.Boundaries, vineyard.IsEnabled,
	).Scan(&vineyard.CreatedAt)
	return uniqueViolation(err)
}

func (r *VineyardRepository) GetByID(ctx context.Context, vineyardID int64) (*models.Vineyard, error) {
	var vineyard models.Vineyard
	query := `SELECT * FROM vineyards WHERE vineyard_id = $1`
	err := r.db.GetContext(ctx, &vineyard, query, vineyardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &vineyard, nil
}

func (r *VineyardRepository) ListAll(ctx context.Context) ([]models.Vineyard, error) {
	var vineyards []models.Vineyard
	query := `SELECT * FROM vineyards ORDER BY vineyard_id`
	err := r.db.SelectContext(ctx, &vineyards, query)
	return vineyards, err
}

func (r *VineyardRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Vineyard, error) {
	var vineyards []models.Vineyard
	if len(ids) == 0 {
		return vineyards, nil
	}
	query := `SELECT * FROM vineyards WHERE vineyard_id = ANY($1) ORDER BY vineyard_id`
	err := r.db.SelectContext(ctx, &vineyards, query, pq.Int64Array(ids))
	return vineyards, err
}

func (r *VineyardRepository) Update(ctx context.Context, vineyard *models.Vineyard) error {
	query := `
		UPDATE vineyards
		SET name = $1, owner_list = $2, center = $3, boundaries = $4, is_enabled = $5
		WHERE vineyard_id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		vineyard.Name, vineyard.OwnerList, vineyard.Center,
		vineyard.Boundaries, vineyard.IsEnabled, vineyard.VineyardID,
	)
	return err
}

func (r *VineyardRepository) SetEnabled(ctx context.Context, vineyardID int64, enabled bool) error {
	query := `UPDATE vineyards SET is_enabled = $1 WHERE vineyard_id = $2`
	_, err := r.db.ExecContext(ctx, query, enabled, vineyardID)
	return err
}
