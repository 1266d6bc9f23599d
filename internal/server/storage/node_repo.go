package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

type NodeRepository struct {
	db *DB
}

func NewNodeRepository(db *DB) *NodeRepository {
	return &NodeRepository{db: db}
}

func (r *NodeRepository) Create(ctx context.Context, node *models.HardwareNode) error {
	query := `
		INSERT INTO hardware_nodes (node_id, vineyard_id, hub_id, location)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		node.NodeID, node.VineyardID, node.HubID, node.Location,
	).Scan(&node.CreatedAt)
	return uniqueViolation(err)
}

func (r *NodeRepository) GetByID(ctx context.Context, nodeID int64) (*models.HardwareNode, error) {
	var node models.HardwareNode
	query := `SELECT * FROM hardware_nodes WHERE node_id = $1`
	err := r.db.GetContext(ctx, &node, query, nodeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &node, nil
}

func (r *NodeRepository) ListByVineyard(ctx context.Context, vineyardID int64) ([]models.HardwareNode, error) {
	var nodes []models.HardwareNode
	query := `SELECT * FROM hardware_nodes WHERE vineyard_id = $1 ORDER BY node_id`
	err := r.db.SelectContext(ctx, &nodes, query, vineyardID)
	return nodes, err
}
