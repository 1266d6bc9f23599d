package storage

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

// envColumns whitelists the sample columns a reading query may select.
var envColumns = map[string]string{
	"temperature": "temperature",
	"humidity":    "humidity",
	"leafwetness": "leaf_wetness",
}

type SampleRepository struct {
	db *DB
}

func NewSampleRepository(db *DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// InsertBatch writes one hub batch with COPY inside a transaction. Either
// every sample lands or none do.
func (r *SampleRepository) InsertBatch(ctx context.Context, samples []models.EnvironmentalSample) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("env_samples",
		"node_id", "hub_id", "vine_id", "batch_sent", "data_sent",
		"temperature", "humidity", "leaf_wetness",
	))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, s := range samples {
		if _, err = stmt.ExecContext(ctx,
			s.NodeID, s.HubID, s.VineID, s.BatchSent, s.DataSent,
			s.Temperature, s.Humidity, s.LeafWetness,
		); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to queue sample for node %d: %w", s.NodeID, err)
		}
	}

	// Flush buffered rows
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush samples: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy: %w", err)
	}

	return tx.Commit()
}

// LatestByVineyard returns the most recent value of variable for every node
// of the vineyard that has reported at least once.
func (r *SampleRepository) LatestByVineyard(ctx context.Context, vineyardID int64, variable string) ([]models.NodeReading, error) {
	column, ok := envColumns[variable]
	if !ok {
		return nil, fmt.Errorf("unknown environmental variable %q", variable)
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT ON (n.node_id) n.node_id, n.location, s.%s AS value, s.data_sent
		FROM hardware_nodes n
		JOIN env_samples s ON s.node_id = n.node_id
		WHERE n.vineyard_id = $1
		ORDER BY n.node_id, s.data_sent DESC
	`, column)

	var readings []models.NodeReading
	err := r.db.SelectContext(ctx, &readings, query, vineyardID)
	return readings, err
}

// CountByHub returns how many samples a hub has submitted.
func (r *SampleRepository) CountByHub(ctx context.Context, hubID int64) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM env_samples WHERE hub_id = $1`, hubID)
	return count, err
}
