package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

// EnvVariables are the readings a client may map.
var EnvVariables = map[string]bool{
	"temperature": true,
	"humidity":    true,
	"leafwetness": true,
}

type EnvService struct {
	auth      *AuthService
	vineyards VineyardStore
	nodes     NodeStore
	samples   SampleStore
	hubKey    string

	now func() time.Time
}

func NewEnvService(auth *AuthService, vineyards VineyardStore, nodes NodeStore, samples SampleStore, hubKey string) *EnvService {
	return &EnvService{
		auth:      auth,
		vineyards: vineyards,
		nodes:     nodes,
		samples:   samples,
		hubKey:    hubKey,
		now:       time.Now,
	}
}

// IngestBatch stores one hub submission. A bad key stores nothing, and any
// incomplete sample rejects the whole batch.
func (s *EnvService) IngestBatch(ctx context.Context, req models.HubDataRequest) (err error) {
	defer func() {
		hubBatches.WithLabelValues(outcomeLabel(err)).Inc()
	}()

	if s.hubKey == "" || !utils.SecureCompare(req.Key, s.hubKey) {
		return ErrEnvKeyInvalid
	}

	samples, err := s.buildSamples(req)
	if err != nil {
		return err
	}

	if err := s.samples.InsertBatch(ctx, samples); err != nil {
		return fmt.Errorf("failed to insert hub batch: %w", err)
	}

	hubSamples.Add(float64(len(samples)))
	log.Printf("Hub %d: stored %d samples", *req.HubID, len(samples))
	return nil
}

func (s *EnvService) buildSamples(req models.HubDataRequest) ([]models.EnvironmentalSample, error) {
	if req.HubID == nil || req.VineID == nil || req.BatchSent == nil || len(req.HubData) == 0 {
		return nil, ErrEnvDataInvalid
	}

	received := s.now().UTC()
	samples := make([]models.EnvironmentalSample, 0, len(req.HubData))
	for _, d := range req.HubData {
		if d.NodeID == nil || d.DataSent == nil || d.Temperature == nil || d.Humidity == nil || d.LeafWetness == nil {
			return nil, ErrEnvDataInvalid
		}
		samples = append(samples, models.EnvironmentalSample{
			NodeID:      *d.NodeID,
			HubID:       *req.HubID,
			VineID:      *req.VineID,
			BatchSent:   *req.BatchSent,
			DataSent:    *d.DataSent,
			Temperature: *d.Temperature,
			Humidity:    *d.Humidity,
			LeafWetness: *d.LeafWetness,
			ReceivedAt:  received,
		})
	}
	return samples, nil
}

// authorizedVineyard resolves the session and the vineyard it asks for.
// Non-admins only see enabled vineyards they are linked to.
func (s *EnvService) authorizedVineyard(ctx context.Context, token string, raw models.FlexString) (*models.Vineyard, error) {
	user, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	vineyardID, err := ParseVineyardID(raw)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin && !user.HasVineyard(vineyardID) {
		return nil, ErrVineyardUnauthorized
	}

	vineyard, err := s.vineyards.GetByID(ctx, vineyardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vineyard: %w", err)
	}
	if vineyard == nil || (!vineyard.IsEnabled && !user.IsAdmin) {
		return nil, ErrVineyardNotFound
	}
	return vineyard, nil
}

// GetEnvData returns the latest reading of variable at every node of the
// vineyard.
func (s *EnvService) GetEnvData(ctx context.Context, token string, vineyardID models.FlexString, variable string) ([]models.EnvDataPoint, error) {
	if token == "" {
		return nil, ErrAuthNoToken
	}
	if !EnvVariables[variable] {
		return nil, ErrEnvVariableInvalid
	}

	vineyard, err := s.authorizedVineyard(ctx, token, vineyardID)
	if err != nil {
		return nil, err
	}

	readings, err := s.samples.LatestByVineyard(ctx, vineyard.VineyardID, variable)
	if err != nil {
		return nil, fmt.Errorf("failed to get env data: %w", err)
	}

	points := make([]models.EnvDataPoint, 0, len(readings))
	for _, r := range readings {
		points = append(points, models.EnvDataPoint{
			"node_id":   r.NodeID,
			"latitude":  r.Location.Lat,
			"longitude": r.Location.Lon,
			"data_sent": r.DataSent,
			variable:    r.Value,
		})
	}
	return points, nil
}

// GetVineyard returns vineyard metadata with its nodes.
func (s *EnvService) GetVineyard(ctx context.Context, token string, vineyardID models.FlexString) (*models.VineyardInfo, error) {
	vineyard, err := s.authorizedVineyard(ctx, token, vineyardID)
	if err != nil {
		return nil, err
	}

	nodes, err := s.nodes.ListByVineyard(ctx, vineyard.VineyardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	info := toVineyardInfo(vineyard, nodes)
	return &info, nil
}
