package services

import (
	"context"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

// UserStore is implemented by storage.UserRepository. Lookups return
// (nil, nil) when no row matches.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	ListByVineyard(ctx context.Context, vineyardID int64) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetToken(ctx context.Context, userID int64, tokenHash *string) error
	SetPassword(ctx context.Context, userID int64, passwordHash string) error
	SetEmail(ctx context.Context, userID int64, email string) error
	SetSubscription(ctx context.Context, userID int64, endDate time.Time) error
	SetEnabled(ctx context.Context, userID int64, enabled bool) error
}

// VineyardStore is implemented by storage.VineyardRepository.
type VineyardStore interface {
	Create(ctx context.Context, vineyard *models.Vineyard) error
	GetByID(ctx context.Context, vineyardID int64) (*models.Vineyard, error)
	ListAll(ctx context.Context) ([]models.Vineyard, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Vineyard, error)
	Update(ctx context.Context, vineyard *models.Vineyard) error
	SetEnabled(ctx context.Context, vineyardID int64, enabled bool) error
}

// NodeStore is implemented by storage.NodeRepository.
type NodeStore interface {
	Create(ctx context.Context, node *models.HardwareNode) error
	GetByID(ctx context.Context, nodeID int64) (*models.HardwareNode, error)
	ListByVineyard(ctx context.Context, vineyardID int64) ([]models.HardwareNode, error)
}

// SampleStore is implemented by storage.SampleRepository.
type SampleStore interface {
	InsertBatch(ctx context.Context, samples []models.EnvironmentalSample) error
	LatestByVineyard(ctx context.Context, vineyardID int64, variable string) ([]models.NodeReading, error)
}

// Mailer is implemented by EmailService.
type Mailer interface {
	SendPasswordReset(email, username, link string) error
	SendEmailChanged(oldEmail, newEmail, username string) error
}
