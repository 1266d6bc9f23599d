package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

// FarFuture is a subscription end date that never expires in tests
var FarFuture = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

var nextID int64 = time.Now().UnixNano() % 1_000_000_000

// NextID returns an id unlikely to collide with rows left by other runs
func NextID() int64 {
	return atomic.AddInt64(&nextID, 1)
}

// NewUser builds an enabled user with a hashed password
func NewUser(username, password string, admin bool) *models.User {
	hash, err := utils.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return &models.User{
		UserID:              NextID(),
		Username:            username,
		PasswordHash:        hash,
		Email:               username + "@example.com",
		IsAdmin:             admin,
		IsEnabled:           true,
		SubscriptionEndDate: FarFuture,
		VineyardIDs:         pq.Int64Array{},
	}
}

// CreateTestUser creates a test user in the database
func (tdb *TestDB) CreateTestUser(ctx context.Context, username, password string, admin bool) *models.User {
	tdb.t.Helper()

	user := NewUser(username, password, admin)
	_, err := tdb.DB.ExecContext(ctx, `
		INSERT INTO users (user_id, username, password_hash, email, is_admin, is_enabled, subscription_end_date, vineyard_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.UserID, user.Username, user.PasswordHash, user.Email, user.IsAdmin, user.IsEnabled, user.SubscriptionEndDate, user.VineyardIDs)
	if err != nil {
		tdb.t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// DeleteTestUser removes a test user from the database
func (tdb *TestDB) DeleteTestUser(ctx context.Context, userID int64) {
	tdb.t.Helper()
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM users WHERE user_id = $1", userID)
}

// GenerateTestUsername generates a unique alphanumeric username
func GenerateTestUsername() string {
	id := uuid.New().String()
	return "test" + id[:8]
}

// GenerateTestEmail generates a unique test email
func GenerateTestEmail() string {
	return fmt.Sprintf("test-%s@example.com", uuid.New().String()[:8])
}
