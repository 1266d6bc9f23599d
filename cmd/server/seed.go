package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

// adminSubscriptionEnd keeps seeded admins from ever expiring
var adminSubscriptionEnd = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

// nextUserID returns one past the highest user id in use
func nextUserID(ctx context.Context, users services.UserStore) (int64, error) {
	all, err := users.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	var next int64
	for _, u := range all {
		if u.UserID >= next {
			next = u.UserID + 1
		}
	}
	return next, nil
}

// seedAdmin creates the bootstrap admin account unless the username already
// exists. An existing account is left untouched.
func seedAdmin(ctx context.Context, users services.UserStore, username, password, email string) error {
	if !utils.IsAlphanumeric(username) {
		return fmt.Errorf("admin username %q must be alphanumeric", username)
	}
	if err := services.CheckPassword(password); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD must be 1 to 72 bytes")
	}

	existing, err := users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if existing != nil {
		log.Printf("Admin user %s already exists", username)
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := nextUserID(ctx, users)
	if err != nil {
		return err
	}

	admin := &models.User{
		UserID:              userID,
		Username:            username,
		PasswordHash:        hash,
		Email:               email,
		IsAdmin:             true,
		IsEnabled:           true,
		SubscriptionEndDate: adminSubscriptionEnd,
		VineyardIDs:         pq.Int64Array{},
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	log.Printf("✓ Admin user %s created (id %d)", username, userID)
	return nil
}
