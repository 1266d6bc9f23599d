package services

import (
	"context"
	"fmt"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

// maxPasswordBytes is the longest input bcrypt hashes without truncation.
const maxPasswordBytes = 72

// Validator checks admin-submitted fields. Each check makes at most one
// store lookup; callers run them in order and stop at the first failure.
type Validator struct {
	users     UserStore
	vineyards VineyardStore
	nodes     NodeStore
}

func NewValidator(users UserStore, vineyards VineyardStore, nodes NodeStore) *Validator {
	return &Validator{users: users, vineyards: vineyards, nodes: nodes}
}

func (v *Validator) CheckUsername(ctx context.Context, name string) error {
	if !utils.IsAlphanumeric(name) {
		return ErrUsernameInvalid
	}

	existing, err := v.users.GetByUsername(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return ErrUsernameTaken
	}
	return nil
}

// CheckUserID parses id and makes sure no user already has it.
func (v *Validator) CheckUserID(ctx context.Context, id string) (int64, error) {
	userID, ok := utils.ParseID(id)
	if !ok {
		return 0, ErrUserIDInvalid
	}

	existing, err := v.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to check user id: %w", err)
	}
	if existing != nil {
		return 0, ErrUserIDInvalid
	}
	return userID, nil
}

// CheckSubscriptionEndDate accepts only an exact YYYY-MM-DD date that is not
// before today. Malformed and past dates share one code.
func CheckSubscriptionEndDate(date string, today time.Time) (time.Time, error) {
	end, ok := utils.ParseDate(date)
	if !ok {
		return time.Time{}, ErrSubDateInvalid
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if end.Before(day) {
		return time.Time{}, ErrSubDateInvalid
	}
	return end, nil
}

// CheckVineyardID parses id and makes sure no vineyard already has it.
func (v *Validator) CheckVineyardID(ctx context.Context, id string) (int64, error) {
	vineyardID, ok := utils.ParseID(id)
	if !ok {
		return 0, ErrVineyardIDInvalid
	}

	existing, err := v.vineyards.GetByID(ctx, vineyardID)
	if err != nil {
		return 0, fmt.Errorf("failed to check vineyard id: %w", err)
	}
	if existing != nil {
		return 0, ErrVineyardIDInvalid
	}
	return vineyardID, nil
}

// CheckNodeID parses id and makes sure no node already has it.
func (v *Validator) CheckNodeID(ctx context.Context, id string) (int64, error) {
	nodeID, ok := utils.ParseID(id)
	if !ok {
		return 0, ErrNodeIDInvalid
	}

	existing, err := v.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return 0, fmt.Errorf("failed to check node id: %w", err)
	}
	if existing != nil {
		return 0, ErrNodeIDInvalid
	}
	return nodeID, nil
}

// CheckVineyardIDs parses every id and makes sure each vineyard exists.
func (v *Validator) CheckVineyardIDs(ctx context.Context, ids []models.FlexString) ([]int64, error) {
	parsed := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))

	for _, raw := range ids {
		id, ok := utils.ParseID(raw.String())
		if !ok {
			return nil, ErrVineyardBadID
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		parsed = append(parsed, id)
	}

	if len(parsed) == 0 {
		return parsed, nil
	}

	found, err := v.vineyards.ListByIDs(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to check vineyards: %w", err)
	}
	if len(found) != len(parsed) {
		return nil, ErrVineyardNotFound
	}
	return parsed, nil
}

// CheckOwners makes sure every owner is an existing username.
func (v *Validator) CheckOwners(ctx context.Context, owners []string) error {
	for _, owner := range owners {
		user, err := v.users.GetByUsername(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to check owner: %w", err)
		}
		if user == nil {
			return ErrVineyardOwnerInvalid
		}
	}
	return nil
}

func CheckEmail(email string) error {
	if !utils.IsValidEmail(email) {
		return ErrEmailInvalid
	}
	return nil
}

func CheckPassword(password string) error {
	if password == "" || len(password) > maxPasswordBytes {
		return ErrResetPassword
	}
	return nil
}

func CheckVineyardName(name string) error {
	if name == "" {
		return ErrVineyardNameInvalid
	}
	return nil
}

func CheckCoordinates(points ...models.Point) error {
	for _, p := range points {
		if !utils.IsValidLatitude(p.Lat) || !utils.IsValidLongitude(p.Lon) {
			return ErrVineyardCoordsInvalid
		}
	}
	return nil
}

// ParseVineyardID parses a vineyard id from a request that refers to an
// existing vineyard.
func ParseVineyardID(raw models.FlexString) (int64, error) {
	if raw == "" {
		return 0, ErrVineyardNoID
	}
	id, ok := utils.ParseID(raw.String())
	if !ok {
		return 0, ErrVineyardBadID
	}
	return id, nil
}
