package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

type AdminService struct {
	auth      *AuthService
	validator *Validator
	users     UserStore
	vineyards VineyardStore
	nodes     NodeStore

	now func() time.Time
}

func NewAdminService(auth *AuthService, validator *Validator, users UserStore, vineyards VineyardStore, nodes NodeStore) *AdminService {
	return &AdminService{
		auth:      auth,
		validator: validator,
		users:     users,
		vineyards: vineyards,
		nodes:     nodes,
		now:       time.Now,
	}
}

// targetUser loads the user an admin request refers to. An empty username
// means the admin's own record.
func (s *AdminService) targetUser(ctx context.Context, admin *models.User, username string) (*models.User, error) {
	if username == "" || username == admin.Username {
		return admin, nil
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUsernameNotFound
	}
	return user, nil
}

func (s *AdminService) GetUserInfo(ctx context.Context, token, adminUsername, username string) (*models.UserInfo, error) {
	admin, err := s.auth.RequireAdmin(ctx, token, adminUsername)
	if err != nil {
		return nil, err
	}

	user, err := s.targetUser(ctx, admin, username)
	if err != nil {
		return nil, err
	}

	info := toUserInfo(user)
	return &info, nil
}

func (s *AdminService) ListUsers(ctx context.Context, token, adminUsername string) ([]models.UserInfo, error) {
	if _, err := s.auth.RequireAdmin(ctx, token, adminUsername); err != nil {
		return nil, err
	}

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, toUserInfo(&users[i]))
	}
	return infos, nil
}

// CreateUser validates every field in order and stores the new account.
func (s *AdminService) CreateUser(ctx context.Context, token, adminUsername string, info models.NewUserInfo) (*models.User, error) {
	if _, err := s.auth.RequireAdmin(ctx, token, adminUsername); err != nil {
		return nil, err
	}

	if err := s.validator.CheckUsername(ctx, info.Username); err != nil {
		return nil, err
	}
	userID, err := s.validator.CheckUserID(ctx, info.UserID.String())
	if err != nil {
		return nil, err
	}
	if err := CheckEmail(info.Email); err != nil {
		return nil, err
	}
	if err := CheckPassword(info.Password); err != nil {
		return nil, err
	}
	endDate, err := CheckSubscriptionEndDate(info.SubEndDate, s.now())
	if err != nil {
		return nil, err
	}
	vineyardIDs, err := s.validator.CheckVineyardIDs(ctx, info.Vineyards)
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(info.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	enabled := true
	if info.Enabled != nil {
		enabled = *info.Enabled
	}

	user := &models.User{
		UserID:              userID,
		Username:            info.Username,
		PasswordHash:        hash,
		Email:               info.Email,
		IsAdmin:             info.Admin,
		IsEnabled:           enabled,
		SubscriptionEndDate: endDate,
		VineyardIDs:         vineyardIDs,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Another request took the id or username after validation.
		var dup *models.DuplicateError
		if errors.As(err, &dup) {
			if dup.Column == "username" {
				return nil, ErrUsernameTaken
			}
			return nil, ErrUserIDInvalid
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("User created: %s (id %d, admin=%v)", user.Username, user.UserID, user.IsAdmin)
	return user, nil
}

// EditUser applies the non-nil fields of info to the user.
func (s *AdminService) EditUser(ctx context.Context, token, adminUsername, username string, info models.EditUserInfo) error {
	admin, err := s.auth.RequireAdmin(ctx, token, adminUsername)
	if err != nil {
		return err
	}

	user, err := s.targetUser(ctx, admin, username)
	if err != nil {
		return err
	}

	if info.Email != nil {
		if err := CheckEmail(*info.Email); err != nil {
			return err
		}
		user.Email = *info.Email
	}
	if info.SubEndDate != nil {
		endDate, err := CheckSubscriptionEndDate(*info.SubEndDate, s.now())
		if err != nil {
			return err
		}
		user.SubscriptionEndDate = endDate
	}
	if info.Vineyards != nil {
		ids, err := s.validator.CheckVineyardIDs(ctx, *info.Vineyards)
		if err != nil {
			return err
		}
		user.VineyardIDs = ids
	}
	if info.Admin != nil {
		user.IsAdmin = *info.Admin
	}
	if info.Enabled != nil {
		user.IsEnabled = *info.Enabled
	}

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if !user.IsEnabled {
		if err := s.users.SetToken(ctx, user.UserID, nil); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
	}
	return nil
}

func (s *AdminService) UpdateSubscription(ctx context.Context, token, adminUsername, username, date string) error {
	admin, err := s.auth.RequireAdmin(ctx, token, adminUsername)
	if err != nil {
		return err
	}

	user, err := s.targetUser(ctx, admin, username)
	if err != nil {
		return err
	}

	endDate, err := CheckSubscriptionEndDate(date, s.now())
	if err != nil {
		return err
	}

	if err := s.users.SetSubscription(ctx, user.UserID, endDate); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// DisableUser turns the account off and revokes its session. Disabling a
// disabled account succeeds.
func (s *AdminService) DisableUser(ctx context.Context, token, adminUsername, username string) error {
	admin, err := s.auth.RequireAdmin(ctx, token, adminUsername)
	if err != nil {
		return err
	}

	user, err := s.targetUser(ctx, admin, username)
	if err != nil {
		return err
	}

	if err := s.users.SetEnabled(ctx, user.UserID, false); err != nil {
		return fmt.Errorf("failed to disable user: %w", err)
	}
	if err := s.users.SetToken(ctx, user.UserID, nil); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	log.Printf("User disabled: %s", user.Username)
	return nil
}

func (s *AdminService) vineyardInfo(ctx context.Context, vineyard *models.Vineyard) (*models.VineyardInfo, error) {
	nodes, err := s.nodes.ListByVineyard(ctx, vineyard.VineyardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	users, err := s.users.ListByVineyard(ctx, vineyard.VineyardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vineyard users: %w", err)
	}

	info := toVineyardInfo(vineyard, nodes)
	info.Users = make([]string, 0, len(users))
	for _, u := range users {
		info.Users = append(info.Users, u.Username)
	}
	return &info, nil
}

func (s *AdminService) loadVineyard(ctx context.Context, raw models.FlexString) (*models.Vineyard, error) {
	id, err := ParseVineyardID(raw)
	if err != nil {
		return nil, err
	}

	vineyard, err := s.vineyards.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get vineyard: %w", err)
	}
	if vineyard == nil {
		return nil, ErrVineyardNotFound
	}
	return vineyard, nil
}

// GetVineyardInfo returns the vineyard with its nodes and the users linked
// to it.
func (s *AdminService) GetVineyardInfo(ctx context.Context, token string, vineyardID models.FlexString) (*models.VineyardInfo, error) {
	if _, err := s.auth.RequireAdmin(ctx, token, ""); err != nil {
		return nil, err
	}

	vineyard, err := s.loadVineyard(ctx, vineyardID)
	if err != nil {
		return nil, err
	}
	return s.vineyardInfo(ctx, vineyard)
}

func (s *AdminService) ListVineyards(ctx context.Context, token string) ([]models.VineyardInfo, error) {
	if _, err := s.auth.RequireAdmin(ctx, token, ""); err != nil {
		return nil, err
	}

	vineyards, err := s.vineyards.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vineyards: %w", err)
	}

	infos := make([]models.VineyardInfo, 0, len(vineyards))
	for i := range vineyards {
		info, err := s.vineyardInfo(ctx, &vineyards[i])
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

func (s *AdminService) CreateVineyard(ctx context.Context, token string, info models.NewVineyardInfo) (*models.Vineyard, error) {
	if _, err := s.auth.RequireAdmin(ctx, token, ""); err != nil {
		return nil, err
	}

	vineyardID, err := s.validator.CheckVineyardID(ctx, info.VineyardID.String())
	if err != nil {
		return nil, err
	}
	if err := CheckVineyardName(info.Name); err != nil {
		return nil, err
	}
	if err := CheckCoordinates(info.Center); err != nil {
		return nil, err
	}
	if err := CheckCoordinates(info.Boundaries...); err != nil {
		return nil, err
	}
	if err := s.validator.CheckOwners(ctx, info.Owners); err != nil {
		return nil, err
	}

	enabled := true
	if info.Enabled != nil {
		enabled = *info.Enabled
	}

	vineyard := &models.Vineyard{
		VineyardID: vineyardID,
		Name:       info.Name,
		OwnerList:  info.Owners,
		Center:     info.Center,
		Boundaries: info.Boundaries,
		IsEnabled:  enabled,
	}
	if err := s.vineyards.Create(ctx, vineyard); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrVineyardIDInvalid
		}
		return nil, fmt.Errorf("failed to create vineyard: %w", err)
	}

	if err := s.linkOwners(ctx, vineyard); err != nil {
		return nil, err
	}

	log.Printf("Vineyard created: %s (id %d)", vineyard.Name, vineyard.VineyardID)
	return vineyard, nil
}

// linkOwners adds the vineyard to each owner's vineyard list.
func (s *AdminService) linkOwners(ctx context.Context, vineyard *models.Vineyard) error {
	for _, owner := range vineyard.OwnerList {
		user, err := s.users.GetByUsername(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to get owner: %w", err)
		}
		if user == nil || user.HasVineyard(vineyard.VineyardID) {
			continue
		}

		user.VineyardIDs = append(user.VineyardIDs, vineyard.VineyardID)
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to link owner: %w", err)
		}
	}
	return nil
}

func (s *AdminService) EditVineyard(ctx context.Context, token string, vineyardID models.FlexString, info models.EditVineyardInfo) error {
	if _, err := s.auth.RequireAdmin(ctx, token, ""); err != nil {
		return err
	}

	vineyard, err := s.loadVineyard(ctx, vineyardID)
	if err != nil {
		return err
	}

	if info.Name != nil {
		if err := CheckVineyardName(*info.Name); err != nil {
			return err
		}
		vineyard.Name = *info.Name
	}
	if info.Center != nil {
		if err := CheckCoordinates(*info.Center); err != nil {
			return err
		}
		vineyard.Center = *info.Center
	}
	if info.Boundaries != nil {
		if err := CheckCoordinates(*info.Boundaries...); err != nil {
			return err
		}
		vineyard.Boundaries = *info.Boundaries
	}
	if info.Owners != nil {
		if err := s.validator.CheckOwners(ctx, *info.Owners); err != nil {
			return err
		}
		vineyard.OwnerList = *info.Owners
	}
	if info.Enabled != nil {
		vineyard.IsEnabled = *info.Enabled
	}

	if err := s.vineyards.Update(ctx, vineyard); err != nil {
		return fmt.Errorf("failed to update vineyard: %w", err)
	}
	return s.linkOwners(ctx, vineyard)
}

// DisableVineyard hides the vineyard from non-admin users. Disabling a
// disabled vineyard succeeds.
func (s *AdminService) DisableVineyard(ctx context.Context, token string, vineyardID models.FlexString) error {
	if _, err := s.auth.RequireAdmin(ctx, token, ""); err != nil {
		return err
	}

	vineyard, err := s.loadVineyard(ctx, vineyardID)
	if err != nil {
		return err
	}

	if err := s.vineyards.SetEnabled(ctx, vineyard.VineyardID, false); err != nil {
		return fmt.Errorf("failed to disable vineyard: %w", err)
	}

	log.Printf("Vineyard disabled: %d", vineyard.VineyardID)
	return nil
}

// RegisterNode places a sensor node in an existing vineyard.
func (s *AdminService) RegisterNode(ctx context.Context, token string, req models.NewNodeRequest) (*models.HardwareNode, error) {
	if _, err := s.auth.RequireAdmin(ctx, token, ""); err != nil {
		return nil, err
	}

	nodeID, err := s.validator.CheckNodeID(ctx, req.NodeID.String())
	if err != nil {
		return nil, err
	}
	vineyard, err := s.loadVineyard(ctx, req.VineyardID)
	if err != nil {
		return nil, err
	}
	hubID, ok := utils.ParseID(req.HubID.String())
	if !ok {
		return nil, ErrNodeIDInvalid
	}
	if err := CheckCoordinates(req.Location); err != nil {
		return nil, err
	}

	node := &models.HardwareNode{
		NodeID:     nodeID,
		VineyardID: vineyard.VineyardID,
		HubID:      hubID,
		Location:   req.Location,
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrNodeIDInvalid
		}
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	log.Printf("Node registered: %d in vineyard %d (hub %d)", node.NodeID, node.VineyardID, node.HubID)
	return node, nil
}
