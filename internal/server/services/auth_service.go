package services

import (
	"context"
	"fmt"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

type AuthService struct {
	users     UserStore
	vineyards VineyardStore

	now      func() time.Time
	newToken func() string
}

func NewAuthService(users UserStore, vineyards VineyardStore) *AuthService {
	return &AuthService{
		users:     users,
		vineyards: vineyards,
		now:       time.Now,
		newToken:  utils.GenerateSessionToken,
	}
}

// LoginResult is what a successful login hands back to the client
type LoginResult struct {
	Token     string
	IsAdmin   bool
	Vineyards []models.VineyardSummary
}

// checkCredentials returns the user when username and password match.
// Unknown and empty usernames fail with the same code as a wrong password.
func (s *AuthService) checkCredentials(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" {
		return nil, ErrLoginError
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrLoginError
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrLoginError
	}
	return user, nil
}

// VerifyPassword reports whether password matches the stored hash for
// username. It fails with ErrLoginError when the username is empty or unknown.
func (s *AuthService) VerifyPassword(ctx context.Context, username, password string) (bool, error) {
	if username == "" {
		return false, ErrLoginError
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return false, ErrLoginError
	}

	return utils.CheckPassword(user.PasswordHash, password), nil
}

// IssueToken verifies the credentials and stores a fresh session token for
// the user, replacing the previous one.
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (string, error) {
	user, err := s.checkCredentials(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.issueFor(ctx, user)
}

func (s *AuthService) issueFor(ctx context.Context, user *models.User) (string, error) {
	token := s.newToken()
	if token == "" {
		return "", ErrAuthNoToken
	}

	digest := utils.HashToken(token)
	if err := s.users.SetToken(ctx, user.UserID, &digest); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

// resolveToken maps a presented token to its owner. Store failures surface
// as auth_error_unknown so callers can answer without a 500.
func (s *AuthService) resolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrAuthNoToken
	}

	user, err := s.users.GetByTokenHash(ctx, utils.HashToken(token))
	if err != nil {
		return nil, wrapError(KindAuth, CodeAuthUnknown, err)
	}
	if user == nil {
		return nil, ErrAuthNotFound
	}
	return user, nil
}

// VerifyToken returns the username owning token
func (s *AuthService) VerifyToken(ctx context.Context, token string) (string, error) {
	user, err := s.resolveToken(ctx, token)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// VerifyAdmin reports whether token belongs to an admin. A token that does
// not resolve is not an error, just not an admin.
func (s *AuthService) VerifyAdmin(ctx context.Context, token string) (bool, error) {
	user, err := s.resolveToken(ctx, token)
	if err != nil {
		if e, ok := AsError(err); ok && e.Code != CodeAuthUnknown {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

// Authenticate is the session gate for protected endpoints: the token must
// resolve, the account must be enabled and the subscription current.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	user, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkStanding(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) checkStanding(user *models.User) error {
	if !user.IsEnabled {
		return ErrAuthDisabled
	}
	if user.SubscriptionExpired(s.now()) {
		return ErrAuthExpired
	}
	return nil
}

// RequireAdmin authenticates an admin token. The admin must be in good
// standing like any other user, and when adminUsername is given it must name
// the token's owner. Every failure except a store outage collapses
// to ErrAdminInvalid.
func (s *AuthService) RequireAdmin(ctx context.Context, token, adminUsername string) (*models.User, error) {
	user, err := s.resolveToken(ctx, token)
	if err != nil {
		if e, ok := AsError(err); ok && e.Code == CodeAuthUnknown {
			return nil, err
		}
		return nil, ErrAdminInvalid
	}
	if !user.IsAdmin || s.checkStanding(user) != nil {
		return nil, ErrAdminInvalid
	}
	if adminUsername != "" && adminUsername != user.Username {
		return nil, ErrAdminInvalid
	}
	return user, nil
}

// Login checks credentials and account standing, then issues a token and
// lists the vineyards the user may view.
func (s *AuthService) Login(ctx context.Context, username, password string) (result *LoginResult, err error) {
	defer func() {
		loginAttempts.WithLabelValues(outcomeLabel(err)).Inc()
	}()

	user, err := s.checkCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.checkStanding(user); err != nil {
		return nil, err
	}

	token, err := s.issueFor(ctx, user)
	if err != nil {
		return nil, err
	}

	vineyards, err := s.authorizedVineyards(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		IsAdmin:   user.IsAdmin,
		Vineyards: vineyards,
	}, nil
}

// authorizedVineyards lists every vineyard for admins and the user's
// enabled vineyards for everyone else.
func (s *AuthService) authorizedVineyards(ctx context.Context, user *models.User) ([]models.VineyardSummary, error) {
	var (
		vineyards []models.Vineyard
		err       error
	)
	if user.IsAdmin {
		vineyards, err = s.vineyards.ListAll(ctx)
	} else {
		vineyards, err = s.vineyards.ListByIDs(ctx, user.VineyardIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list vineyards: %w", err)
	}

	summaries := make([]models.VineyardSummary, 0, len(vineyards))
	for _, v := range vineyards {
		if !v.IsEnabled && !user.IsAdmin {
			continue
		}
		summaries = append(summaries, models.VineyardSummary{
			VineyardID:   v.VineyardID,
			VineyardName: v.Name,
		})
	}
	return summaries, nil
}

// Logout revokes the session token
func (s *AuthService) Logout(ctx context.Context, token string) error {
	user, err := s.resolveToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.users.SetToken(ctx, user.UserID, nil); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
