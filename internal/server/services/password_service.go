package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

type PasswordService struct {
	auth   *AuthService
	users  UserStore
	mailer Mailer

	resetSecret string
	resetTTL    time.Duration
	frontendURL string
}

func NewPasswordService(auth *AuthService, users UserStore, mailer Mailer, resetSecret string, resetTTL time.Duration, frontendURL string) *PasswordService {
	return &PasswordService{
		auth:        auth,
		users:       users,
		mailer:      mailer,
		resetSecret: resetSecret,
		resetTTL:    resetTTL,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// ChangePassword sets a new password through one of three paths, tried in
// order: a reset token from email, an admin session naming another user, or
// the user's own session plus the old password. The target's session token
// is revoked afterwards.
func (s *PasswordService) ChangePassword(ctx context.Context, req models.PasswordChangeRequest) error {
	target, err := s.resolveTarget(ctx, req)
	if err != nil {
		return err
	}

	if err := CheckPassword(req.Password); err != nil {
		return err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// SetPassword also clears the session token
	if err := s.users.SetPassword(ctx, target.UserID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Printf("Password changed for user %s", target.Username)
	return nil
}

func (s *PasswordService) resolveTarget(ctx context.Context, req models.PasswordChangeRequest) (*models.User, error) {
	if req.Token != "" {
		claims, err := utils.ValidateResetToken(req.Token, s.resetSecret)
		if err != nil || claims.Username != req.Username {
			return nil, ErrLoginError
		}
		user, err := s.lookup(ctx, claims.Username)
		if err != nil {
			return nil, err
		}
		// A used or stale link no longer matches the stored hash
		if !utils.SecureCompare(claims.Password, utils.PasswordFingerprint(user.PasswordHash)) {
			return nil, ErrLoginError
		}
		return user, nil
	}

	caller, err := s.auth.Authenticate(ctx, req.AuthToken)
	if err != nil {
		return nil, err
	}

	if caller.IsAdmin && req.Username != "" {
		return s.lookup(ctx, req.Username)
	}

	if req.Old != "" {
		if !utils.CheckPassword(caller.PasswordHash, req.Old) {
			return nil, ErrLoginError
		}
		return caller, nil
	}

	if caller.IsAdmin {
		return nil, ErrResetUsername
	}
	return nil, ErrLoginError
}

func (s *PasswordService) lookup(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrLoginError
	}
	return user, nil
}

// RequestReset emails a short-lived reset link to the user's address.
func (s *PasswordService) RequestReset(ctx context.Context, username string) error {
	if username == "" {
		return ErrLoginError
	}
	user, err := s.lookup(ctx, username)
	if err != nil {
		return err
	}

	token, err := utils.GenerateResetToken(user.Username, user.PasswordHash, s.resetSecret, s.resetTTL)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	link := fmt.Sprintf("%s/password/reset?username=%s&token=%s",
		s.frontendURL, url.QueryEscape(user.Username), url.QueryEscape(token))

	if err := s.mailer.SendPasswordReset(user.Email, user.Username, link); err != nil {
		return wrapError(KindEmail, CodeEmailError, err)
	}

	log.Printf("Password reset sent to user %s", user.Username)
	return nil
}
