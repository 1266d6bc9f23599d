package services

import (
	"context"
	"fmt"
	"log"
)

type AccountService struct {
	auth   *AuthService
	users  UserStore
	mailer Mailer
}

func NewAccountService(auth *AuthService, users UserStore, mailer Mailer) *AccountService {
	return &AccountService{auth: auth, users: users, mailer: mailer}
}

// ChangeEmail updates the caller's address and notifies the old one.
func (s *AccountService) ChangeEmail(ctx context.Context, token, newEmail string) error {
	user, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	if err := CheckEmail(newEmail); err != nil {
		return err
	}

	if err := s.users.SetEmail(ctx, user.UserID, newEmail); err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}

	oldEmail := user.Email
	if oldEmail != "" && oldEmail != newEmail {
		go func() {
			if err := s.mailer.SendEmailChanged(oldEmail, newEmail, user.Username); err != nil {
				log.Printf("Warning: Failed to send email change notice to %s: %v", user.Username, err)
			}
		}()
	}

	return nil
}
