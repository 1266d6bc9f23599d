package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.VineyardIDs == nil {
		user.VineyardIDs = pq.Int64Array{}
	}
	query := `
		INSERT INTO users (user_id, username, password_hash, email, is_admin, is_enabled, subscription_end_date, vineyard_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.UserID, user.Username, user.PasswordHash, user.Email,
		user.IsAdmin, user.IsEnabled, user.SubscriptionEndDate, user.VineyardIDs,
	).Scan(&user.CreatedAt)
	return uniqueViolation(err)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE user_id = $1`, userID)
}

// GetByTokenHash resolves a session token digest through the unique index on
// security_token.
func (r *UserRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE security_token = $1`, tokenHash)
}

func (r *UserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	query := `SELECT * FROM users ORDER BY user_id`
	err := r.db.SelectContext(ctx, &users, query)
	return users, err
}

func (r *UserRepository) ListByVineyard(ctx context.Context, vineyardID int64) ([]models.User, error) {
	var users []models.User
	query := `SELECT * FROM users WHERE $1 = ANY(vineyard_ids) ORDER BY username`
	err := r.db.SelectContext(ctx, &users, query, vineyardID)
	return users, err
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, is_admin = $2, is_enabled = $3, subscription_end_date = $4, vineyard_ids = $5
		WHERE user_id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.IsAdmin, user.IsEnabled, user.SubscriptionEndDate, user.VineyardIDs, user.UserID,
	)
	return err
}

// SetToken stores the digest of the user's current session token, replacing
// any previous one. A nil digest revokes the session.
func (r *UserRepository) SetToken(ctx context.Context, userID int64, tokenHash *string) error {
	query := `UPDATE users SET security_token = $1 WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, tokenHash, userID)
	return err
}

// SetPassword replaces the password hash and revokes the session token in
// the same statement.
func (r *UserRepository) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, security_token = NULL WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

func (r *UserRepository) SetEmail(ctx context.Context, userID int64, email string) error {
	query := `UPDATE users SET email = $1 WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, email, userID)
	return err
}

func (r *UserRepository) SetSubscription(ctx context.Context, userID int64, endDate time.Time) error {
	query := `UPDATE users SET subscription_end_date = $1 WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, endDate, userID)
	return err
}

func (r *UserRepository) SetEnabled(ctx context.Context, userID int64, enabled bool) error {
	query := `UPDATE users SET is_enabled = $1 WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, enabled, userID)
	return err
}
