package models

import (
	"time"

	"github.com/lib/pq"
)

// DateLayout is the wire format of subscription end dates.
const DateLayout = "2006-01-02"

type User struct {
	UserID              int64         `json:"user_id" db:"user_id"`
	Username            string        `json:"username" db:"username"`
	PasswordHash        string        `json:"-" db:"password_hash"`
	Email               string        `json:"email" db:"email"`
	IsAdmin             bool          `json:"is_admin" db:"is_admin"`
	IsEnabled           bool          `json:"is_enabled" db:"is_enabled"`
	SubscriptionEndDate time.Time     `json:"subscription_end_date" db:"subscription_end_date"`
	SecurityToken       *string       `json:"-" db:"security_token"`
	VineyardIDs         pq.Int64Array `json:"vineyard_ids" db:"vineyard_ids"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
}

// SubscriptionExpired reports whether the subscription ended before the
// calendar day of now. The end date itself is still a valid day.
func (u *User) SubscriptionExpired(now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(u.SubscriptionEndDate.Year(), u.SubscriptionEndDate.Month(), u.SubscriptionEndDate.Day(), 0, 0, 0, 0, time.UTC)
	return end.Before(today)
}

// HasVineyard reports whether the user is linked to the vineyard.
func (u *User) HasVineyard(vineyardID int64) bool {
	for _, id := range u.VineyardIDs {
		if id == vineyardID {
			return true
		}
	}
	return false
}
