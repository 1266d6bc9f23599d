package storage

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

func TestUniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		column     string
	}{
		{"users_pkey", "user_id"},
		{"users_username_key", "username"},
		{"vineyards_pkey", "vineyard_id"},
		{"hardware_nodes_pkey", "node_id"},
		{"users_security_token_key", "users_security_token_key"},
	}

	for _, tt := range tests {
		err := uniqueViolation(&pq.Error{Code: "23505", Constraint: tt.constraint})

		var dup *models.DuplicateError
		if !errors.As(err, &dup) {
			t.Fatalf("%s: expected DuplicateError, got %v", tt.constraint, err)
		}
		if dup.Column != tt.column {
			t.Errorf("%s: expected column %s, got %s", tt.constraint, tt.column, dup.Column)
		}
		if !errors.Is(err, models.ErrDuplicate) {
			t.Errorf("%s: expected errors.Is(ErrDuplicate)", tt.constraint)
		}
	}
}

func TestUniqueViolation_PassThrough(t *testing.T) {
	if err := uniqueViolation(nil); err != nil {
		t.Errorf("nil should pass through, got %v", err)
	}

	fk := &pq.Error{Code: "23503", Constraint: "hardware_nodes_vineyard_id_fkey"}
	if err := uniqueViolation(fk); err != fk {
		t.Errorf("foreign key violation should pass through, got %v", err)
	}

	other := errors.New("connection reset")
	if err := uniqueViolation(other); err != other {
		t.Errorf("plain error should pass through, got %v", err)
	}
}
