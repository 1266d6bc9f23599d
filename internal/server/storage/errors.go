package storage

import (
	"errors"

	"github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

// uniqueColumns maps the constraint names Postgres generates for the schema
// to the column they protect.
var uniqueColumns = map[string]string{
	"users_pkey":          "user_id",
	"users_username_key":  "username",
	"vineyards_pkey":      "vineyard_id",
	"hardware_nodes_pkey": "node_id",
}

// uniqueViolation turns a unique_violation into a *models.DuplicateError.
// Other errors, and nil, pass through unchanged.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code.Name() != "unique_violation" {
		return err
	}

	column, ok := uniqueColumns[pqErr.Constraint]
	if !ok {
		column = pqErr.Constraint
	}
	return &models.DuplicateError{Column: column, Err: err}
}
