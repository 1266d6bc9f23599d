package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Point is a lat/lon pair. Stored as JSONB.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p Point) Value() (driver.Value, error) {
	return marshalJSON(p)
}

func (p *Point) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// Boundary is an ordered polygon of points. Stored as JSONB.
type Boundary []Point

func (b Boundary) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	return marshalJSON([]Point(b))
}

func (b *Boundary) Scan(src interface{}) error {
	return scanJSON(src, (*[]Point)(b))
}

// marshalJSON returns a string so lib/pq sends text rather than bytea.
func marshalJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSON column type")
	}
}

type Vineyard struct {
	VineyardID int64          `json:"vineyard_id" db:"vineyard_id"`
	Name       string         `json:"name" db:"name"`
	OwnerList  pq.StringArray `json:"owner_list" db:"owner_list"`
	Center     Point          `json:"center" db:"center"`
	Boundaries Boundary       `json:"boundaries" db:"boundaries"`
	IsEnabled  bool           `json:"is_enabled" db:"is_enabled"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// HardwareNode places a sensor node inside a vineyard.
type HardwareNode struct {
	NodeID     int64     `json:"node_id" db:"node_id"`
	VineyardID int64     `json:"vineyard_id" db:"vineyard_id"`
	HubID      int64     `json:"hub_id" db:"hub_id"`
	Location   Point     `json:"location" db:"location"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
