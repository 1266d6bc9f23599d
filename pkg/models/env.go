package models

import "time"

// EnvironmentalSample is one immutable sensor reading from a hub batch.
type EnvironmentalSample struct {
	ID          int64     `json:"id" db:"id"`
	NodeID      int64     `json:"node_id" db:"node_id"`
	HubID       int64     `json:"hub_id" db:"hub_id"`
	VineID      int64     `json:"vine_id" db:"vine_id"`
	BatchSent   int64     `json:"batch_sent" db:"batch_sent"`
	DataSent    int64     `json:"data_sent" db:"data_sent"`
	Temperature float64   `json:"temperature" db:"temperature"`
	Humidity    float64   `json:"humidity" db:"humidity"`
	LeafWetness float64   `json:"leafwetness" db:"leaf_wetness"`
	ReceivedAt  time.Time `json:"received_at" db:"received_at"`
}

// NodeReading is the latest value of one environmental variable at a node.
type NodeReading struct {
	NodeID   int64   `db:"node_id"`
	Location Point   `db:"location"`
	Value    float64 `db:"value"`
	DataSent int64   `db:"data_sent"`
}
