package main

import (
	"testing"
	"time"

	"github.com/plantalytics/plantalytics-backend/internal/client/config"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

func TestNewBatch(t *testing.T) {
	cfg := &config.Config{HubID: 5, VineID: 2, Key: "hub-secret"}
	samples := []models.HubSample{{}, {}}
	sentAt := time.Unix(1700000100, 0)

	batch := newBatch(cfg, samples, sentAt)

	if batch.Key != "hub-secret" {
		t.Errorf("Expected key hub-secret, got %s", batch.Key)
	}
	if batch.HubID == nil || *batch.HubID != 5 {
		t.Errorf("Expected hub id 5, got %v", batch.HubID)
	}
	if batch.VineID == nil || *batch.VineID != 2 {
		t.Errorf("Expected vine id 2, got %v", batch.VineID)
	}
	if batch.BatchSent == nil || *batch.BatchSent != 1700000100 {
		t.Errorf("Expected batch_sent 1700000100, got %v", batch.BatchSent)
	}
	if len(batch.HubData) != 2 {
		t.Errorf("Expected 2 samples, got %d", len(batch.HubData))
	}

	// Later edits to cfg must not leak into a built batch
	cfg.HubID = 9
	if *batch.HubID != 5 {
		t.Error("Batch should hold its own copy of the hub id")
	}
}
