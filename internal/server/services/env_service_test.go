package services

import (
	"context"
	"testing"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

func int64Ptr(v int64) *int64 { return &v }
func float64Ptr(v float64) *float64 { return &v }

func hubSample(nodeID, sent int64, temp float64) models.HubSample {
	return models.HubSample{
		NodeID:      int64Ptr(nodeID),
		DataSent:    int64Ptr(sent),
		Temperature: float64Ptr(temp),
		Humidity:    float64Ptr(55),
		LeafWetness: float64Ptr(3),
	}
}

func hubBatch(key string, samples ...models.HubSample) models.HubDataRequest {
	return models.HubDataRequest{
		Key:       key,
		HubID:     int64Ptr(1),
		VineID:    int64Ptr(10),
		BatchSent: int64Ptr(1700000000000),
		HubData:   samples,
	}
}

// seedVineyard creates vineyard 10 with nodes 100 and 101 and a grower
// linked to it.
func seedVineyard(t *testing.T, env *testEnv) string {
	t.Helper()
	ctx := context.Background()

	env.addVineyard(t, 10, "Hillside")
	for i, id := range []int64{100, 101} {
		node := &models.HardwareNode{
			NodeID:     id,
			VineyardID: 10,
			HubID:      1,
			Location:   models.Point{Lat: 45.0 + float64(i), Lon: -122.0},
		}
		if err := env.store.Nodes().Create(ctx, node); err != nil {
			t.Fatalf("Failed to create node: %v", err)
		}
	}

	grower := env.addUser(t, "grower", "grapes", false)
	grower.VineyardIDs = append(grower.VineyardIDs, 10)
	env.store.Users().Update(ctx, grower)
	return env.login(t, "grower", "grapes")
}

func TestEnvService_IngestBatch_WrongKeyStoresNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, key := range []string{"", "wrong", testHubKey + "x"} {
		err := env.env.IngestBatch(ctx, hubBatch(key, hubSample(100, 1, 20)))
		assertCode(t, err, CodeEnvKeyInvalid)
	}

	if n := env.store.SampleCount(); n != 0 {
		t.Errorf("Expected no samples stored, got %d", n)
	}
}

func TestEnvService_IngestBatch_IncompleteRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	missing := hubSample(101, 2, 21)
	missing.LeafWetness = nil

	assertCode(t, env.env.IngestBatch(ctx, hubBatch(testHubKey, hubSample(100, 1, 20), missing)), CodeEnvDataInvalid)
	assertCode(t, env.env.IngestBatch(ctx, hubBatch(testHubKey)), CodeEnvDataInvalid)

	noHub := hubBatch(testHubKey, hubSample(100, 1, 20))
	noHub.HubID = nil
	assertCode(t, env.env.IngestBatch(ctx, noHub), CodeEnvDataInvalid)

	if n := env.store.SampleCount(); n != 0 {
		t.Errorf("Expected no samples stored, got %d", n)
	}
}

func TestEnvService_IngestAndQuery(t *testing.T) {
	env := newTestEnv(t)
	token := seedVineyard(t, env)
	ctx := context.Background()

	err := env.env.IngestBatch(ctx, hubBatch(testHubKey,
		hubSample(100, 1, 18.5),
		hubSample(100, 5, 22.0),
		hubSample(101, 3, 19.0),
	))
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}
	if n := env.store.SampleCount(); n != 3 {
		t.Fatalf("Expected 3 samples, got %d", n)
	}

	points, err := env.env.GetEnvData(ctx, token, "10", "temperature")
	if err != nil {
		t.Fatalf("GetEnvData failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected one point per node, got %+v", points)
	}
	if points[0]["node_id"] != int64(100) || points[0]["temperature"] != 22.0 {
		t.Errorf("Expected latest reading for node 100, got %+v", points[0])
	}
	if points[1]["latitude"] != 46.0 {
		t.Errorf("Expected node 101 location, got %+v", points[1])
	}
}

func TestEnvService_GetEnvData_Errors(t *testing.T) {
	env := newTestEnv(t)
	token := seedVineyard(t, env)
	env.addVineyard(t, 20, "Other")
	ctx := context.Background()

	tests := []struct {
		name     string
		token    string
		vineyard models.FlexString
		variable string
		code     string
	}{
		{"no token", "", "10", "temperature", CodeAuthNoToken},
		{"bad token", "bogus", "10", "temperature", CodeAuthNotFound},
		{"bad variable", token, "10", "rainfall", CodeEnvVariableInvalid},
		{"no vineyard", token, "", "humidity", CodeVineyardNoID},
		{"bad vineyard", token, "abc", "humidity", CodeVineyardBadID},
		{"other vineyard", token, "20", "humidity", CodeVineyardUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.env.GetEnvData(ctx, tt.token, tt.vineyard, tt.variable)
			assertCode(t, err, tt.code)
		})
	}
}

func TestEnvService_GetVineyard(t *testing.T) {
	env := newTestEnv(t)
	token := seedVineyard(t, env)
	ctx := context.Background()

	info, err := env.env.GetVineyard(ctx, token, "10")
	if err != nil {
		t.Fatalf("GetVineyard failed: %v", err)
	}
	if info.Name != "Hillside" || len(info.Nodes) != 2 || info.Users != nil {
		t.Errorf("Unexpected vineyard info: %+v", info)
	}

	_, err = env.env.GetVineyard(ctx, token, "abc")
	assertCode(t, err, CodeVineyardBadID)

	env.store.Vineyards().SetEnabled(ctx, 10, false)
	_, err = env.env.GetVineyard(ctx, token, "10")
	assertCode(t, err, CodeVineyardNotFound)
}
