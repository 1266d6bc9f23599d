package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	serverapi "github.com/plantalytics/plantalytics-backend/internal/server/api"
	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/internal/testutil"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHubKey = "field-hub-key"

type nopMailer struct{}

func (nopMailer) SendPasswordReset(email, username, link string) error { return nil }
func (nopMailer) SendEmailChanged(oldEmail, newEmail, username string) error { return nil }

// startServer runs the real router over an in-memory store with one vineyard
// (id 1) holding node 10 on hub 5.
func startServer(t *testing.T) (*httptest.Server, *testutil.MemoryStore) {
	t.Helper()

	store := testutil.NewMemoryStore()
	users, vineyards, nodes, samples := store.Users(), store.Vineyards(), store.Nodes(), store.Samples()

	auth := services.NewAuthService(users, vineyards)
	validator := services.NewValidator(users, vineyards, nodes)
	router := serverapi.NewRouter(serverapi.Services{
		Auth:      auth,
		Admin:     services.NewAdminService(auth, validator, users, vineyards, nodes),
		Passwords: services.NewPasswordService(auth, users, nopMailer{}, "reset-secret", time.Hour, "http://localhost:3000"),
		Accounts:  services.NewAccountService(auth, users, nopMailer{}),
		Env:       services.NewEnvService(auth, vineyards, nodes, samples, testHubKey),
	})

	ctx := context.Background()
	require.NoError(t, users.Create(ctx, testutil.NewUser("admin", "vineyard-admin", true)))
	require.NoError(t, vineyards.Create(ctx, &models.Vineyard{
		VineyardID: 1,
		Name:       "North Block",
		Center:     models.Point{Lat: 45.2, Lon: -123.1},
		IsEnabled:  true,
	}))
	require.NoError(t, nodes.Create(ctx, &models.HardwareNode{
		NodeID:     10,
		VineyardID: 1,
		HubID:      5,
		Location:   models.Point{Lat: 45.21, Lon: -123.11},
	}))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func int64Ptr(v int64) *int64 { return &v }
func float64Ptr(v float64) *float64 { return &v }

func batch(key string) models.HubDataRequest {
	return models.HubDataRequest{
		Key:       key,
		HubID:     int64Ptr(5),
		VineID:    int64Ptr(1),
		BatchSent: int64Ptr(1700000100),
		HubData: []models.HubSample{{
			NodeID:      int64Ptr(10),
			DataSent:    int64Ptr(1700000000),
			Temperature: float64Ptr(21.5),
			Humidity:    float64Ptr(60),
			LeafWetness: float64Ptr(0.2),
		}},
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := startServer(t)

	assert.NoError(t, NewClient(srv.URL+"/").HealthCheck(context.Background()))
}

func TestHealthCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.Error(t, NewClient(srv.URL).HealthCheck(context.Background()))
}

func TestSendBatchAndReadBack(t *testing.T) {
	srv, store := startServer(t)
	ctx := context.Background()
	client := NewClient(srv.URL)

	require.NoError(t, client.SendBatch(ctx, batch(testHubKey)))
	assert.Equal(t, 1, store.SampleCount())

	login, err := client.Login(ctx, "admin", "vineyard-admin")
	require.NoError(t, err)
	require.NotEmpty(t, login.AuthToken)

	points, err := client.EnvData(ctx, login.AuthToken, 1, "temperature")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.EqualValues(t, 21.5, points[0]["temperature"])
	assert.EqualValues(t, 10, points[0]["node_id"])

	require.NoError(t, client.Logout(ctx, login.AuthToken))

	_, err = client.EnvData(ctx, login.AuthToken, 1, "temperature")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr), "expected *Error, got %v", err)
	assert.True(t, apiErr.HasCode(services.CodeAuthNotFound), apiErr.Error())
}

func TestSendBatch_WrongKey(t *testing.T) {
	srv, store := startServer(t)

	err := NewClient(srv.URL).SendBatch(context.Background(), batch("wrong"))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr), "expected *Error, got %v", err)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, []string{services.CodeEnvKeyInvalid}, apiErr.Codes)
	assert.Equal(t, 0, store.SampleCount())
}

func TestLogin_BadPassword(t *testing.T) {
	srv, _ := startServer(t)

	_, err := NewClient(srv.URL).Login(context.Background(), "admin", "nope")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.HasCode(services.CodeLoginError))
}

func TestError_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Logout(context.Background(), "token")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Empty(t, apiErr.Codes)
	assert.Contains(t, apiErr.Error(), "upstream down")
}
