package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

// Error is a non-200 response. Codes holds the keys of the errors map, or is
// empty when the body could not be decoded.
type Error struct {
	Status int
	Codes  []string
	Body   string
}

func (e *Error) Error() string {
	if len(e.Codes) > 0 {
		return fmt.Sprintf("server returned %d: %s", e.Status, strings.Join(e.Codes, ", "))
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}

// HasCode reports whether the server answered with the given error code.
func (e *Error) HasCode(code string) bool {
	for _, c := range e.Codes {
		if c == code {
			return true
		}
	}
	return false
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// HealthCheck checks if the server is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health_check", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.IsAlive {
		return fmt.Errorf("server reports not alive")
	}

	return nil
}

// do sends body as JSON and decodes a 200 response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	apiErr := &Error{Status: resp.StatusCode, Body: string(bodyBytes)}

	var status models.StatusResponse
	if err := json.Unmarshal(bodyBytes, &status); err == nil {
		for code := range status.Errors {
			apiErr.Codes = append(apiErr.Codes, code)
		}
		sort.Strings(apiErr.Codes)
	}
	return apiErr
}

// SendBatch uploads one hub batch. The server stores all samples or none.
func (c *Client) SendBatch(ctx context.Context, batch models.HubDataRequest) error {
	return c.do(ctx, http.MethodPut, "/hub_data", batch, nil)
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var result models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", models.LoginRequest{Username: username, Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", models.LogoutRequest{AuthToken: token}, nil)
}

// EnvData fetches the latest reading of variable for every node in the
// vineyard.
func (c *Client) EnvData(ctx context.Context, token string, vineyardID int64, variable string) ([]models.EnvDataPoint, error) {
	req := models.EnvDataRequest{
		AuthToken:   token,
		VineyardID:  models.FlexString(fmt.Sprint(vineyardID)),
		EnvVariable: variable,
	}

	var result models.EnvDataResponse
	if err := c.do(ctx, http.MethodPost, "/env_data", req, &result); err != nil {
		return nil, err
	}
	return result.EnvData, nil
}
