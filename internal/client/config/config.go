package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	ConfigFile = "config.json"
	uploadPath = "/hub_data"
)

// GetConfigDir returns the hub's config directory. PLANTALYTICS_HUB_DIR
// overrides the default under the user's home.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("PLANTALYTICS_HUB_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user directory: %w", err)
	}

	return filepath.Join(home, ".plantalytics-hub"), nil
}

// Config is what a field hub needs to upload batches.
type Config struct {
	ServerURL string    `json:"server_url"`
	HubID     int64     `json:"hub_id"`
	Key       string    `json:"key"`
	VineID    int64     `json:"vine_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FromProvisioning parses the payload printed by `admin hub-qr`.
func FromProvisioning(payload string, vineID int64) (*Config, error) {
	var p struct {
		URL   string `json:"url"`
		HubID int64  `json:"hub_id"`
		Key   string `json:"key"`
	}
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("failed to parse provisioning payload: %w", err)
	}
	if p.URL == "" || p.Key == "" {
		return nil, errors.New("provisioning payload is missing url or key")
	}

	return &Config{
		ServerURL: strings.TrimSuffix(strings.TrimRight(p.URL, "/"), uploadPath),
		HubID:     p.HubID,
		Key:       p.Key,
		VineID:    vineID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Load loads the configuration from disk. Returns (nil, nil) if the hub has
// not been provisioned.
func Load() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(configDir, ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// Save writes the configuration with owner-only permissions since it holds
// the hub key.
func (c *Config) Save() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, ConfigFile), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Delete deletes the configuration file
func Delete() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	return os.Remove(filepath.Join(configDir, ConfigFile))
}
