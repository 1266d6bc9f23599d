package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/plantalytics/plantalytics-backend/internal/client/api"
	"github.com/plantalytics/plantalytics-backend/internal/client/config"
	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/version"
	"github.com/spf13/cobra"
)

const appName = "plantalytics-hub"

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Plantalytics field hub uploader",
	Long:  "Uploads sensor batches from a field hub to the Plantalytics backend",
}

var provisionCmd = &cobra.Command{
	Use:   "provision [payload]",
	Short: "Store the payload scanned from the hub-qr code",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvision,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provisioning status and check the server",
	RunE:  runStatus,
}

var sendCmd = &cobra.Command{
	Use:   "send [samples.json]",
	Short: "Upload a batch of samples read from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

var unprovisionCmd = &cobra.Command{
	Use:   "unprovision",
	Short: "Delete the stored hub configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Delete(); err != nil && !os.IsNotExist(err) {
			return err
		}
		fmt.Println("✓ Hub configuration removed")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersion(appName))
	},
}

func init() {
	provisionCmd.Flags().Int64("vine-id", 0, "Vine id reported with every batch (required)")
	provisionCmd.MarkFlagRequired("vine-id")

	rootCmd.AddCommand(provisionCmd, statusCmd, sendCmd, unprovisionCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New("hub is not provisioned, run: plantalytics-hub provision '<payload>'")
	}
	return cfg, nil
}

func runProvision(cmd *cobra.Command, args []string) error {
	vineID, _ := cmd.Flags().GetInt64("vine-id")

	cfg, err := config.FromProvisioning(args[0], vineID)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.ServerURL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		fmt.Printf("⚠️  Server not reachable yet: %v\n", err)
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Printf("✓ Hub %d provisioned for %s\n", cfg.HubID, cfg.ServerURL)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Server:      %s\n", cfg.ServerURL)
	fmt.Printf("Hub ID:      %d\n", cfg.HubID)
	fmt.Printf("Vine ID:     %d\n", cfg.VineID)
	fmt.Printf("Provisioned: %s\n", cfg.CreatedAt.Format(time.RFC3339))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.NewClient(cfg.ServerURL).HealthCheck(ctx); err != nil {
		fmt.Printf("Server:      ✗ %v\n", err)
		return nil
	}
	fmt.Println("Server:      ✓ alive")
	return nil
}

// newBatch wraps samples with the hub identity and the send time.
func newBatch(cfg *config.Config, samples []models.HubSample, sentAt time.Time) models.HubDataRequest {
	hubID := cfg.HubID
	vineID := cfg.VineID
	batchSent := sentAt.Unix()

	return models.HubDataRequest{
		Key:       cfg.Key,
		HubID:     &hubID,
		VineID:    &vineID,
		BatchSent: &batchSent,
		HubData:   samples,
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read samples: %w", err)
	}

	var samples []models.HubSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return fmt.Errorf("failed to parse samples: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = api.NewClient(cfg.ServerURL).SendBatch(ctx, newBatch(cfg, samples, time.Now()))
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.HasCode(services.CodeEnvKeyInvalid) {
		return fmt.Errorf("server rejected the hub key, re-provision this hub: %w", err)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ Uploaded %d sample(s)\n", len(samples))
	return nil
}
