package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/internal/server/config"
	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands",
	Long:  "Administrative commands for managing users, sensor nodes, and field hubs",
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	Run:   runCreateUserCommand,
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account from ADMIN_USER / ADMIN_PASSWORD if missing",
	Run:   runSeedAdminCommand,
}

var disableUserCmd = &cobra.Command{
	Use:   "disable-user",
	Short: "Disable a user and revoke their session",
	Run:   runDisableUserCommand,
}

var listUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "List all users",
	Run:   runListUsersCommand,
}

var addNodeCmd = &cobra.Command{
	Use:   "add-node",
	Short: "Register a sensor node in a vineyard",
	Run:   runAddNodeCommand,
}

var hubQRCmd = &cobra.Command{
	Use:   "hub-qr",
	Short: "Print the provisioning QR code for a field hub",
	Long:  "Encodes the upload URL, hub id and HUB_KEY into a QR code that a hub can scan during setup.",
	Run:   runHubQRCommand,
}

var hubStatsCmd = &cobra.Command{
	Use:   "hub-stats",
	Short: "Show how many samples a hub has uploaded",
	Run:   runHubStatsCommand,
}

func init() {
	createUserCmd.Flags().String("username", "", "Username, letters and digits only (required)")
	createUserCmd.Flags().String("password", "", "Password (required)")
	createUserCmd.Flags().String("email", "", "Email address (required)")
	createUserCmd.Flags().String("user-id", "", "User id (defaults to the next free id)")
	createUserCmd.Flags().String("sub-end-date", "", "Subscription end date, YYYY-MM-DD (required)")
	createUserCmd.Flags().Bool("admin", false, "Grant admin rights")
	createUserCmd.MarkFlagRequired("username")
	createUserCmd.MarkFlagRequired("password")
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("sub-end-date")

	disableUserCmd.Flags().String("username", "", "Username to disable (required)")
	disableUserCmd.MarkFlagRequired("username")

	addNodeCmd.Flags().String("node-id", "", "Node id (required)")
	addNodeCmd.Flags().String("vineyard-id", "", "Vineyard id (required)")
	addNodeCmd.Flags().String("hub-id", "", "Hub id (required)")
	addNodeCmd.Flags().Float64("lat", 0, "Node latitude")
	addNodeCmd.Flags().Float64("lon", 0, "Node longitude")
	addNodeCmd.MarkFlagRequired("node-id")
	addNodeCmd.MarkFlagRequired("vineyard-id")
	addNodeCmd.MarkFlagRequired("hub-id")

	hubQRCmd.Flags().String("server-url", "", "Public server URL the hub uploads to (required)")
	hubQRCmd.Flags().Int64("hub-id", 0, "Hub id (required)")
	hubQRCmd.Flags().String("output", "", "Write a PNG to this path instead of printing")
	hubQRCmd.MarkFlagRequired("server-url")
	hubQRCmd.MarkFlagRequired("hub-id")

	hubStatsCmd.Flags().Int64("hub-id", 0, "Hub id (required)")
	hubStatsCmd.MarkFlagRequired("hub-id")

	adminCmd.AddCommand(
		createUserCmd,
		seedAdminCmd,
		disableUserCmd,
		listUsersCmd,
		addNodeCmd,
		hubQRCmd,
		hubStatsCmd,
	)
}

func runCreateUserCommand(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	email, _ := cmd.Flags().GetString("email")
	rawID, _ := cmd.Flags().GetString("user-id")
	subEndDate, _ := cmd.Flags().GetString("sub-end-date")
	admin, _ := cmd.Flags().GetBool("admin")

	_, db := openDatabase()
	defer db.Close()

	repos := newRepositories(db)
	validator := services.NewValidator(repos.users, repos.vineyards, repos.nodes)
	ctx := context.Background()

	if err := validator.CheckUsername(ctx, username); err != nil {
		log.Fatalf("Invalid username: %v", err)
	}

	var userID int64
	var err error
	if rawID != "" {
		userID, err = validator.CheckUserID(ctx, rawID)
	} else {
		userID, err = nextUserID(ctx, repos.users)
	}
	if err != nil {
		log.Fatalf("Invalid user id: %v", err)
	}

	if err := services.CheckEmail(email); err != nil {
		log.Fatalf("Invalid email: %v", err)
	}
	if err := services.CheckPassword(password); err != nil {
		log.Fatalf("Invalid password: %v", err)
	}
	endDate, err := services.CheckSubscriptionEndDate(subEndDate, time.Now().UTC())
	if err != nil {
		log.Fatalf("Invalid subscription end date: %v", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		UserID:              userID,
		Username:            username,
		PasswordHash:        hash,
		Email:               email,
		IsAdmin:             admin,
		IsEnabled:           true,
		SubscriptionEndDate: endDate,
		VineyardIDs:         pq.Int64Array{},
	}
	if err := repos.users.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("✓ User %s created (id %d, admin %v)\n", user.Username, user.UserID, user.IsAdmin)
}

func runSeedAdminCommand(cmd *cobra.Command, args []string) {
	cfg, db := openDatabase()
	defer db.Close()

	if cfg.AdminUser == "" {
		log.Fatal("ADMIN_USER environment variable not set")
	}

	repos := newRepositories(db)
	if err := seedAdmin(context.Background(), repos.users, cfg.AdminUser, cfg.AdminPassword, cfg.AdminEmail); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
}

func runDisableUserCommand(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")

	_, db := openDatabase()
	defer db.Close()

	repos := newRepositories(db)
	ctx := context.Background()

	user, err := repos.users.GetByUsername(ctx, username)
	if err != nil {
		log.Fatalf("Failed to find user: %v", err)
	}
	if user == nil {
		log.Fatalf("User not found: %s", username)
	}

	if err := repos.users.SetEnabled(ctx, user.UserID, false); err != nil {
		log.Fatalf("Failed to disable user: %v", err)
	}
	if err := repos.users.SetToken(ctx, user.UserID, nil); err != nil {
		log.Fatalf("Failed to revoke session: %v", err)
	}

	fmt.Printf("✓ User %s disabled\n", username)
}

func runListUsersCommand(cmd *cobra.Command, args []string) {
	_, db := openDatabase()
	defer db.Close()

	repos := newRepositories(db)
	users, err := repos.users.ListAll(context.Background())
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return
	}

	fmt.Printf("%-8s %-20s %-30s %-6s %-8s %-12s %s\n", "ID", "USERNAME", "EMAIL", "ADMIN", "ENABLED", "SUB END", "VINEYARDS")
	fmt.Println(strings.Repeat("-", 100))
	for _, u := range users {
		fmt.Printf("%-8d %-20s %-30s %-6v %-8v %-12s %s\n",
			u.UserID,
			u.Username,
			u.Email,
			u.IsAdmin,
			u.IsEnabled,
			u.SubscriptionEndDate.Format(models.DateLayout),
			formatIDs(u.VineyardIDs),
		)
	}
	fmt.Printf("\nTotal: %d user(s)\n", len(users))
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func runAddNodeCommand(cmd *cobra.Command, args []string) {
	rawNodeID, _ := cmd.Flags().GetString("node-id")
	rawVineyardID, _ := cmd.Flags().GetString("vineyard-id")
	rawHubID, _ := cmd.Flags().GetString("hub-id")
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")

	_, db := openDatabase()
	defer db.Close()

	repos := newRepositories(db)
	validator := services.NewValidator(repos.users, repos.vineyards, repos.nodes)
	ctx := context.Background()

	nodeID, err := validator.CheckNodeID(ctx, rawNodeID)
	if err != nil {
		log.Fatalf("Invalid node id: %v", err)
	}

	vineyardID, err := services.ParseVineyardID(models.FlexString(rawVineyardID))
	if err != nil {
		log.Fatalf("Invalid vineyard id: %v", err)
	}
	vineyard, err := repos.vineyards.GetByID(ctx, vineyardID)
	if err != nil {
		log.Fatalf("Failed to find vineyard: %v", err)
	}
	if vineyard == nil {
		log.Fatalf("Vineyard not found: %d", vineyardID)
	}

	hubID, ok := utils.ParseID(rawHubID)
	if !ok {
		log.Fatalf("Invalid hub id: %s", rawHubID)
	}

	location := models.Point{Lat: lat, Lon: lon}
	if err := services.CheckCoordinates(location); err != nil {
		log.Fatalf("Invalid location: %v", err)
	}

	node := &models.HardwareNode{
		NodeID:     nodeID,
		VineyardID: vineyardID,
		HubID:      hubID,
		Location:   location,
	}
	if err := repos.nodes.Create(ctx, node); err != nil {
		log.Fatalf("Failed to register node: %v", err)
	}

	fmt.Printf("✓ Node %d registered in vineyard %s (hub %d)\n", nodeID, vineyard.Name, hubID)
}

// hubProvisioning is what a hub reads from its setup QR code.
type hubProvisioning struct {
	URL   string `json:"url"`
	HubID int64  `json:"hub_id"`
	Key   string `json:"key"`
}

func hubPayload(serverURL string, hubID int64, key string) (string, error) {
	data, err := json.Marshal(hubProvisioning{
		URL:   strings.TrimRight(serverURL, "/") + "/hub_data",
		HubID: hubID,
		Key:   key,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runHubQRCommand(cmd *cobra.Command, args []string) {
	serverURL, _ := cmd.Flags().GetString("server-url")
	hubID, _ := cmd.Flags().GetInt64("hub-id")
	output, _ := cmd.Flags().GetString("output")

	// Only the hub key is needed, so no database connection
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.HubKey == "" {
		log.Fatal("HUB_KEY environment variable not set")
	}

	payload, err := hubPayload(serverURL, hubID, cfg.HubKey)
	if err != nil {
		log.Fatalf("Failed to encode payload: %v", err)
	}

	if output != "" {
		if err := qrcode.WriteFile(payload, qrcode.Medium, 256, output); err != nil {
			log.Fatalf("Failed to write QR code: %v", err)
		}
		fmt.Printf("✓ QR code for hub %d written to %s\n", hubID, output)
		return
	}

	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		log.Fatalf("Failed to generate QR code: %v", err)
	}

	fmt.Printf("Scan this QR code with hub %d:\n\n", hubID)
	// false = inverted colors for terminal visibility
	fmt.Println(qr.ToSmallString(false))
}

func runHubStatsCommand(cmd *cobra.Command, args []string) {
	hubID, _ := cmd.Flags().GetInt64("hub-id")

	_, db := openDatabase()
	defer db.Close()

	repos := newRepositories(db)
	count, err := repos.samples.CountByHub(context.Background(), hubID)
	if err != nil {
		log.Fatalf("Failed to count samples: %v", err)
	}

	fmt.Printf("Hub %d: %d sample(s) stored\n", hubID, count)
}
