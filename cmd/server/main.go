package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/plantalytics/plantalytics-backend/internal/server/api"
	"github.com/plantalytics/plantalytics-backend/internal/server/config"
	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/internal/server/setup"
	"github.com/plantalytics/plantalytics-backend/internal/server/storage"
	"github.com/plantalytics/plantalytics-backend/pkg/version"
	"github.com/spf13/cobra"
)

const appName = "plantalytics-server"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Plantalytics backend - vineyard monitoring API",
	Long:  "Backend for Plantalytics: user and vineyard administration, sessions, and environmental data from field hubs",
	// Default to serve command if no subcommand provided
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Run:   runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersion(appName))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, adminCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openDatabase loads config, connects and migrates. Shared by serve and the
// admin commands.
func openDatabase() (*config.Config, *storage.DB) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.AutoSetupDB {
		log.Println("=== Database Setup ===")
		url, err := setup.NewLocalPostgres(cfg).Ensure(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to setup database: %v", err)
		}
		cfg.DatabaseURL = url
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	log.Println("Connecting to database...")
	db, err := storage.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connected")

	log.Println("Running database migrations...")
	if err := runEmbeddedMigrations(db.DB.DB); err != nil {
		db.Close()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete")

	return cfg, db
}

// repositories bundles the Postgres stores used by serve and admin commands
type repositories struct {
	users     *storage.UserRepository
	vineyards *storage.VineyardRepository
	nodes     *storage.NodeRepository
	samples   *storage.SampleRepository
}

func newRepositories(db *storage.DB) *repositories {
	return &repositories{
		users:     storage.NewUserRepository(db),
		vineyards: storage.NewVineyardRepository(db),
		nodes:     storage.NewNodeRepository(db),
		samples:   storage.NewSampleRepository(db),
	}
}

func runServe(cmd *cobra.Command, args []string) {
	log.Printf("=== Plantalytics Server ===")
	log.Printf("%s", version.GetVersion(appName))
	log.Println()

	cfg, db := openDatabase()
	defer db.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	repos := newRepositories(db)

	if cfg.AdminUser != "" {
		if err := seedAdmin(context.Background(), repos.users, cfg.AdminUser, cfg.AdminPassword, cfg.AdminEmail); err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
	}

	// Initialize services
	emailService, err := services.NewEmailService(cfg.ResendAPIKey, cfg.FromEmail, cfg.SkipEmailSend)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	authService := services.NewAuthService(repos.users, repos.vineyards)
	validator := services.NewValidator(repos.users, repos.vineyards, repos.nodes)

	router := api.NewRouter(api.Services{
		Auth:      authService,
		Admin:     services.NewAdminService(authService, validator, repos.users, repos.vineyards, repos.nodes),
		Passwords: services.NewPasswordService(authService, repos.users, emailService, cfg.ResetTokenSecret, cfg.ResetTokenTTL, cfg.FrontendURL),
		Accounts:  services.NewAccountService(authService, repos.users, emailService),
		Env:       services.NewEnvService(authService, repos.vineyards, repos.nodes, repos.samples, cfg.HubKey),
	})

	// Find available port
	port := findAvailableAPIPort(cfg.APIPort)
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, port)

	// Create server
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func runEmbeddedMigrations(db *sql.DB) error {
	// Read all migration files from embedded FS
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort migrations by filename to ensure correct order
	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)

	for _, migration := range migrations {
		log.Printf("Applying migration: %s", migration)

		content, err := migrationsFS.ReadFile(filepath.Join("migrations", migration))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", migration, err)
		}

		// Migrations use IF NOT EXISTS, so reapplying is a no-op
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration, err)
		}
	}

	return nil
}

// isPortAvailable checks if a port is available for binding
func isPortAvailable(port string) bool {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return false // Port in use
	}
	ln.Close()
	return true // Port available
}

// findAvailableAPIPort finds an available port for the API server
func findAvailableAPIPort(preferredPort string) string {
	// Try preferred port first
	if isPortAvailable(preferredPort) {
		log.Printf("✓ Port %s available", preferredPort)
		return preferredPort
	}

	log.Printf("Port %s in use, trying alternatives...", preferredPort)

	startPort := 8080
	if p, err := strconv.Atoi(preferredPort); err == nil {
		startPort = p
	}

	// Try next 20 ports
	for i := 1; i <= 20; i++ {
		portStr := strconv.Itoa(startPort + i)
		if isPortAvailable(portStr) {
			log.Printf("✓ Found available port: %s", portStr)
			return portStr
		}
	}

	// No ports available, return preferred (will fail with clear error)
	log.Printf("⚠️  No available ports found, will attempt %s", preferredPort)
	return preferredPort
}
