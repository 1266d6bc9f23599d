package setup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/plantalytics/plantalytics-backend/internal/server/config"
)

const (
	postgresImage = "postgres:15-alpine"
	// portSearchRange is how many host ports after the preferred one are tried
	portSearchRange = 18
	readyAttempts   = 30
)

// errDockerMissing is returned when auto setup is requested without Docker.
var errDockerMissing = errors.New(`Docker is required for automatic database setup.

Please install Docker:
  curl -fsSL https://get.docker.com | sh

Or set DATABASE_URL to an existing database.`)

// LocalPostgres runs a development database in a named Docker container and
// reuses it across restarts.
type LocalPostgres struct {
	User      string
	Password  string
	Database  string
	Container string
	Port      int

	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
	portFree func(port int) bool
	ping     func(ctx context.Context, databaseURL string) bool
	wait     time.Duration
}

func NewLocalPostgres(cfg *config.Config) *LocalPostgres {
	return &LocalPostgres{
		User:      cfg.PostgresUser,
		Password:  cfg.PostgresPassword,
		Database:  cfg.PostgresDB,
		Container: cfg.PostgresContainer,
		Port:      cfg.PostgresPort,
		run:       runCommand,
		portFree:  isPortAvailable,
		ping:      isDatabaseAccessible,
		wait:      time.Second,
	}
}

// URL is the connection string for the container published on port.
func (p *LocalPostgres) URL(port int) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort("localhost", strconv.Itoa(port)),
		Path:     "/" + p.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Ensure returns a reachable database URL. A working databaseURL is used as
// is; otherwise the container is started (or created) and its URL returned.
func (p *LocalPostgres) Ensure(ctx context.Context, databaseURL string) (string, error) {
	log.Println("Checking database configuration...")

	if databaseURL != "" {
		if p.ping(ctx, databaseURL) {
			log.Println("✓ Database already configured and accessible")
			return databaseURL, nil
		}
		log.Println("DATABASE_URL set but database not accessible, will try to setup...")
	}

	if p.Password == "" {
		return "", errors.New("POSTGRES_PASSWORD must be set to start a local database")
	}

	if _, err := p.run(ctx, "docker", "--version"); err != nil {
		return "", errDockerMissing
	}
	log.Println("✓ Docker is installed")

	var port int
	switch state := p.containerState(ctx); state {
	case "running":
		port = p.publishedPort(ctx)
		log.Printf("✓ PostgreSQL container already running on port %d", port)
		return p.URL(port), nil
	case "":
		port = p.choosePort()
		log.Printf("Starting PostgreSQL container on port %d...", port)
		if out, err := p.run(ctx, "docker", p.runArgs(port)...); err != nil {
			return "", fmt.Errorf("docker run failed: %w\nOutput: %s", err, out)
		}
	default:
		log.Printf("Starting existing PostgreSQL container (%s)...", state)
		if _, err := p.run(ctx, "docker", "start", p.Container); err != nil {
			return "", fmt.Errorf("failed to start existing container: %w", err)
		}
		port = p.publishedPort(ctx)
	}

	log.Println("Waiting for PostgreSQL to be ready...")
	if err := p.waitReady(ctx); err != nil {
		return "", err
	}

	log.Println("✓ Database setup complete")
	return p.URL(port), nil
}

// containerState is docker's state for the container ("running", "exited",
// ...) or "" when it does not exist.
func (p *LocalPostgres) containerState(ctx context.Context) string {
	out, err := p.run(ctx, "docker", "ps", "-a",
		"--filter", fmt.Sprintf("name=^/%s$", p.Container),
		"--format", "{{.State}}")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// publishedPort falls back to the configured port if docker cannot tell.
func (p *LocalPostgres) publishedPort(ctx context.Context) int {
	out, err := p.run(ctx, "docker", "port", p.Container, "5432")
	if err != nil {
		return p.Port
	}
	if port, ok := parsePublishedPort(string(out)); ok {
		return port
	}
	return p.Port
}

// parsePublishedPort reads the host port from `docker port` output such as
// "0.0.0.0:5433\n[::]:5433".
func parsePublishedPort(out string) (int, bool) {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(out), "\n", 2)[0])
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return 0, false
	}
	port, err := strconv.Atoi(line[idx+1:])
	if err != nil || port <= 0 {
		return 0, false
	}
	return port, true
}

// choosePort returns the first free port from the preferred one upward, or
// the preferred port if none is free.
func (p *LocalPostgres) choosePort() int {
	for port := p.Port; port <= p.Port+portSearchRange; port++ {
		if p.portFree(port) {
			return port
		}
	}
	log.Printf("⚠️  No available ports found between %d-%d, will attempt %d", p.Port, p.Port+portSearchRange, p.Port)
	return p.Port
}

func (p *LocalPostgres) runArgs(port int) []string {
	return []string{
		"run", "-d",
		"--name", p.Container,
		"-e", "POSTGRES_USER=" + p.User,
		"-e", "POSTGRES_PASSWORD=" + p.Password,
		"-e", "POSTGRES_DB=" + p.Database,
		"-p", fmt.Sprintf("%d:5432", port),
		"--restart", "unless-stopped",
		postgresImage,
	}
}

func (p *LocalPostgres) waitReady(ctx context.Context) error {
	for i := 0; i < readyAttempts; i++ {
		if _, err := p.run(ctx, "docker", "exec", p.Container, "pg_isready", "-U", p.User); err == nil {
			log.Println("✓ PostgreSQL is ready")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.wait):
		}
	}
	return fmt.Errorf("PostgreSQL did not become ready after %d attempts", readyAttempts)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func isDatabaseAccessible(ctx context.Context, databaseURL string) bool {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return false
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx) == nil
}

func isPortAvailable(port int) bool {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
