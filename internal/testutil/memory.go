package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

// MemoryStore is an in-memory stand-in for the Postgres repositories.
// Users, Vineyards, Nodes and Samples each satisfy the matching
// service store interface.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[int64]models.User
	vineyards map[int64]models.Vineyard
	nodes     map[int64]models.HardwareNode
	samples   []models.EnvironmentalSample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int64]models.User),
		vineyards: make(map[int64]models.Vineyard),
		nodes:     make(map[int64]models.HardwareNode),
	}
}

func (m *MemoryStore) Users() *MemoryUsers         { return &MemoryUsers{m} }
func (m *MemoryStore) Vineyards() *MemoryVineyards { return &MemoryVineyards{m} }
func (m *MemoryStore) Nodes() *MemoryNodes         { return &MemoryNodes{m} }
func (m *MemoryStore) Samples() *MemorySamples     { return &MemorySamples{m} }

// SampleCount returns how many samples have been stored
func (m *MemoryStore) SampleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}

func copyUser(u models.User) *models.User {
	u.VineyardIDs = append(u.VineyardIDs[:0:0], u.VineyardIDs...)
	if u.SecurityToken != nil {
		token := *u.SecurityToken
		u.SecurityToken = &token
	}
	return &u
}

type MemoryUsers struct{ m *MemoryStore }

func (r *MemoryUsers) Create(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[user.UserID]; ok {
		return &models.DuplicateError{Column: "user_id"}
	}
	for _, u := range r.m.users {
		if u.Username == user.Username {
			return &models.DuplicateError{Column: "username"}
		}
	}
	user.CreatedAt = time.Now()
	r.m.users[user.UserID] = *copyUser(*user)
	return nil
}

func (r *MemoryUsers) find(match func(models.User) bool) *models.User {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if match(u) {
			return copyUser(u)
		}
	}
	return nil
}

func (r *MemoryUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username }), nil
}

func (r *MemoryUsers) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.UserID == userID }), nil
}

func (r *MemoryUsers) GetByTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	return r.find(func(u models.User) bool {
		return u.SecurityToken != nil && *u.SecurityToken == tokenHash
	}), nil
}

func (r *MemoryUsers) list(match func(models.User) bool) []models.User {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	users := []models.User{}
	for _, u := range r.m.users {
		if match(u) {
			users = append(users, *copyUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

func (r *MemoryUsers) ListAll(ctx context.Context) ([]models.User, error) {
	return r.list(func(models.User) bool { return true }), nil
}

func (r *MemoryUsers) ListByVineyard(ctx context.Context, vineyardID int64) ([]models.User, error) {
	return r.list(func(u models.User) bool { return u.HasVineyard(vineyardID) }), nil
}

func (r *MemoryUsers) modify(userID int64, apply func(*models.User)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[userID]
	if !ok {
		return nil
	}
	apply(&u)
	r.m.users[userID] = u
	return nil
}

func (r *MemoryUsers) Update(ctx context.Context, user *models.User) error {
	return r.modify(user.UserID, func(u *models.User) {
		u.Email = user.Email
		u.IsAdmin = user.IsAdmin
		u.IsEnabled = user.IsEnabled
		u.SubscriptionEndDate = user.SubscriptionEndDate
		u.VineyardIDs = append(user.VineyardIDs[:0:0], user.VineyardIDs...)
	})
}

func (r *MemoryUsers) SetToken(ctx context.Context, userID int64, tokenHash *string) error {
	return r.modify(userID, func(u *models.User) {
		if tokenHash == nil {
			u.SecurityToken = nil
			return
		}
		token := *tokenHash
		u.SecurityToken = &token
	})
}

func (r *MemoryUsers) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.modify(userID, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.SecurityToken = nil
	})
}

func (r *MemoryUsers) SetEmail(ctx context.Context, userID int64, email string) error {
	return r.modify(userID, func(u *models.User) { u.Email = email })
}

func (r *MemoryUsers) SetSubscription(ctx context.Context, userID int64, endDate time.Time) error {
	return r.modify(userID, func(u *models.User) { u.SubscriptionEndDate = endDate })
}

func (r *MemoryUsers) SetEnabled(ctx context.Context, userID int64, enabled bool) error {
	return r.modify(userID, func(u *models.User) { u.IsEnabled = enabled })
}

type MemoryVineyards struct{ m *MemoryStore }

func (r *MemoryVineyards) Create(ctx context.Context, vineyard *models.Vineyard) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.vineyards[vineyard.VineyardID]; ok {
		return &models.DuplicateError{Column: "vineyard_id"}
	}
	vineyard.CreatedAt = time.Now()
	r.m.vineyards[vineyard.VineyardID] = *vineyard
	return nil
}

func (r *MemoryVineyards) GetByID(ctx context.Context, vineyardID int64) (*models.Vineyard, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	v, ok := r.m.vineyards[vineyardID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *MemoryVineyards) ListAll(ctx context.Context) ([]models.Vineyard, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	vineyards := []models.Vineyard{}
	for _, v := range r.m.vineyards {
		vineyards = append(vineyards, v)
	}
	sort.Slice(vineyards, func(i, j int) bool { return vineyards[i].VineyardID < vineyards[j].VineyardID })
	return vineyards, nil
}

func (r *MemoryVineyards) ListByIDs(ctx context.Context, ids []int64) ([]models.Vineyard, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	vineyards := []models.Vineyard{}
	seen := make(map[int64]bool)
	for _, id := range ids {
		if v, ok := r.m.vineyards[id]; ok && !seen[id] {
			seen[id] = true
			vineyards = append(vineyards, v)
		}
	}
	sort.Slice(vineyards, func(i, j int) bool { return vineyards[i].VineyardID < vineyards[j].VineyardID })
	return vineyards, nil
}

func (r *MemoryVineyards) Update(ctx context.Context, vineyard *models.Vineyard) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.vineyards[vineyard.VineyardID]; ok {
		r.m.vineyards[vineyard.VineyardID] = *vineyard
	}
	return nil
}

func (r *MemoryVineyards) SetEnabled(ctx context.Context, vineyardID int64, enabled bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if v, ok := r.m.vineyards[vineyardID]; ok {
		v.IsEnabled = enabled
		r.m.vineyards[vineyardID] = v
	}
	return nil
}

type MemoryNodes struct{ m *MemoryStore }

func (r *MemoryNodes) Create(ctx context.Context, node *models.HardwareNode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.nodes[node.NodeID]; ok {
		return &models.DuplicateError{Column: "node_id"}
	}
	node.CreatedAt = time.Now()
	r.m.nodes[node.NodeID] = *node
	return nil
}

func (r *MemoryNodes) GetByID(ctx context.Context, nodeID int64) (*models.HardwareNode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	n, ok := r.m.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (r *MemoryNodes) ListByVineyard(ctx context.Context, vineyardID int64) ([]models.HardwareNode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	nodes := []models.HardwareNode{}
	for _, n := range r.m.nodes {
		if n.VineyardID == vineyardID {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].NodeID < nodes[j].NodeID })
	return nodes, nil
}

type MemorySamples struct{ m *MemoryStore }

func (r *MemorySamples) InsertBatch(ctx context.Context, samples []models.EnvironmentalSample) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, s := range samples {
		s.ID = int64(len(r.m.samples) + 1)
		r.m.samples = append(r.m.samples, s)
	}
	return nil
}

func (r *MemorySamples) LatestByVineyard(ctx context.Context, vineyardID int64, variable string) ([]models.NodeReading, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	latest := make(map[int64]models.EnvironmentalSample)
	for _, s := range r.m.samples {
		node, ok := r.m.nodes[s.NodeID]
		if !ok || node.VineyardID != vineyardID {
			continue
		}
		if cur, ok := latest[s.NodeID]; !ok || s.DataSent > cur.DataSent {
			latest[s.NodeID] = s
		}
	}

	readings := []models.NodeReading{}
	for nodeID, s := range latest {
		reading := models.NodeReading{
			NodeID:   nodeID,
			Location: r.m.nodes[nodeID].Location,
			DataSent: s.DataSent,
		}
		switch variable {
		case "temperature":
			reading.Value = s.Temperature
		case "humidity":
			reading.Value = s.Humidity
		case "leafwetness":
			reading.Value = s.LeafWetness
		default:
			return nil, errors.New("unknown env variable")
		}
		readings = append(readings, reading)
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].NodeID < readings[j].NodeID })
	return readings, nil
}
