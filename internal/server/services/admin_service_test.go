package services

import (
	"context"
	"testing"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }

func newUserInfo(username string) models.NewUserInfo {
	return models.NewUserInfo{
		Username:   username,
		Password:   "grapes",
		Email:      username + "@example.com",
		SubEndDate: "2100-01-01",
		UserID:     "500",
	}
}

func TestAdminService_CreateUser(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addVineyard(t, 1, "North")
	token := env.login(t, "root", "rootpw")
	ctx := context.Background()

	info := newUserInfo("grower")
	info.Vineyards = []models.FlexString{"1"}

	user, err := env.admin.CreateUser(ctx, token, "root", info)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.UserID != 500 || !user.IsEnabled || user.IsAdmin {
		t.Errorf("Unexpected user: %+v", user)
	}

	stored := env.user(t, "grower")
	if stored.PasswordHash == "grapes" || !utils.CheckPassword(stored.PasswordHash, "grapes") {
		t.Error("Password should be stored as a bcrypt hash")
	}
	if !stored.HasVineyard(1) {
		t.Error("User should be linked to vineyard 1")
	}
}

func TestAdminService_CreateUser_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	token := env.login(t, "root", "rootpw")
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*models.NewUserInfo)
		code   string
	}{
		{"bad username", func(i *models.NewUserInfo) { i.Username = "bad name" }, CodeUsernameInvalid},
		{"taken username", func(i *models.NewUserInfo) { i.Username = "root" }, CodeUsernameTaken},
		{"negative id", func(i *models.NewUserInfo) { i.UserID = "-1" }, CodeUserIDInvalid},
		{"missing id", func(i *models.NewUserInfo) { i.UserID = "" }, CodeUserIDInvalid},
		{"bad email", func(i *models.NewUserInfo) { i.Email = "nope" }, CodeEmailInvalid},
		{"empty password", func(i *models.NewUserInfo) { i.Password = "" }, CodeResetPassword},
		{"bad date", func(i *models.NewUserInfo) { i.SubEndDate = "2100-01-01-extra" }, CodeSubDateInvalid},
		{"past date", func(i *models.NewUserInfo) { i.SubEndDate = "2000-01-01" }, CodeSubDateInvalid},
		{"unknown vineyard", func(i *models.NewUserInfo) { i.Vineyards = []models.FlexString{"99"} }, CodeVineyardNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := newUserInfo("newuser")
			tt.modify(&info)

			_, err := env.admin.CreateUser(ctx, token, "root", info)
			assertCode(t, err, tt.code)
		})
	}

	_, err := env.admin.CreateUser(ctx, "bogus", "root", newUserInfo("newuser"))
	assertCode(t, err, CodeAdminInvalid)
}

func TestAdminService_GetUserInfo(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addUser(t, "alice", "secret", false)
	token := env.login(t, "root", "rootpw")
	ctx := context.Background()

	info, err := env.admin.GetUserInfo(ctx, token, "root", "alice")
	if err != nil {
		t.Fatalf("GetUserInfo failed: %v", err)
	}
	if info.Email != "alice@example.com" || info.SubEndDate != "2100-01-01" {
		t.Errorf("Unexpected info: %+v", info)
	}

	self, err := env.admin.GetUserInfo(ctx, token, "root", "")
	if err != nil || self.Username != "root" {
		t.Errorf("Empty username should return the admin, got %+v, %v", self, err)
	}

	_, err = env.admin.GetUserInfo(ctx, token, "root", "ghost")
	assertCode(t, err, CodeUsernameNotFound)

	userToken := env.login(t, "alice", "secret")
	_, err = env.admin.GetUserInfo(ctx, userToken, "alice", "alice")
	assertCode(t, err, CodeAdminInvalid)
}

func TestAdminService_ListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addUser(t, "alice", "secret", false)
	token := env.login(t, "root", "rootpw")

	users, err := env.admin.ListUsers(context.Background(), token, "")
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" {
		t.Errorf("Unexpected users: %+v", users)
	}
}

func TestAdminService_EditUser(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addUser(t, "alice", "secret", false)
	env.addVineyard(t, 4, "Four")
	token := env.login(t, "root", "rootpw")
	aliceToken := env.login(t, "alice", "secret")
	ctx := context.Background()

	vineyards := []models.FlexString{"4"}
	err := env.admin.EditUser(ctx, token, "root", "alice", models.EditUserInfo{
		Email:     strPtr("new@example.com"),
		Admin:     boolPtr(true),
		Vineyards: &vineyards,
	})
	if err != nil {
		t.Fatalf("EditUser failed: %v", err)
	}

	alice := env.user(t, "alice")
	if alice.Email != "new@example.com" || !alice.IsAdmin || !alice.HasVineyard(4) {
		t.Errorf("Edit not applied: %+v", alice)
	}
	if _, err := env.auth.VerifyToken(ctx, aliceToken); err != nil {
		t.Errorf("Editing an enabled user should keep the session: %v", err)
	}

	err = env.admin.EditUser(ctx, token, "root", "alice", models.EditUserInfo{Enabled: boolPtr(false)})
	if err != nil {
		t.Fatalf("EditUser failed: %v", err)
	}
	if _, err := env.auth.VerifyToken(ctx, aliceToken); err == nil {
		t.Error("Disabling through edit should revoke the session")
	}

	err = env.admin.EditUser(ctx, token, "root", "alice", models.EditUserInfo{SubEndDate: strPtr("2100/01/01")})
	assertCode(t, err, CodeSubDateInvalid)
}

func TestAdminService_UpdateSubscription(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addUser(t, "alice", "secret", false)
	token := env.login(t, "root", "rootpw")
	ctx := context.Background()

	if err := env.admin.UpdateSubscription(ctx, token, "root", "alice", "2099-05-01"); err != nil {
		t.Fatalf("UpdateSubscription failed: %v", err)
	}
	alice := env.user(t, "alice")
	if got := alice.SubscriptionEndDate.Format(models.DateLayout); got != "2099-05-01" {
		t.Errorf("Expected 2099-05-01, got %s", got)
	}

	yesterday := time.Now().AddDate(0, 0, -1).Format(models.DateLayout)
	assertCode(t, env.admin.UpdateSubscription(ctx, token, "root", "alice", yesterday), CodeSubDateInvalid)
}

func TestAdminService_DisableUser_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addUser(t, "alice", "secret", false)
	token := env.login(t, "root", "rootpw")
	aliceToken := env.login(t, "alice", "secret")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := env.admin.DisableUser(ctx, token, "root", "alice"); err != nil {
			t.Fatalf("DisableUser call %d failed: %v", i+1, err)
		}
	}

	if env.user(t, "alice").IsEnabled {
		t.Error("User should be disabled")
	}
	_, err := env.auth.VerifyToken(ctx, aliceToken)
	assertCode(t, err, CodeAuthNotFound)

	_, err = env.auth.Login(ctx, "alice", "secret")
	assertCode(t, err, CodeAuthDisabled)
}

func TestAdminService_Vineyards(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addUser(t, "grower", "grapes", false)
	token := env.login(t, "root", "rootpw")
	ctx := context.Background()

	vineyard, err := env.admin.CreateVineyard(ctx, token, models.NewVineyardInfo{
		VineyardID: "10",
		Name:       "Hillside",
		Owners:     []string{"grower"},
		Center:     models.Point{Lat: 45.3, Lon: -123.1},
		Boundaries: []models.Point{{Lat: 45.2, Lon: -123.2}, {Lat: 45.4, Lon: -123.0}},
	})
	if err != nil {
		t.Fatalf("CreateVineyard failed: %v", err)
	}
	if !vineyard.IsEnabled {
		t.Error("New vineyard should default to enabled")
	}
	if !env.user(t, "grower").HasVineyard(10) {
		t.Error("Owner should be linked to the vineyard")
	}

	_, err = env.admin.RegisterNode(ctx, token, models.NewNodeRequest{
		NodeID: "100", VineyardID: "10", HubID: "1",
		Location: models.Point{Lat: 45.3, Lon: -123.1},
	})
	if err != nil {
		t.Fatalf("RegisterNode failed: %v", err)
	}

	info, err := env.admin.GetVineyardInfo(ctx, token, "10")
	if err != nil {
		t.Fatalf("GetVineyardInfo failed: %v", err)
	}
	if len(info.Users) != 1 || info.Users[0] != "grower" || len(info.Nodes) != 1 || len(info.Boundaries) != 2 {
		t.Errorf("Unexpected vineyard info: %+v", info)
	}

	err = env.admin.EditVineyard(ctx, token, "10", models.EditVineyardInfo{Name: strPtr("Hilltop")})
	if err != nil {
		t.Fatalf("EditVineyard failed: %v", err)
	}

	list, err := env.admin.ListVineyards(ctx, token)
	if err != nil || len(list) != 1 || list[0].Name != "Hilltop" {
		t.Errorf("Unexpected list: %+v, %v", list, err)
	}

	tests := []struct {
		name string
		info models.NewVineyardInfo
		code string
	}{
		{"duplicate id", models.NewVineyardInfo{VineyardID: "10", Name: "x"}, CodeVineyardIDInvalid},
		{"negative id", models.NewVineyardInfo{VineyardID: "-1", Name: "x"}, CodeVineyardIDInvalid},
		{"no name", models.NewVineyardInfo{VineyardID: "11"}, CodeVineyardNameInvalid},
		{"bad center", models.NewVineyardInfo{VineyardID: "11", Name: "x", Center: models.Point{Lat: 100}}, CodeVineyardCoordsInvalid},
		{"unknown owner", models.NewVineyardInfo{VineyardID: "11", Name: "x", Owners: []string{"ghost"}}, CodeVineyardOwnerInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.admin.CreateVineyard(ctx, token, tt.info)
			assertCode(t, err, tt.code)
		})
	}

	_, err = env.admin.RegisterNode(ctx, token, models.NewNodeRequest{NodeID: "100", VineyardID: "10", HubID: "1"})
	assertCode(t, err, CodeNodeIDInvalid)
	_, err = env.admin.GetVineyardInfo(ctx, token, "77")
	assertCode(t, err, CodeVineyardNotFound)
}

func TestAdminService_DisableVineyard_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addVineyard(t, 3, "Three")
	token := env.login(t, "root", "rootpw")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := env.admin.DisableVineyard(ctx, token, "3"); err != nil {
			t.Fatalf("DisableVineyard call %d failed: %v", i+1, err)
		}
	}

	v, _ := env.store.Vineyards().GetByID(ctx, 3)
	if v.IsEnabled {
		t.Error("Vineyard should be disabled")
	}

	assertCode(t, env.admin.DisableVineyard(ctx, token, "abc"), CodeVineyardBadID)
}

// racingUsers stores rival right before the real insert, the way a
// concurrent request can between validation and Create.
type racingUsers struct {
	UserStore
	rival *models.User
}

func (r racingUsers) Create(ctx context.Context, user *models.User) error {
	r.UserStore.Create(ctx, r.rival)
	return r.UserStore.Create(ctx, user)
}

type racingVineyards struct {
	VineyardStore
	rival *models.Vineyard
}

func (r racingVineyards) Create(ctx context.Context, vineyard *models.Vineyard) error {
	r.VineyardStore.Create(ctx, r.rival)
	return r.VineyardStore.Create(ctx, vineyard)
}

type racingNodes struct {
	NodeStore
	rival *models.HardwareNode
}

func (r racingNodes) Create(ctx context.Context, node *models.HardwareNode) error {
	r.NodeStore.Create(ctx, r.rival)
	return r.NodeStore.Create(ctx, node)
}

func TestAdminService_CreateAfterLostInsertRace(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addVineyard(t, 1, "North")
	token := env.login(t, "root", "rootpw")
	ctx := context.Background()

	users, vineyards, nodes := env.store.Users(), env.store.Vineyards(), env.store.Nodes()
	validator := NewValidator(users, vineyards, nodes)

	t.Run("username taken", func(t *testing.T) {
		rival := &models.User{UserID: 900, Username: "grower1", SubscriptionEndDate: time.Now().AddDate(1, 0, 0)}
		admin := NewAdminService(env.auth, validator, racingUsers{users, rival}, vineyards, nodes)

		info := newUserInfo("grower1")
		_, err := admin.CreateUser(ctx, token, "root", info)
		assertCode(t, err, CodeUsernameTaken)
	})

	t.Run("user id taken", func(t *testing.T) {
		rival := &models.User{UserID: 501, Username: "rival2", SubscriptionEndDate: time.Now().AddDate(1, 0, 0)}
		admin := NewAdminService(env.auth, validator, racingUsers{users, rival}, vineyards, nodes)

		info := newUserInfo("grower2")
		info.UserID = "501"
		_, err := admin.CreateUser(ctx, token, "root", info)
		assertCode(t, err, CodeUserIDInvalid)
	})

	t.Run("vineyard id taken", func(t *testing.T) {
		rival := &models.Vineyard{VineyardID: 20, Name: "Rival", IsEnabled: true}
		admin := NewAdminService(env.auth, validator, users, racingVineyards{vineyards, rival}, nodes)

		_, err := admin.CreateVineyard(ctx, token, models.NewVineyardInfo{VineyardID: "20", Name: "Valley"})
		assertCode(t, err, CodeVineyardIDInvalid)

		stored, _ := vineyards.GetByID(ctx, 20)
		if stored == nil || stored.Name != "Rival" {
			t.Errorf("Rival vineyard should be kept, got %+v", stored)
		}
	})

	t.Run("node id taken", func(t *testing.T) {
		rival := &models.HardwareNode{NodeID: 300, VineyardID: 1, HubID: 2}
		admin := NewAdminService(env.auth, validator, users, vineyards, racingNodes{nodes, rival})

		_, err := admin.RegisterNode(ctx, token, models.NewNodeRequest{
			NodeID: "300", VineyardID: "1", HubID: "1",
			Location: models.Point{Lat: 45.3, Lon: -123.1},
		})
		assertCode(t, err, CodeNodeIDInvalid)
	})
}
