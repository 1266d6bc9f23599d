package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/plantalytics/plantalytics-backend/pkg/utils"
)

func passwordMatches(t *testing.T, env *testEnv, username, password string) bool {
	t.Helper()
	return utils.CheckPassword(env.user(t, username).PasswordHash, password)
}

func TestPasswordService_SelfChange(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "secret", false)
	token := env.login(t, "alice", "secret")
	ctx := context.Background()

	err := env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		AuthToken: token, Old: "wrong", Password: "newpass",
	})
	assertCode(t, err, CodeLoginError)

	err = env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		AuthToken: token, Old: "secret", Password: "newpass",
	})
	if err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if !passwordMatches(t, env, "alice", "newpass") {
		t.Error("New password should be stored")
	}

	_, err = env.auth.VerifyToken(ctx, token)
	assertCode(t, err, CodeAuthNotFound)
}

func TestPasswordService_AdminChange(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "rootpw", true)
	env.addUser(t, "alice", "secret", false)
	adminToken := env.login(t, "root", "rootpw")
	aliceToken := env.login(t, "alice", "secret")
	ctx := context.Background()

	err := env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		AuthToken: adminToken, Username: "alice", Password: "reset1",
	})
	if err != nil {
		t.Fatalf("Admin ChangePassword failed: %v", err)
	}
	if !passwordMatches(t, env, "alice", "reset1") {
		t.Error("Admin should have set alice's password")
	}
	if _, err := env.auth.VerifyToken(ctx, aliceToken); err == nil {
		t.Error("Target's session should be revoked")
	}
	if _, err := env.auth.VerifyToken(ctx, adminToken); err != nil {
		t.Errorf("Admin's own session should survive: %v", err)
	}

	err = env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		AuthToken: adminToken, Password: "reset1",
	})
	assertCode(t, err, CodeResetUsername)

	err = env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		AuthToken: adminToken, Username: "alice", Password: "",
	})
	assertCode(t, err, CodeResetPassword)
}

func TestPasswordService_NonAdminCannotTargetOthers(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "secret", false)
	env.addUser(t, "bob", "bobpw", false)
	token := env.login(t, "alice", "secret")

	err := env.passwords.ChangePassword(context.Background(), models.PasswordChangeRequest{
		AuthToken: token, Username: "bob", Password: "owned",
	})
	assertCode(t, err, CodeLoginError)

	if !passwordMatches(t, env, "bob", "bobpw") {
		t.Error("Bob's password should be unchanged")
	}
}

func TestPasswordService_ResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "secret", false)
	ctx := context.Background()

	assertCode(t, env.passwords.RequestReset(ctx, "ghost"), CodeLoginError)
	assertCode(t, env.passwords.RequestReset(ctx, ""), CodeLoginError)

	if err := env.passwords.RequestReset(ctx, "alice"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}

	sent := env.mailer.messages()
	if len(sent) != 1 || sent[0].to != "alice@example.com" {
		t.Fatalf("Expected one reset mail to alice, got %+v", sent)
	}
	if !strings.HasPrefix(sent[0].body, "http://localhost:3000/password/reset?") {
		t.Errorf("Unexpected reset link: %s", sent[0].body)
	}

	link, err := url.Parse(sent[0].body)
	if err != nil {
		t.Fatalf("Failed to parse link: %v", err)
	}
	resetToken := link.Query().Get("token")

	err = env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		Token: resetToken, Username: "bob", Password: "stolen",
	})
	assertCode(t, err, CodeLoginError)

	err = env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		Token: resetToken, Username: "alice", Password: "fresh",
	})
	if err != nil {
		t.Fatalf("Reset ChangePassword failed: %v", err)
	}
	if !passwordMatches(t, env, "alice", "fresh") {
		t.Error("Reset should set the new password")
	}
}

func TestPasswordService_ResetLinkSingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "secret", false)
	ctx := context.Background()

	if err := env.passwords.RequestReset(ctx, "alice"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	link, err := url.Parse(env.mailer.messages()[0].body)
	if err != nil {
		t.Fatalf("Failed to parse link: %v", err)
	}
	resetToken := link.Query().Get("token")

	err = env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		Token: resetToken, Username: "alice", Password: "first",
	})
	if err != nil {
		t.Fatalf("First reset failed: %v", err)
	}

	err = env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		Token: resetToken, Username: "alice", Password: "attacker",
	})
	assertCode(t, err, CodeLoginError)
	if !passwordMatches(t, env, "alice", "first") {
		t.Error("Reused link must not change the password")
	}
}

func TestPasswordService_ResetLinkStaleAfterSelfChange(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "secret", false)
	ctx := context.Background()

	if err := env.passwords.RequestReset(ctx, "alice"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	link, _ := url.Parse(env.mailer.messages()[0].body)
	resetToken := link.Query().Get("token")

	token := env.login(t, "alice", "secret")
	err := env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		AuthToken: token, Old: "secret", Password: "owner-choice",
	})
	if err != nil {
		t.Fatalf("Self change failed: %v", err)
	}

	err = env.passwords.ChangePassword(ctx, models.PasswordChangeRequest{
		Token: resetToken, Username: "alice", Password: "attacker",
	})
	assertCode(t, err, CodeLoginError)
}

func TestPasswordService_ResetMailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "secret", false)
	env.mailer.err = errors.New("smtp down")

	assertCode(t, env.passwords.RequestReset(context.Background(), "alice"), CodeEmailError)
}

func TestPasswordService_ExpiredResetToken(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "secret", false)

	token, err := utils.GenerateResetToken("alice", env.user(t, "alice").PasswordHash, "reset-secret", -time.Minute)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	err = env.passwords.ChangePassword(context.Background(), models.PasswordChangeRequest{
		Token: token, Username: "alice", Password: "fresh",
	})
	assertCode(t, err, CodeLoginError)
}

func TestAccountService_ChangeEmail(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "secret", false)
	token := env.login(t, "alice", "secret")
	ctx := context.Background()

	assertCode(t, env.accounts.ChangeEmail(ctx, "", "a@b.co"), CodeAuthNoToken)
	assertCode(t, env.accounts.ChangeEmail(ctx, token, "bad"), CodeEmailInvalid)

	if err := env.accounts.ChangeEmail(ctx, token, "alice@vineyard.com"); err != nil {
		t.Fatalf("ChangeEmail failed: %v", err)
	}
	if got := env.user(t, "alice").Email; got != "alice@vineyard.com" {
		t.Errorf("Expected new email, got %s", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(env.mailer.messages()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	sent := env.mailer.messages()
	if len(sent) != 1 || sent[0].to != "alice@example.com" {
		t.Errorf("Expected notice to the old address, got %+v", sent)
	}
}
