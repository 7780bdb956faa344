package users

import (
	"context"
	"errors"
	"testing"

	"github.com/xelth-com/stockflow/internal/config"
	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

func newService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	return NewService(database.NewTestDB(t), cfg)
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *utils.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError %s, got %v", code, err)
	}
	if apiErr.Code != code {
		t.Errorf("Expected code %s, got %s", code, apiErr.Code)
	}
}

func TestRegisterRoles(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "Sam@Example.com", Password: "password1", Name: "Sam", Role: models.RoleAdmin}, "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Errorf("Public registration must yield USER, got %s", user.Role)
	}
	if user.Email != "sam@example.com" {
		t.Errorf("Expected normalised email, got %s", user.Email)
	}
	if user.Password == "password1" {
		t.Errorf("Password stored in clear")
	}

	worker, err := svc.Register(ctx, RegisterInput{Email: "w@example.com", Password: "password1", Name: "Wen", Role: models.RoleWorker2}, models.RoleAdmin)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if worker.Role != models.RoleWorker2 {
		t.Errorf("Admin should set role, got %s", worker.Role)
	}

	_, err = svc.Register(ctx, RegisterInput{Email: "sam@example.com", Password: "password2", Name: "Other"}, "")
	expectCode(t, err, "EMAIL_EXISTS")
}

func TestLoginAndRefresh(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "kim@example.com", Password: "password1", Name: "Kim"}, "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err = svc.Login(ctx, LoginInput{Email: "kim@example.com", Password: "wrong-pass"})
	expectCode(t, err, "INVALID_CREDENTIALS")
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "password1"})
	expectCode(t, err, "INVALID_CREDENTIALS")

	session, err := svc.Login(ctx, LoginInput{Email: "KIM@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.User.LastLogin == nil {
		t.Errorf("Expected last login to be set")
	}

	claims, err := utils.ValidateAccessToken(session.Tokens.AccessToken, "test-secret")
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims["role"] != "USER" || claims["id"] != user.ID {
		t.Errorf("Unexpected claims: %v", claims)
	}

	if _, err := svc.SetRole(ctx, user.ID, models.RoleWorker1); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	refreshed, err := svc.Refresh(ctx, session.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	claims, _ = utils.ValidateAccessToken(refreshed.Tokens.AccessToken, "test-secret")
	if claims["role"] != "WORKER1" {
		t.Errorf("Expected refreshed role WORKER1, got %v", claims["role"])
	}

	if _, err := svc.Refresh(ctx, session.Tokens.AccessToken); !errors.Is(err, utils.ErrUnauthorized) {
		t.Errorf("Access token must not refresh, got %v", err)
	}
}

func TestSetRoleValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "lee@example.com", Password: "password1", Name: "Lee"}, "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err = svc.SetRole(ctx, user.ID, "OWNER")
	expectCode(t, err, "VALIDATION_ERROR")
	_, err = svc.SetRole(ctx, "missing", models.RoleAdmin)
	expectCode(t, err, "USER_NOT_FOUND")

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 user, got %d", len(list))
	}
}
