package services

import (
	"context"
	"errors"
	"testing"

	"campus-aid-buddy/internal/config"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/logger"
)

var testJWT = config.JWTConfig{
	Secret:           "access-secret-for-tests",
	RefreshSecret:    "refresh-secret-for-tests",
	AccessTokenMins:  15,
	RefreshTokenDays: 7,
}

func newTestAuth() (*AuthService, *memUserRepo, *memRefreshRepo) {
	users, tokens := newMemUserRepo(), newMemRefreshRepo()
	return NewAuthService(users, tokens, testJWT, logger.Nop()), users, tokens
}

func studentRegistration() *RegisterInput {
	return &RegisterInput{
		Email:      "  Asha@Campus.edu ",
		Password:   "secret123",
		Name:       "Asha",
		Department: "Computer Science",
		RollNumber: "CS21B001",
	}
}

func TestRegisterStudentIssuesTokens(t *testing.T) {
	ctx := context.Background()
	auth, _, tokens := newTestAuth()

	resp, err := auth.Register(ctx, studentRegistration(), nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Email != "asha@campus.edu" || resp.User.Role != domain.RoleStudent {
		t.Fatalf("user = %+v", resp.User)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("self-registration must issue tokens")
	}
	if got := tokens.active(resp.User.ID); got != 1 {
		t.Fatalf("stored refresh tokens = %d, want 1", got)
	}

	a, err := auth.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if a.ID != resp.User.ID || a.Role != domain.RoleStudent || a.RollNumber != "CS21B001" || a.Department != "Computer Science" {
		t.Fatalf("actor = %+v", a)
	}

	if _, err := auth.Register(ctx, studentRegistration(), nil); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("duplicate register err = %v", err)
	}
}

func TestRegisterStaffNeedsAdmin(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newTestAuth()

	in := &RegisterInput{Email: "warden@campus.edu", Password: "secret123", Name: "Warden", Role: domain.RoleHostelWarden}
	if _, err := auth.Register(ctx, in, nil); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("self-registered warden err = %v", err)
	}
	in = &RegisterInput{Email: "warden@campus.edu", Password: "secret123", Name: "Warden", Role: domain.RoleHostelWarden}
	if _, err := auth.Register(ctx, in, actor("hod1", domain.RoleHOD)); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("hod-registered warden err = %v", err)
	}

	in = &RegisterInput{Email: "warden@campus.edu", Password: "secret123", Name: "Warden", Role: domain.RoleHostelWarden}
	resp, err := auth.Register(ctx, in, actor("admin1", domain.RoleAdmin))
	if err != nil {
		t.Fatalf("admin register: %v", err)
	}
	if resp.AccessToken != "" || resp.RefreshToken != "" {
		t.Fatal("admin registration must not log the admin in as the new user")
	}
	if resp.User.Role != domain.RoleHostelWarden {
		t.Fatalf("role = %s", resp.User.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*RegisterInput)
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"no name", func(in *RegisterInput) { in.Name = "  " }},
		{"short password", func(in *RegisterInput) { in.Password = "a1" }},
		{"letters only", func(in *RegisterInput) { in.Password = "abcdefghij" }},
		{"unknown role", func(in *RegisterInput) { in.Role = "dean" }},
		{"roll number on staff", func(in *RegisterInput) { in.Role = domain.RoleTutor }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, _, _ := newTestAuth()
			in := studentRegistration()
			tt.mod(in)
			_, err := auth.Register(context.Background(), in, actor("admin1", domain.RoleAdmin))
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	auth, users, _ := newTestAuth()
	reg, err := auth.Register(ctx, studentRegistration(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := auth.Login(ctx, &LoginInput{Email: "ASHA@campus.edu", Password: "secret123"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := auth.Login(ctx, &LoginInput{Email: "asha@campus.edu", Password: "wrong123"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := auth.Login(ctx, &LoginInput{Email: "nobody@campus.edu", Password: "secret123"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}

	u, _ := users.GetByID(ctx, reg.User.ID)
	u.IsActive = false
	_ = users.Update(ctx, u)
	if _, err := auth.Login(ctx, &LoginInput{Email: "asha@campus.edu", Password: "secret123"}); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("inactive err = %v", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	ctx := context.Background()
	auth, _, tokens := newTestAuth()
	reg, err := auth.Register(ctx, studentRegistration(), nil)
	if err != nil {
		t.Fatal(err)
	}

	rotated, err := auth.RefreshToken(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if rotated.RefreshToken == reg.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if got := tokens.active(reg.User.ID); got != 1 {
		t.Fatalf("active tokens after rotation = %d, want 1", got)
	}

	// replaying the rotated-out token revokes the whole family
	if _, err := auth.RefreshToken(ctx, reg.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("replay err = %v", err)
	}
	if got := tokens.active(reg.User.ID); got != 0 {
		t.Fatalf("active tokens after replay = %d, want 0", got)
	}
	if _, err := auth.RefreshToken(ctx, rotated.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("sibling token err = %v", err)
	}

	if _, err := auth.RefreshToken(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token err = %v", err)
	}
	if _, err := auth.RefreshToken(ctx, reg.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token as refresh err = %v", err)
	}
}

func TestLogoutAndLogoutAll(t *testing.T) {
	ctx := context.Background()
	auth, _, tokens := newTestAuth()
	reg, err := auth.Register(ctx, studentRegistration(), nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := auth.Login(ctx, &LoginInput{Email: "asha@campus.edu", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if got := tokens.active(reg.User.ID); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}

	if err := auth.Logout(ctx, reg.RefreshToken); err != nil {
		t.Fatal(err)
	}
	if got := tokens.active(reg.User.ID); got != 1 {
		t.Fatalf("active after logout = %d, want 1", got)
	}
	if err := auth.Logout(ctx, ""); err != nil {
		t.Fatalf("empty logout: %v", err)
	}

	if err := auth.LogoutAll(ctx, reg.User.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := auth.RefreshToken(ctx, second.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("refresh after logout-all err = %v", err)
	}
}

func TestValidateAccessTokenRejectsRefreshSecret(t *testing.T) {
	auth, _, _ := newTestAuth()
	reg, err := auth.Register(context.Background(), studentRegistration(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.ValidateAccessToken(reg.RefreshToken); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
}
