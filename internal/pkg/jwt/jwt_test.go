package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	id := Identity{
		UserID:     "9b0c2c1e-0000-4000-8000-000000000001",
		Email:      "asha@campus.edu",
		Name:       "Asha",
		Role:       "student",
		Department: "Computer Science",
		RollNumber: "CS21B001",
	}

	token, err := GenerateAccessToken(id, "secret", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ValidateAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != id.UserID || claims.Role != id.Role || claims.Department != id.Department || claims.RollNumber != id.RollNumber {
		t.Errorf("claims = %+v, want identity %+v", claims, id)
	}
}

func TestAccessTokenErrors(t *testing.T) {
	token, err := GenerateAccessToken(Identity{UserID: "u1", Role: "admin"}, "secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateAccessToken(token, "other-secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("wrong secret: err = %v, want ErrTokenInvalid", err)
	}

	expired, err := GenerateAccessToken(Identity{UserID: "u1"}, "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateAccessToken(expired, "secret"); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired: err = %v, want ErrTokenExpired", err)
	}

	if _, err := ValidateAccessToken("not-a-token", "secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("garbage: err = %v, want ErrTokenInvalid", err)
	}
}

func TestRefreshTokensAreDistinct(t *testing.T) {
	a, err := GenerateRefreshToken("u1", "t1", "refresh", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateRefreshToken("u1", "t2", "refresh", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("refresh tokens with different ids are identical")
	}

	claims, err := ValidateRefreshToken(b, "refresh")
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "u1" || claims.TokenID != "t2" {
		t.Errorf("claims = %+v", claims)
	}
}
