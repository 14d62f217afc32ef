package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shoply-app/shoply-backend/pkg/config"
	"github.com/shoply-app/shoply-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:      "access-secret",
		RefreshSecret:     "refresh-secret",
		Issuer:            "shoply-test",
		AccessTTLMinutes:  15,
		RefreshTTLMinutes: 43200,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	userID := uuid.New()

	signed, err := MintAccessToken(cfg, now, TokenPayload{UserID: userID, Role: enums.RoleUser})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.RoleUser {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	refresh, err := MintRefreshToken(cfg, now, TokenPayload{UserID: uuid.New(), Role: enums.RoleUser})
	if err != nil {
		t.Fatalf("MintRefreshToken returned error: %v", err)
	}

	if _, err := ParseAccessToken(cfg, refresh); err == nil {
		t.Fatal("refresh token must not validate as an access token")
	}
}

func TestAccessAndRefreshShareJTI(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	payload := TokenPayload{UserID: uuid.New(), Role: enums.RoleUser, JTI: "fixed-jti"}

	access, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	refresh, err := MintRefreshToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("MintRefreshToken returned error: %v", err)
	}

	accessClaims, err := ParseAccessToken(cfg, access)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	refreshClaims, err := ParseRefreshToken(cfg, refresh)
	if err != nil {
		t.Fatalf("ParseRefreshToken returned error: %v", err)
	}
	if accessClaims.ID != refreshClaims.ID {
		t.Fatalf("expected shared jti, got %s and %s", accessClaims.ID, refreshClaims.ID)
	}
}

func TestMintAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	past := time.Now().Add(-time.Hour)

	signed, err := MintAccessToken(cfg, past, TokenPayload{UserID: uuid.New(), Role: enums.RoleUser})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestMintAccessTokenInvalidRole(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintAccessToken(cfg, time.Now(), TokenPayload{UserID: uuid.New(), Role: "root"}); err == nil {
		t.Fatal("expected invalid role to error")
	}
}
