package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shoply-app/shoply-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a short-lived JWT signed with the access secret.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload TokenPayload) (string, error) {
	return mint(cfg.AccessSecret, cfg.Issuer, cfg.AccessTokenTTL(), TokenKindAccess, now, payload)
}

// MintRefreshToken issues a long-lived JWT signed with the refresh secret.
// Access and refresh tokens minted for the same login share a jti so the
// session store can tie them together.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, payload TokenPayload) (string, error) {
	return mint(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL(), TokenKindRefresh, now, payload)
}

func mint(secret, issuer string, ttl time.Duration, kind TokenKind, now time.Time, payload TokenPayload) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwt ttl must be positive")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	issuedAt := jwt.NewNumericDate(now)
	expiry := jwt.NewNumericDate(now.Add(ttl))

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := TokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  issuedAt,
			ExpiresAt: expiry,
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates an access JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*TokenClaims, error) {
	return parse(cfg.AccessSecret, cfg.Issuer, TokenKindAccess, tokenString)
}

// ParseRefreshToken validates a refresh JWT string and returns typed claims.
func ParseRefreshToken(cfg config.JWTConfig, tokenString string) (*TokenClaims, error) {
	return parse(cfg.RefreshSecret, cfg.Issuer, TokenKindRefresh, tokenString)
}

func parse(secret, issuer string, kind TokenKind, tokenString string) (*TokenClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("unexpected token kind %q", claims.Kind)
	}

	return claims, nil
}
