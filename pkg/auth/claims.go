package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shoply-app/shoply-backend/pkg/enums"
)

// TokenKind distinguishes the two signing keys.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPayload captures the data available when minting a JWT.
type TokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	JTI    string
}

// TokenClaims represents the typed JWT issued to clients.
type TokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	Kind   TokenKind  `json:"kind"`
	jwt.RegisteredClaims
}
