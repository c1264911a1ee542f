package auth

import (
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.ActorRole
	Eligible bool
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. Eligible
// reflects the registration/deposit checks done at token issuance; the
// bidding engine trusts it as presented.
type AccessTokenClaims struct {
	UserID   uuid.UUID       `json:"user_id"`
	Role     enums.ActorRole `json:"role"`
	Eligible bool            `json:"eligible"`
	jwt.RegisteredClaims
}
