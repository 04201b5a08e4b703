package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Identity is the authenticated principal baked into issued tokens.
type Identity struct {
	UserID              string
	Role                string
	CampusID            int64
	AccessibleCampusIDs []int64
}

// Claims represents the JWT payload.
type Claims struct {
	Subject             string  `json:"sub"`
	Role                string  `json:"role"`
	CampusID            int64   `json:"campus_id"`
	AccessibleCampusIDs []int64 `json:"accessible_campus_ids,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the principal carried by the claims.
func (c Claims) Identity() Identity {
	return Identity{
		UserID:              c.Subject,
		Role:                c.Role,
		CampusID:            c.CampusID,
		AccessibleCampusIDs: c.AccessibleCampusIDs,
	}
}

// Issue signs access and refresh tokens for the identity.
func Issue(id Identity, issuer, key string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(accessTTL)
	refreshExp := now.Add(refreshTTL)

	// A unique jti keeps tokens minted within the same second distinct,
	// which refresh rotation depends on.
	build := func(exp time.Time) Claims {
		return Claims{
			Subject:             id.UserID,
			Role:                id.Role,
			CampusID:            id.CampusID,
			AccessibleCampusIDs: id.AccessibleCampusIDs,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				Subject:   id.UserID,
				ExpiresAt: jwt.NewNumericDate(exp),
				IssuedAt:  jwt.NewNumericDate(now),
				ID:        uuid.NewString(),
			},
		}
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, build(accessExp)).SignedString([]byte(key))
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, build(refreshExp)).SignedString([]byte(key))
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// Parse validates a token and returns its claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}
