package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims includes the registered claims plus the owning profile id.
type Claims struct {
	jwt.RegisteredClaims
	ProfileID string `json:"profile_id"`
}

// GenerateToken issues a signed HS256 token for the given profile.
func GenerateToken(profileID string, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		ProfileID: profileID,
	})
	return token.SignedString(secretKey)
}

// ProfileIDFromToken verifies the token signature and returns the profile id
// it was issued for.
func ProfileIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.ProfileID == "" {
		return "", ErrInvalidToken
	}

	return claims.ProfileID, nil
}
