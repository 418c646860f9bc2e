package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// IssueSession signs a session token carrying the user id and role.
func IssueSession(secret []byte, userID, role string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
