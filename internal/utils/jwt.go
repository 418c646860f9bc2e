package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const vaultAudience = "vault"

var (
	ErrMissingToken = errors.New("missing authorization header")
	ErrInvalidToken = errors.New("invalid token claims")
)

// BearerToken pulls the token out of an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

func hmacKey(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}
}

// ParseSession validates a session token and returns its user id and role.
func ParseSession(secret []byte, tokenStr string) (userID, role string, err error) {
	token, err := jwt.Parse(tokenStr, hmacKey(secret), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}
	userID, _ = claims["user_id"].(string)
	role, _ = claims["role"].(string)
	if userID == "" {
		return "", "", ErrInvalidToken
	}
	return userID, role, nil
}

// IssueVaultToken signs a short-lived token proving the customer unlocked
// their payment methods.
func IssueVaultToken(secret []byte, customerID string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   customerID,
		Audience:  jwt.ClaimStrings{vaultAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseVaultToken returns the customer id a vault token was issued to.
func ParseVaultToken(secret []byte, tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, hmacKey(secret),
		jwt.WithAudience(vaultAudience), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
