package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClientClaims bind a browser to its client slot. They carry no identity;
// the identity lives in the client's durable session storage.
type ClientClaims struct {
	ClientID string `json:"cid"`
	jwt.RegisteredClaims
}

func GenerateClientToken(secret, clientID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ClientClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseClientToken(secret, tokenString string) (*ClientClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid || claims.ClientID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
