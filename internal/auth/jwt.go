package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims carried by an access token.
type Claims struct {
	PlayerID string
	Username string
}

// GenerateToken issues an HS256 access token for the player.
func GenerateToken(secret, playerID, username string, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"player_id": playerID,
		"username":  username,
		"exp":       time.Now().Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates an access token and returns its claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	playerID, _ := claims["player_id"].(string)
	username, _ := claims["username"].(string)
	if playerID == "" {
		return nil, fmt.Errorf("token missing player_id")
	}

	return &Claims{PlayerID: playerID, Username: username}, nil
}
