package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

var ErrMissingUserID = errors.New("token has no user_id claim")

// ValidateJWT validates an HS256 token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// UserIDFromClaims extracts the user_id claim. Issuers encode it either as a
// string or as an integer.
func UserIDFromClaims(claims jwt.MapClaims) (string, error) {
	switch v := claims["user_id"].(type) {
	case string:
		if v == "" {
			return "", ErrMissingUserID
		}
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return "", fmt.Errorf("user_id claim %v is not an integer", v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	case json.Number:
		return v.String(), nil
	default:
		return "", ErrMissingUserID
	}
}
