package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("token is not valid")

// Claims токена оператора
type Claims struct {
	jwt.RegisteredClaims
	OperatorID string
}

// BuildJWTString создаёт токен для оператора и возвращает его в виде строки.
func BuildJWTString(operatorID string, secretKey string, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp)),
		},
		OperatorID: operatorID,
	})

	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// GetOperatorID проверяет токен и достаёт из него оператора.
func GetOperatorID(tokenString string, secretKey string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.OperatorID == "" {
		return "", ErrInvalidToken
	}
	return claims.OperatorID, nil
}
