package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims - полезная нагрузка токена: subject это идентификатор пользователя.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken выпускает HS256-токен для пациента или клиники.
func GenerateToken(identity models.Identity, secretKey string, ttl time.Duration) (string, error) {
	if identity.UserID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := &Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken проверяет подпись и срок действия токена и возвращает личность вызывающего.
func ValidateToken(tokenString, secretKey string) (models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return models.Identity{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return models.Identity{}, errors.New("token has no subject")
	}
	if claims.Role != models.PatientRole && claims.Role != models.ClinicRole {
		return models.Identity{}, fmt.Errorf("unknown role: %q", claims.Role)
	}
	return models.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
