package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qadash/internal/domain"
)

// TokenCodec issues and verifies HS256 bearer tokens carrying a User.
type TokenCodec struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

type userClaims struct {
	jwt.RegisteredClaims
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

func (c TokenCodec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c TokenCodec) Issue(u domain.User) (string, error) {
	if len(c.Secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := c.now()
	claims := userClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL)),
		},
		Name:       u.Name,
		Role:       u.Role,
		Email:      u.Email,
		Department: u.Department,
		Avatar:     u.Avatar,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

func (c TokenCodec) Parse(token string) (domain.User, error) {
	if len(c.Secret) == 0 {
		return domain.User{}, errors.New("jwt secret not configured")
	}
	if strings.TrimSpace(token) == "" {
		return domain.User{}, errors.New("token required")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	claims := &userClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.Secret, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if !parsed.Valid {
		return domain.User{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return domain.User{}, errors.New("subject claim required")
	}
	return domain.User{
		ID:         claims.Subject,
		Name:       claims.Name,
		Role:       claims.Role,
		Email:      claims.Email,
		Department: claims.Department,
		Avatar:     claims.Avatar,
	}, nil
}
