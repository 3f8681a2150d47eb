package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/memestream/memestream-service/internal/types/auth"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed token payload. Field names follow the wire format the
// clients already expect: numeric subject plus denormalized identity fields.
type Claims struct {
	UserID    int    `json:"sub"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

func (c Claims) GetIssuer() (string, error) { return "", nil }

func (c Claims) GetSubject() (string, error) { return strconv.Itoa(c.UserID), nil }

func (c Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// CreateToken signs a 3-segment HS256 token for the user, valid for ttl.
func CreateToken(user *auth.User, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		UserID:    user.UserID,
		Email:     user.Email,
		Username:  user.Username,
		ExpiresAt: expiresAt.Unix(),
		IssuedAt:  now.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// DecodeToken verifies the signature and returns the claims. It does NOT
// enforce expiry; the auth middleware checks ExpiresAt explicitly so that an
// expired-but-authentic token gets its own error message.
func DecodeToken(tokenString, secret string) (*Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
