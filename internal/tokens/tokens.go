package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/postflow/internal/config"
	"github.com/gogotex/postflow/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// Subject identifies who a token is issued to.
type Subject struct {
	Sub   string
	Name  string
	Email string
}

// GenerateAccessToken creates a signed HS256 access token for the subject
func GenerateAccessToken(cfg *config.Config, s Subject, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	claims := jwt.MapClaims{
		"sub":   s.Sub,
		"name":  s.Name,
		"email": s.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// HMACVerifier verifies HS256 tokens signed with the shared JWT secret.
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return mapToken(claims), nil
}

type mapToken jwt.MapClaims

func (t mapToken) Claims(v interface{}) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ExpiresAt reads the exp claim of a verified token.
func ExpiresAt(tok middleware.Token) (time.Time, error) {
	var c struct {
		Exp *float64 `json:"exp"`
	}
	if err := tok.Claims(&c); err != nil {
		return time.Time{}, err
	}
	if c.Exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return time.Unix(int64(*c.Exp), 0), nil
}
