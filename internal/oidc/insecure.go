package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gogotex/postflow/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// claimsToken exposes already decoded claims through middleware.Token.
type claimsToken jwt.MapClaims

func (t claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// InsecureVerifier reads token claims without checking the signature. It
// lets integration tests act as arbitrary reviewers and must only be enabled
// through ALLOW_INSECURE_TOKEN.
type InsecureVerifier struct {
	parser *jwt.Parser
}

func NewInsecureVerifier() *InsecureVerifier {
	return &InsecureVerifier{parser: jwt.NewParser()}
}

func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if sub, _ := claims.GetSubject(); sub == "" {
		return nil, errors.New("token has no subject")
	}
	return claimsToken(claims), nil
}
