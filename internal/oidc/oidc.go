package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gogotex/postflow/pkg/middleware"
)

// Verifier checks ID tokens issued by a Keycloak realm (or any OIDC issuer).
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer and returns a verifier for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// RealmIssuer builds the Keycloak issuer URL for realm. An empty realm means
// baseURL already is the issuer.
func RealmIssuer(baseURL, realm string) string {
	if realm == "" {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/realms/" + realm
}

// Verify checks signature, issuer, audience and expiry. Tokens without a
// subject are refused since transitions are attributed to it.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("oidc verify: %w", err)
	}
	if idToken.Subject == "" {
		return nil, errors.New("oidc token has no subject")
	}
	return idToken, nil
}
