package adapthttp

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// SSO holds the OpenID Connect client used for the login redirect flow and
// for verifying bearer ID tokens.
type SSO struct {
	OAuth2   oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// NewSSO discovers the issuer and builds the OAuth2 client.
func NewSSO(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*SSO, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery %s: %w", issuer, err)
	}
	return &SSO{
		OAuth2: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		Verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Identify verifies an ID token and returns its email, or its subject when
// no email is present.
func (s *SSO) Identify(ctx context.Context, rawIDToken string) (string, error) {
	idToken, err := s.Verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", err
	}
	var claims struct {
		Email string `json:"email"`
		Sub   string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("parse claims: %w", err)
	}
	if claims.Email != "" {
		return claims.Email, nil
	}
	if claims.Sub == "" {
		return "", errors.New("token has no email or subject")
	}
	return claims.Sub, nil
}
