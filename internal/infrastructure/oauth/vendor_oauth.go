package oauth

import (
	"context"
	"net/http"

	"screenwatch-service/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// VendorOAuth handles client-credentials authentication against a
// ticketing vendor's API
type VendorOAuth struct {
	config *clientcredentials.Config
	logger logger.Logger
}

// NewVendorOAuth creates a new vendor OAuth handler
func NewVendorOAuth(tokenURL, clientID, clientSecret string, logger logger.Logger) *VendorOAuth {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	return &VendorOAuth{
		config: config,
		logger: logger,
	}
}

// GetTokenSource returns a token source for vendor API calls
func (o *VendorOAuth) GetTokenSource(ctx context.Context) oauth2.TokenSource {
	return o.config.TokenSource(ctx)
}

// Client returns an HTTP client that injects and refreshes the vendor
// bearer token
func (o *VendorOAuth) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, o.GetTokenSource(ctx))
}
