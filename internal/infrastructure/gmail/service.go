package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scope requested for the forwarder: read, modify labels and watch.
var Scope = gmail.MailGoogleComScope

// OAuthConfig returns the client configuration for the Google OAuth endpoint.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{Scope},
	}
}

// NewService builds a Gmail service that mints access tokens from a
// long-lived refresh token.
func NewService(ctx context.Context, clientID, clientSecret, refreshToken string) (*gmail.Service, error) {
	ts := OAuthConfig(clientID, clientSecret).TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	srv, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("cannot create gmail service: %w", err)
	}
	return srv, nil
}
