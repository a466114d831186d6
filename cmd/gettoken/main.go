// Command gettoken runs the OAuth consent flow once and prints the Gmail
// refresh token the forwarder needs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"mailforward/internal/infrastructure/gmail"
)

// oobRedirect makes Google show the authorization code instead of redirecting.
const oobRedirect = "urn:ietf:wg:oauth:2.0:oob"

type savedTokens struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
}

func main() {
	secrets := flag.String("credentials", "client_secret.json", "OAuth client file downloaded from Google Cloud Console")
	out := flag.String("out", "gmail_tokens.json", "where to save the tokens")
	flag.Parse()

	b, err := os.ReadFile(*secrets)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "%s not found.\n", *secrets)
		fmt.Fprintln(os.Stderr, "Create a Desktop app OAuth client with the Gmail API enabled and download its JSON.")
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}

	config, err := google.ConfigFromJSON(b, gmail.Scope)
	if err != nil {
		fatal(fmt.Errorf("cannot parse %s: %w", *secrets, err))
	}
	config.RedirectURL = oobRedirect

	tok, err := getTokenFromWeb(config, os.Stdin)
	if err != nil {
		fatal(err)
	}
	if tok.RefreshToken == "" {
		fatal(errors.New("no refresh token returned; revoke the app's access and retry"))
	}

	fmt.Println("\nGMAIL_REFRESH_TOKEN=" + tok.RefreshToken)

	if err := saveTokens(*out, config, tok); err != nil {
		fatal(err)
	}
	fmt.Printf("Tokens saved to %s\n", *out)
}

func getTokenFromWeb(config *oauth2.Config, in io.Reader) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Println("1) Copy this URL and open it in your browser:")
	fmt.Println(authURL)
	fmt.Println("\n2) Sign in and accept the permissions.")
	fmt.Print("3) Paste the authorization code here: ")

	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return nil, fmt.Errorf("cannot read auth code: %w", err)
	}

	tok, err := config.Exchange(context.Background(), strings.TrimSpace(authCode))
	if err != nil {
		return nil, fmt.Errorf("cannot exchange code for token: %w", err)
	}
	return tok, nil
}

func saveTokens(path string, config *oauth2.Config, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cannot save tokens: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(savedTokens{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     config.Endpoint.TokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       config.Scopes,
	})
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
