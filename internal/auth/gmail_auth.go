package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// ErrNoGmailCredentials means the OAuth client secret or the saved token is
// missing, so the mail watcher stays off.
var ErrNoGmailCredentials = errors.New("gmail credentials not found")

// GmailConfig reads the OAuth client secret (credential.json) from fs.
func GmailConfig(fs afero.Fs, credentialsFile string) (*oauth2.Config, error) {
	b, err := afero.ReadFile(fs, credentialsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoGmailCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}
	// READONLY access to Gmail
	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	return config, nil
}

// GetGmailClient returns an authorized HTTP client built from the client secret
// and the saved token. Run cmd/gmail-auth once to create the token.
func GetGmailClient(ctx context.Context, fs afero.Fs, credentialsFile, tokenFile string) (*http.Client, error) {
	config, err := GmailConfig(fs, credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := TokenFromFile(fs, tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoGmailCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	return config.Client(ctx, tok), nil
}

// TokenFromWeb prints the consent URL, reads the code from in and exchanges it.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "\n---------------------------------------------------------\n")
	fmt.Fprintf(out, "OPEN THIS LINK TO AUTHORIZE GMAIL ACCESS:\n%v\n", authURL)
	fmt.Fprintf(out, "---------------------------------------------------------\n")
	fmt.Fprintf(out, "Paste the code here: ")

	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// TokenFromFile reads a saved token.
func TokenFromFile(fs afero.Fs, file string) (*oauth2.Token, error) {
	f, err := fs.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(fs afero.Fs, path string, token *oauth2.Token) error {
	log.Printf("💾 Saving credential file to: %s", path)
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
