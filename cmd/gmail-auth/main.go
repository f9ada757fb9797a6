// Command gmail-auth runs the one-time OAuth consent flow for the mail
// watcher and saves the resulting token next to the client secret.
package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/strove-app/strove/internal/auth"
	"github.com/strove-app/strove/internal/config"
)

func main() {
	cfg := config.Load()
	fs := afero.NewOsFs()
	ctx := context.Background()

	oauthConfig, err := auth.GmailConfig(fs, cfg.Mail.CredentialsFile)
	if err != nil {
		log.Fatalf("Unable to load %s: %v", cfg.Mail.CredentialsFile, err)
	}
	tok, err := auth.TokenFromWeb(ctx, oauthConfig, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("Unable to retrieve token from web: %v", err)
	}
	if err := auth.SaveToken(fs, cfg.Mail.TokenFile, tok); err != nil {
		log.Fatalf("Unable to save token: %v", err)
	}
	log.Println("✅ Gmail authorized, the API server will start the mail watcher")
}
