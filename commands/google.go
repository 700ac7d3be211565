package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/eo-backup/log"
)

// Drive access is restricted to the files created by this application.
var SCOPES = []string{
	sheets.SpreadsheetsScope,
	drive.DriveFileScope,
}

func authorize(ctx context.Context, credentials, tokens string, scopes ...string) (*http.Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %v (%w)", credentials, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file %v (%w)", credentials, err)
	}

	name := strings.TrimSuffix(filepath.Base(credentials), filepath.Ext(credentials))
	file := filepath.Join(tokens, fmt.Sprintf("%s.tokens", name))

	token, err := tokenFromFile(file)
	if err != nil {
		if token, err = getTokenFromWeb(ctx, config); err != nil {
			return nil, err
		}

		if err := saveToken(file, token); err != nil {
			return nil, err
		}
	}

	return config.Client(ctx, token), nil
}

// Requests a token from the web, then returns the retrieved token.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	fmt.Printf("Go to the following link in your browser then type the authorization code: \n%v\n", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("unable to read authorization code (%w)", err)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web (%w)", err)
	}

	return token, nil
}

// Retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

// Saves a token to a file path.
func saveToken(path string, token *oauth2.Token) error {
	log.Infof("Saving credential file to %v", path)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("unable to create tokens directory (%w)", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token (%w)", err)
	}

	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

func newSheetsService(ctx context.Context, c command) (*sheets.Service, error) {
	client, err := authorize(ctx, c.credentials, c.tokens, SCOPES...)
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%w)", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	return service, nil
}

func newDriveService(ctx context.Context, c command) (*drive.Service, error) {
	client, err := authorize(ctx, c.credentials, c.tokens, SCOPES...)
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%w)", err)
	}

	service, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Drive client (%w)", err)
	}

	return service, nil
}
