// Package services provides external service integrations such as the Google Sheets client and the list cache
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/turnixpro/turnix/config"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const defaultTokenURI = "https://oauth2.googleapis.com/token"

var (
	ErrCredentialsNotFound   = errors.New("service account credentials file not found")
	ErrCredentialsIncomplete = errors.New("service account credentials missing client email or private key")
)

// SheetsClient builds the Sheets service on first use and hands out the same instance afterwards.
// A failed build is not cached so the next call tries again.
type SheetsClient interface {
	Service(ctx context.Context) (*sheets.Service, error)
	ClientEmail() string
}

type SheetsClientImpl struct {
	cfg    *config.SheetsConfig
	logger *log.Logger

	mu          sync.Mutex
	svc         *sheets.Service
	clientEmail string
}

func NewSheetsClient(cfg *config.SheetsConfig, logger *log.Logger) SheetsClient {
	if logger == nil {
		logger = log.Default()
	}
	return &SheetsClientImpl{cfg: cfg, logger: logger}
}

func (c *SheetsClientImpl) Service(ctx context.Context) (*sheets.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.svc != nil {
		return c.svc, nil
	}

	raw, path, err := readFirstCredentials(c.cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}

	normalized, email, err := NormalizeServiceAccountJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, normalized, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	c.svc = svc
	c.clientEmail = email
	c.logger.Printf("Google Sheets client initialized from %s for %s", path, email)
	return svc, nil
}

func (c *SheetsClientImpl) ClientEmail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientEmail
}

func readFirstCredentials(paths []string) ([]byte, string, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		raw, err := os.ReadFile(p)
		if err == nil {
			return raw, p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, p, fmt.Errorf("failed to read credentials %s: %w", p, err)
		}
	}
	return nil, "", fmt.Errorf("%w (looked in %s)", ErrCredentialsNotFound, strings.Join(paths, ", "))
}

// NormalizeServiceAccountJSON accepts the key file variants found in the field (snake case,
// camel case, env-style names, private keys with escaped newlines) and returns a canonical
// service_account JSON document together with the client email.
func NormalizeServiceAccountJSON(raw []byte) ([]byte, string, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, "", fmt.Errorf("invalid credentials json: %w", err)
	}

	email := firstString(doc, "client_email", "clientEmail", "GOOGLE_SERVICE_ACCOUNT_EMAIL")
	key := firstString(doc, "private_key", "privateKey", "GOOGLE_PRIVATE_KEY")
	if email == "" || key == "" {
		return nil, "", ErrCredentialsIncomplete
	}

	doc["type"] = "service_account"
	doc["client_email"] = email
	doc["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	if firstString(doc, "token_uri") == "" {
		doc["token_uri"] = defaultTokenURI
	}
	for _, alias := range []string{"clientEmail", "GOOGLE_SERVICE_ACCOUNT_EMAIL", "privateKey", "GOOGLE_PRIVATE_KEY"} {
		delete(doc, alias)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode credentials: %w", err)
	}
	return out, email, nil
}

func firstString(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := doc[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
