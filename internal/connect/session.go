// Package connect talks to the wearable provider: an OAuth2 session whose
// renewed tokens are persisted, and per-date metric retrieval.
package connect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"

	"github.com/claude/vitalsync/internal/config"
)

// ProviderName keys the stored token.
const ProviderName = "garmin"

// ErrNotAcquired is returned when a session is used before Acquire.
var ErrNotAcquired = errors.New("session not acquired")

// TokenStore persists session tokens between runs.
type TokenStore interface {
	LoadToken(ctx context.Context, provider string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, provider string, tok *oauth2.Token) error
}

// Credentials is the account login kept in the credentials file.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoadCredentials reads a {"email": ..., "password": ...} file.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}
	if c.Email == "" || c.Password == "" {
		return nil, fmt.Errorf("credentials file %s: email and password are required", path)
	}
	return &c, nil
}

// Session is an explicit handle over the provider login. Acquire it once,
// pass it to whoever needs an authenticated HTTP client, and any token the
// oauth2 machinery renews is written back to the store.
type Session struct {
	conf      *oauth2.Config
	store     TokenStore
	credsPath string
	log       *slog.Logger

	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewSession creates an unacquired session for the configured provider.
func NewSession(cfg config.ProviderConfig, store TokenStore, log *slog.Logger) *Session {
	return &Session{
		conf: &oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:     store,
		credsPath: cfg.CredentialsFile,
		log:       log,
	}
}

// Acquire prepares the renewing token source. A stored token is checked
// (and refreshed if expired) right away; when the provider rejects it, or
// none is stored, the session logs in with the credentials file.
func (s *Session) Acquire(ctx context.Context) error {
	tok, err := s.store.LoadToken(ctx, ProviderName)
	if err != nil {
		return fmt.Errorf("loading stored token: %w", err)
	}

	if tok != nil {
		src := s.newSource(ctx, tok)
		_, err := src.Token()
		if err == nil {
			s.setSource(src)
			return nil
		}
		var rerr *oauth2.RetrieveError
		if !errors.As(err, &rerr) && tok.RefreshToken != "" {
			return fmt.Errorf("refreshing stored token: %w", err)
		}
		s.log.Warn("stored token rejected, logging in again", "error", err)
	}

	creds, err := LoadCredentials(s.credsPath)
	if err != nil {
		return err
	}
	s.log.Info("logging in", "email", creds.Email)
	tok, err = s.conf.PasswordCredentialsToken(ctx, creds.Email, creds.Password)
	if err != nil {
		return fmt.Errorf("password login: %w", err)
	}
	if err := s.store.SaveToken(ctx, ProviderName, tok); err != nil {
		return err
	}
	s.setSource(s.newSource(ctx, tok))
	return nil
}

func (s *Session) newSource(ctx context.Context, tok *oauth2.Token) *persistingSource {
	return &persistingSource{
		base:  s.conf.TokenSource(ctx, tok),
		last:  tok.AccessToken,
		ctx:   ctx,
		store: s.store,
		log:   s.log,
	}
}

func (s *Session) setSource(src oauth2.TokenSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = src
}

// Client returns an HTTP client that authorizes every request with the
// session token.
func (s *Session) Client(ctx context.Context) (*http.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src == nil {
		return nil, ErrNotAcquired
	}
	return oauth2.NewClient(ctx, s.src), nil
}

// persistingSource saves every token that differs from the last one seen.
type persistingSource struct {
	base  oauth2.TokenSource
	ctx   context.Context
	store TokenStore
	log   *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.SaveToken(p.ctx, ProviderName, tok); err != nil {
			return nil, fmt.Errorf("persisting renewed token: %w", err)
		}
		p.last = tok.AccessToken
		p.log.Debug("renewed provider token persisted", "expiry", tok.Expiry)
	}
	return tok, nil
}
