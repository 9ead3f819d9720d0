// Package oauth manages the OAuth credential lifecycle against the Intuit
// identity provider: authorization URL building, code exchange, persistence,
// and access-token refresh.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/pigeonworks-llc/qbo-bridge/internal/config"
	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/store"
)

const (
	scopeAccounting = "com.intuit.quickbooks.accounting"

	// Access tokens within this many seconds of expiry are refreshed before use.
	refreshWindow = 60

	defaultExpiresIn = 3600
)

// Manager obtains valid bearer tokens for the configured user identity,
// refreshing near-expiry tokens against the identity provider's token
// endpoint before returning them.
//
// Concurrent callers hitting the refresh window may each perform a refresh;
// both token pairs are valid and the last writer wins in the store. The race
// is tolerated deliberately, matching the provider's rotation semantics.
type Manager struct {
	oauthCfg     *oauth2.Config
	tokenURL     string
	clientID     string
	clientSecret string
	userID       string
	creds        *store.Store
	httpClient   *http.Client
	now          func() time.Time
}

// New creates a Manager from Intuit configuration and the credential store.
func New(cfg config.IntuitConfig, userID string, creds *store.Store) *Manager {
	return &Manager{
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{scopeAccounting},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userID:       userID,
		creds:        creds,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
}

// AuthCodeURL builds the identity provider's authorization redirect URL.
func (m *Manager) AuthCodeURL(state string) string {
	return m.oauthCfg.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token set using HTTP Basic
// client authentication.
func (m *Manager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	tok, err := m.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("authorization code exchange failed: %w", err)
	}
	return tok, nil
}

// SaveInitial persists the credential produced by a successful
// authorization-code exchange.
func (m *Manager) SaveInitial(ctx context.Context, realmID string, tok *oauth2.Token) error {
	expiresAt := tok.Expiry.Unix()
	if tok.Expiry.IsZero() {
		expiresAt = m.now().Unix() + defaultExpiresIn
	}

	cred := &store.Credential{
		UserID:       m.userID,
		RealmID:      realmID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
	}
	if err := m.creds.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// AccessToken returns a valid bearer token for the realm, refreshing first
// when the stored token expires within the refresh window.
//
// The stored realm may differ from the requested one; the single-tenant
// assumption tolerates this rather than resolving it.
func (m *Manager) AccessToken(ctx context.Context, realmID string) (string, error) {
	cred, err := m.current(ctx)
	if err != nil {
		return "", err
	}

	nowSec := m.now().Unix()
	if cred.ExpiresAt-nowSec > refreshWindow {
		return cred.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", fault.UpstreamAuth(err)
	}

	newRefresh := refreshed.RefreshToken
	if newRefresh == "" {
		// Provider did not rotate the refresh token; keep the old one.
		newRefresh = cred.RefreshToken
	}
	expiresIn := refreshed.ExpiresIn
	if expiresIn == 0 {
		expiresIn = defaultExpiresIn
	}

	updated := &store.Credential{
		UserID:       cred.UserID,
		RealmID:      cred.RealmID,
		AccessToken:  refreshed.AccessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    nowSec + expiresIn,
		CreatedAt:    cred.CreatedAt,
	}
	if cred.RealmID == "" {
		updated.RealmID = realmID
	}
	if err := m.creds.Update(ctx, updated); err != nil {
		return "", fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	return refreshed.AccessToken, nil
}

// ConnectedRealm returns the realm id of the stored credential, or an
// unauthenticated fault when none exists.
func (m *Manager) ConnectedRealm(ctx context.Context) (string, error) {
	cred, err := m.current(ctx)
	if err != nil {
		return "", err
	}
	return cred.RealmID, nil
}

// Disconnect deletes the stored credential for the configured identity.
func (m *Manager) Disconnect(ctx context.Context) error {
	return m.creds.Delete(ctx, m.userID)
}

// current loads the credential for the configured identity, falling back to
// the most recently updated record.
func (m *Manager) current(ctx context.Context) (*store.Credential, error) {
	cred, err := m.creds.Get(ctx, m.userID)
	if errors.Is(err, store.ErrNotFound) {
		cred, err = m.creds.Latest(ctx)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, fault.Unauthenticated("Not connected to QuickBooks. Run /oauth/start.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if cred.AccessToken == "" || cred.RefreshToken == "" {
		return nil, fault.Unauthenticated("Not connected to QuickBooks. Run /oauth/start.")
	}
	return cred, nil
}

// tokenResponse is the identity provider's token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// refresh exchanges a refresh token for a new token pair using HTTP Basic
// client authentication.
func (m *Manager) refresh(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.SetBasicAuth(m.clientID, m.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("token refresh failed (status %d): %s %s", resp.StatusCode, errResp.Error, errResp.Description)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	return &tok, nil
}
