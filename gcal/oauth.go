// ABOUTME: Authorization Flow for Google Calendar access
// ABOUTME: Consent URL with anti-forgery state, code exchange, silent refresh and logout
package gcal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jaksim/jaksim/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	// ErrReauthRequired means the stored credential is gone or unusable and
	// the user has to log in again.
	ErrReauthRequired = errors.New("google authorization required")
	// ErrStateMismatch means a callback carried an unknown or expired state token.
	ErrStateMismatch = errors.New("oauth state token is unknown or expired")
)

// DefaultStateTTL bounds how long a consent request stays completable.
const DefaultStateTTL = 10 * time.Minute

// AuthState is the authorization lifecycle as observed from the store.
type AuthState int

const (
	Unauthenticated AuthState = iota
	AwaitingUserConsent
	Authenticated
	Expired
)

func (s AuthState) String() string {
	switch s {
	case AwaitingUserConsent:
		return "awaiting_consent"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "unauthenticated"
	}
}

type pendingLogin struct {
	issued      time.Time
	redirectURL string
}

// Flow drives the OAuth consent and token lifecycle for one local user.
type Flow struct {
	oauth  *oauth2.Config
	store  *CredentialStore
	logger *zap.Logger

	now      func() time.Time
	stateTTL time.Duration

	mu      sync.Mutex
	pending map[string]pendingLogin
}

// NewFlow creates a Flow persisting credentials to store.
func NewFlow(oc *oauth2.Config, store *CredentialStore, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		oauth:    oc,
		store:    store,
		logger:   logger,
		now:      time.Now,
		stateTTL: DefaultStateTTL,
		pending:  make(map[string]pendingLogin),
	}
}

// SetClock replaces the time source used for expiry decisions.
func (f *Flow) SetClock(now func() time.Time) {
	f.now = now
}

// BeginLogin returns the consent URL and its state token. redirectURL may be
// empty to use the configured redirect.
func (f *Flow) BeginLogin(redirectURL string) (string, string, error) {
	state, err := newStateToken()
	if err != nil {
		return "", "", err
	}
	if redirectURL == "" {
		redirectURL = f.oauth.RedirectURL
	}

	oc := *f.oauth
	oc.RedirectURL = redirectURL
	authURL := oc.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	f.mu.Lock()
	f.prunePendingLocked()
	f.pending[state] = pendingLogin{issued: f.now(), redirectURL: redirectURL}
	f.mu.Unlock()

	return authURL, state, nil
}

// Complete verifies state, exchanges code and persists the resulting credential.
// State tokens are single use.
func (f *Flow) Complete(ctx context.Context, state, code string) (*models.Credential, error) {
	f.mu.Lock()
	f.prunePendingLocked()
	p, ok := f.pending[state]
	if ok {
		delete(f.pending, state)
	}
	f.mu.Unlock()

	if !ok || state == "" {
		return nil, ErrStateMismatch
	}
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}

	oc := *f.oauth
	oc.RedirectURL = p.redirectURL
	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	cred := credentialFromToken(tok, &oc, nil)
	if err := f.store.Save(cred); err != nil {
		return nil, err
	}
	f.logger.Info("google authorization completed", zap.Bool("offline", cred.RefreshToken != ""))
	return cred, nil
}

// State reports the current lifecycle state.
func (f *Flow) State() AuthState {
	cred, err := f.store.Load()
	if err == nil && cred != nil {
		if cred.Expired(f.now()) {
			return Expired
		}
		return Authenticated
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunePendingLocked()
	if len(f.pending) > 0 {
		return AwaitingUserConsent
	}
	return Unauthenticated
}

// Token returns a valid access token, refreshing and persisting it when the
// stored one has expired. Any failure to produce a token clears the store
// and returns ErrReauthRequired.
func (f *Flow) Token(ctx context.Context) (*oauth2.Token, error) {
	cred, err := f.store.Load()
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrReauthRequired
	}
	if !cred.Expired(f.now()) {
		return tokenFromCredential(cred), nil
	}

	if !cred.CanRefresh() {
		f.logger.Info("stored credential expired without refresh token")
		f.forget()
		return nil, ErrReauthRequired
	}
	return f.refresh(ctx, cred)
}

// Reject handles a 401 for an access token the API no longer accepts. The
// credential is refreshed once; without a refresh token, or when the refresh
// fails, it is cleared and ErrReauthRequired is returned.
func (f *Flow) Reject(ctx context.Context) (*oauth2.Token, error) {
	cred, err := f.store.Load()
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrReauthRequired
	}
	if !cred.CanRefresh() {
		f.logger.Info("access token rejected without refresh token")
		f.forget()
		return nil, ErrReauthRequired
	}
	return f.refresh(ctx, cred)
}

func (f *Flow) refresh(ctx context.Context, cred *models.Credential) (*oauth2.Token, error) {
	oc := f.refreshConfig(cred)
	tok, err := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		f.logger.Warn("token refresh failed", zap.Error(err))
		f.forget()
		return nil, fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}

	refreshed := credentialFromToken(tok, oc, cred)
	if err := f.store.Save(refreshed); err != nil {
		return nil, err
	}
	f.logger.Debug("access token refreshed")
	return tokenFromCredential(refreshed), nil
}

// Client returns an HTTP client that authorizes requests through Token. A
// request answered with 401 is retried once after a refresh; a second 401
// clears the stored credential.
func (f *Flow) Client(ctx context.Context) *http.Client {
	base := http.DefaultTransport
	if hc, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && hc != nil && hc.Transport != nil {
		base = hc.Transport
	}
	return &http.Client{Transport: &flowTransport{ctx: ctx, flow: f, base: base}}
}

// Logout deletes the stored credential.
func (f *Flow) Logout() error {
	return f.store.Clear()
}

func (f *Flow) forget() {
	if err := f.store.Clear(); err != nil {
		f.logger.Error("failed to clear stored credential", zap.Error(err))
	}
}

// refreshConfig prefers the client identity recorded alongside the credential.
func (f *Flow) refreshConfig(cred *models.Credential) *oauth2.Config {
	oc := *f.oauth
	if cred.ClientID != "" {
		oc.ClientID = cred.ClientID
	}
	if cred.ClientSecret != "" {
		oc.ClientSecret = cred.ClientSecret
	}
	if cred.TokenURI != "" {
		oc.Endpoint.TokenURL = cred.TokenURI
	}
	if len(cred.Scopes) > 0 {
		oc.Scopes = cred.Scopes
	}
	return &oc
}

func (f *Flow) prunePendingLocked() {
	cutoff := f.now().Add(-f.stateTTL)
	for state, p := range f.pending {
		if p.issued.Before(cutoff) {
			delete(f.pending, state)
		}
	}
}

type flowTransport struct {
	ctx  context.Context
	flow *Flow
	base http.RoundTripper
}

func (t *flowTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.flow.Token(t.ctx)
	if err != nil {
		closeBody(req)
		return nil, err
	}
	resp, err := t.send(req, tok)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if req.Body != nil && req.GetBody == nil {
		// The body is spent, so only the next request sees the new token.
		_, _ = t.flow.Reject(t.ctx)
		return resp, nil
	}

	tok, err = t.flow.Reject(t.ctx)
	if err != nil {
		// Credential is cleared; the 401 reaches the caller.
		return resp, nil
	}
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}
	resp.Body.Close()

	resp, err = t.send(retry, tok)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		t.flow.logger.Warn("refreshed access token rejected")
		t.flow.forget()
	}
	return resp, err
}

func (t *flowTransport) send(req *http.Request, tok *oauth2.Token) (*http.Response, error) {
	out := req.Clone(req.Context())
	tok.SetAuthHeader(out)
	return t.base.RoundTrip(out)
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}

func newStateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func credentialFromToken(tok *oauth2.Token, oc *oauth2.Config, prev *models.Credential) *models.Credential {
	cred := &models.Credential{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     oc.Endpoint.TokenURL,
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
		Scopes:       append([]string(nil), oc.Scopes...),
	}
	if cred.RefreshToken == "" && prev != nil {
		cred.RefreshToken = prev.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		cred.Expiry = &expiry
	}
	return cred
}

func tokenFromCredential(cred *models.Credential) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  cred.Token,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
	}
	if cred.Expiry != nil {
		tok.Expiry = *cred.Expiry
	}
	return tok
}
