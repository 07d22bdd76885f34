// Package identity is a client for a Firebase Identity Toolkit compatible
// identity provider. It signs users in with a password or a federated id
// token, renews id tokens and keeps the signed-in user in a session file so
// the next start is already signed in.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskdeck/pkg/session"
	"taskdeck/pkg/utils"
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL    = "https://securetoken.googleapis.com/v1/token"
	DefaultProviderID  = "google.com"
)

// Config configures a Client
type Config struct {
	APIKey      string
	IdentityURL string
	TokenURL    string
	// SessionFile keeps the signed-in user between runs. Empty disables it.
	SessionFile string
	// ProviderID names the federated provider, e.g. google.com
	ProviderID  string
	Credentials CredentialSource
	HTTPClient  *http.Client
}

// Client talks to the identity provider and tracks the signed-in user.
// It satisfies session.IdentityProvider.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time

	mu        sync.Mutex
	current   *User
	listeners map[int]func(session.Principal)
	nextID    int
}

// NewClient creates a client and restores the user saved in the session
// file, if any.
func NewClient(cfg Config) *Client {
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = DefaultIdentityURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.ProviderID == "" {
		cfg.ProviderID = DefaultProviderID
	}
	cfg.IdentityURL = strings.TrimRight(cfg.IdentityURL, "/")

	c := &Client{
		cfg:       cfg,
		http:      cfg.HTTPClient,
		now:       time.Now,
		listeners: make(map[int]func(session.Principal)),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}

	su, err := readSession(cfg.SessionFile)
	if err != nil {
		utils.Error("Ignoring saved session: %v", err)
	}
	if su != nil {
		c.current = &User{
			client:       c,
			uid:          su.UID,
			email:        su.Email,
			displayName:  su.DisplayName,
			idToken:      su.IDToken,
			refreshToken: su.RefreshToken,
			expiresAt:    su.ExpiresAt,
		}
		utils.Log("Restored session for %s", su.UID)
	}
	return c
}

// CurrentUser returns the signed-in user or nil
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// OnAuthStateChanged calls fn with the current user right away and then on
// every sign-in and sign-out.
func (c *Client) OnAuthStateChanged(fn func(session.Principal)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(principalOf(current))

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// SignInWithEmail signs in with an email and password
func (c *Client) SignInWithEmail(ctx context.Context, email, password string) (session.Principal, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &session.IdentityError{Kind: session.KindInvalidInput, Code: "MISSING_CREDENTIALS"}
	}

	var res authResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return c.signedIn(res)
}

// SignUpWithEmail creates an account, sets its display name and signs it in
func (c *Client) SignUpWithEmail(ctx context.Context, email, password, displayName string) (session.Principal, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &session.IdentityError{Kind: session.KindInvalidInput, Code: "MISSING_CREDENTIALS"}
	}

	var res authResponse
	err := c.post(ctx, "accounts:signUp", map[string]interface{}{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	}, &res)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(displayName); name != "" {
		var upd authResponse
		err := c.post(ctx, "accounts:update", map[string]interface{}{
			"idToken":           res.IDToken,
			"displayName":       name,
			"returnSecureToken": true,
		}, &upd)
		if err != nil {
			// The account exists either way; only the profile is incomplete.
			utils.Error("Setting display name for %s failed: %v", res.LocalID, err)
		} else {
			res.DisplayName = name
			if upd.IDToken != "" {
				res.IDToken = upd.IDToken
				res.ExpiresIn = upd.ExpiresIn
			}
			if upd.RefreshToken != "" {
				res.RefreshToken = upd.RefreshToken
			}
		}
	}
	return c.signedIn(res)
}

// SignInWithFederated exchanges an id token from the configured credential
// source for a session.
func (c *Client) SignInWithFederated(ctx context.Context) (session.Principal, error) {
	if c.cfg.Credentials == nil {
		return nil, &session.IdentityError{Kind: session.KindInvalidInput, Code: "NO_CREDENTIAL_SOURCE", Err: ErrNoCredentialSource}
	}
	idToken, err := c.cfg.Credentials.IDToken(ctx)
	if err != nil {
		return nil, &session.IdentityError{Kind: session.KindUnknown, Code: "CREDENTIAL_SOURCE", Err: err}
	}

	postBody := url.Values{"id_token": {idToken}, "providerId": {c.cfg.ProviderID}}
	var res authResponse
	err = c.post(ctx, "accounts:signInWithIdp", map[string]interface{}{
		"postBody":            postBody.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return c.signedIn(res)
}

// SignOut forgets the signed-in user and its saved session
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	if err := removeSession(c.cfg.SessionFile); err != nil {
		c.mu.Unlock()
		return err
	}
	prev := c.current
	c.current = nil
	c.mu.Unlock()

	if prev != nil {
		utils.Log("Signed out %s", prev.uid)
	}
	c.notify(nil)
	return nil
}

func (c *Client) signedIn(res authResponse) (*User, error) {
	if res.LocalID == "" || res.IDToken == "" {
		return nil, &session.IdentityError{Kind: session.KindUnknown, Code: "INCOMPLETE_RESPONSE"}
	}
	u := &User{
		client:       c,
		uid:          res.LocalID,
		email:        res.Email,
		displayName:  res.DisplayName,
		idToken:      res.IDToken,
		refreshToken: res.RefreshToken,
		expiresAt:    expiryOf(res.IDToken, int64(res.ExpiresIn), c.now()),
	}

	c.mu.Lock()
	c.current = u
	if err := writeSession(c.cfg.SessionFile, u.stored()); err != nil {
		utils.Error("Saving session failed: %v", err)
	}
	c.mu.Unlock()

	c.notify(u)
	return u, nil
}

// persist saves u if it is still the signed-in user
func (c *Client) persist(u *User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != u {
		return
	}
	if err := writeSession(c.cfg.SessionFile, u.stored()); err != nil {
		utils.Error("Saving session failed: %v", err)
	}
}

// revoke signs u out after the provider rejected its refresh token
func (c *Client) revoke(u *User) {
	c.mu.Lock()
	if c.current != u {
		c.mu.Unlock()
		return
	}
	c.current = nil
	if err := removeSession(c.cfg.SessionFile); err != nil {
		utils.Error("%v", err)
	}
	c.mu.Unlock()

	utils.Log("Session of %s was revoked", u.uid)
	c.notify(nil)
}

func (c *Client) notify(u *User) {
	c.mu.Lock()
	fns := make([]func(session.Principal), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	p := principalOf(u)
	for _, fn := range fns {
		fn(p)
	}
}

func principalOf(u *User) session.Principal {
	if u == nil {
		return nil
	}
	return u
}

type authResponse struct {
	LocalID      string  `json:"localId"`
	Email        string  `json:"email"`
	DisplayName  string  `json:"displayName"`
	IDToken      string  `json:"idToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    seconds `json:"expiresIn"`
}

type refreshResponse struct {
	IDToken      string  `json:"id_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    seconds `json:"expires_in"`
	UserID       string  `json:"user_id"`
}

// seconds accepts both "3600" and 3600
type seconds int64

func (s *seconds) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seconds %s", data)
	}
	*s = seconds(n)
	return nil
}

func (c *Client) post(ctx context.Context, action string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := c.cfg.IdentityURL + "/" + action + "?key=" + url.QueryEscape(c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, action, out)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (refreshResponse, error) {
	form := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {refreshToken}}
	endpoint := c.cfg.TokenURL + "?key=" + url.QueryEscape(c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return refreshResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var res refreshResponse
	if err := c.send(req, "token", &res); err != nil {
		return refreshResponse{}, err
	}
	return res, nil
}

func (c *Client) send(req *http.Request, action string, out interface{}) error {
	utils.Log("Identity request: %s", action)
	resp, err := c.http.Do(req)
	if err != nil {
		utils.Error("Identity request %s failed: %v", action, err)
		return &session.IdentityError{Kind: session.KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &session.IdentityError{Kind: session.KindNetwork, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ierr := providerError(resp.StatusCode, payload)
		utils.Error("Identity request %s rejected: %d %s", action, resp.StatusCode, ierr.Code)
		return ierr
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &session.IdentityError{Kind: session.KindUnknown, Code: "INVALID_RESPONSE", Err: err}
	}
	return nil
}

// expiryOf prefers the exp claim of the id token and falls back to
// expiresIn. The signature is not checked.
func expiryOf(idToken string, expiresIn int64, now time.Time) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	return now.Add(time.Hour)
}
