package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnstack/sessionkit"
)

const defaultTimeout = 15 * time.Second

// Config defines a public type used by sessionkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// BaseURL is the root of the auth API, e.g. "https://api.example.com/api/v1/auth".
	BaseURL string

	// Client is the HTTP client used for all requests. A default client
	// with a 15s timeout is used when nil.
	Client *http.Client

	// Timeout overrides the default client timeout. Ignored when Client is
	// set.
	Timeout time.Duration
}

// HTTPGateway implements [sessionkit.IdentityGateway] against the JSON auth
// API.
//
// HTTPGateway instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HTTPGateway struct {
	baseURL    string
	client     *http.Client
	instanceID string
}

// NewHTTP describes the newhttp operation and its observable behavior.
//
// NewHTTP may return an error when input validation, dependency calls, or security checks fail.
// NewHTTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewHTTP(cfg Config) (*HTTPGateway, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid gateway base URL %q", cfg.BaseURL)
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPGateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     client,
		instanceID: uuid.NewString(),
	}, nil
}

// envelope is the response body shared by all auth endpoints.
type envelope struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message,omitempty"`
	User         *sessionkit.Identity `json:"user,omitempty"`
	Token        string               `json:"token,omitempty"`
	RefreshToken string               `json:"refresh_token,omitempty"`
}

// authKind distinguishes credential-presenting endpoints, where 401 means
// wrong email or password, from credential-bearing ones, where 401 means the
// credential was rejected.
type authKind uint8

const (
	kindCredentials authKind = iota
	kindBearer
)

// SignIn describes the signin operation and its observable behavior.
//
// SignIn may return an error when input validation, dependency calls, or security checks fail.
// SignIn does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) SignIn(ctx context.Context, email, password string) (*sessionkit.AuthGrant, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	env, err := g.do(ctx, http.MethodPost, "/login", "", body, kindCredentials)
	if err != nil {
		return nil, err
	}
	return grantFrom(env)
}

// SignUp describes the signup operation and its observable behavior.
//
// SignUp may return an error when input validation, dependency calls, or security checks fail.
// SignUp does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) SignUp(ctx context.Context, input sessionkit.SignUpInput) (*sessionkit.AuthGrant, error) {
	body := registerRequest{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		Profile:  input.Profile,
	}

	env, err := g.do(ctx, http.MethodPost, "/register", "", body, kindCredentials)
	if err != nil {
		return nil, err
	}
	return grantFrom(env)
}

type registerRequest struct {
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Name     string              `json:"name"`
	Profile  *sessionkit.Profile `json:"profile,omitempty"`
}

// SignOut describes the signout operation and its observable behavior.
//
// SignOut may return an error when input validation, dependency calls, or security checks fail.
// SignOut does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) SignOut(ctx context.Context, credential string) error {
	_, err := g.do(ctx, http.MethodPost, "/logout", credential, nil, kindBearer)
	return err
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) Refresh(ctx context.Context, refreshCredential string) (*sessionkit.CredentialPair, error) {
	body := map[string]string{
		"refresh_token": refreshCredential,
	}

	env, err := g.do(ctx, http.MethodPost, "/refresh", "", body, kindBearer)
	if err != nil {
		return nil, err
	}
	if env.Token == "" {
		return nil, sessionkit.ErrServer
	}

	pair := &sessionkit.CredentialPair{
		Credential:        env.Token,
		RefreshCredential: env.RefreshToken,
	}
	// The backend does not rotate refresh credentials; keep using the one
	// we presented.
	if pair.RefreshCredential == "" {
		pair.RefreshCredential = refreshCredential
	}
	return pair, nil
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) CurrentUser(ctx context.Context, credential string) (*sessionkit.Identity, error) {
	env, err := g.do(ctx, http.MethodGet, "/me", credential, nil, kindBearer)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, sessionkit.ErrServer
	}
	return env.User, nil
}

// UpdateProfile describes the updateprofile operation and its observable behavior.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// UpdateProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) UpdateProfile(ctx context.Context, credential string, update sessionkit.ProfileUpdate) (*sessionkit.Profile, error) {
	env, err := g.do(ctx, http.MethodPut, "/profile", credential, update, kindBearer)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, sessionkit.ErrServer
	}
	profile := env.User.Profile
	return &profile, nil
}

// UpdatePreferences describes the updatepreferences operation and its observable behavior.
//
// UpdatePreferences may return an error when input validation, dependency calls, or security checks fail.
// UpdatePreferences does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) UpdatePreferences(ctx context.Context, credential string, update sessionkit.PreferencesUpdate) (*sessionkit.Preferences, error) {
	env, err := g.do(ctx, http.MethodPut, "/preferences", credential, update, kindBearer)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, sessionkit.ErrServer
	}
	preferences := env.User.Preferences
	return &preferences, nil
}

// DeleteAccount describes the deleteaccount operation and its observable behavior.
//
// DeleteAccount may return an error when input validation, dependency calls, or security checks fail.
// DeleteAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) DeleteAccount(ctx context.Context, credential string) error {
	_, err := g.do(ctx, http.MethodDelete, "/account", credential, nil, kindBearer)
	return err
}

func (g *HTTPGateway) do(ctx context.Context, method, path, credential string, body any, kind authKind) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Instance", g.instanceID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sessionkit.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, kind); err != nil {
		return nil, err
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: malformed response body", sessionkit.ErrServer)
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", sessionkit.ErrServer, env.Message)
	}
	return &env, nil
}

func classifyStatus(status int, kind authKind) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		if kind == kindCredentials {
			return sessionkit.ErrInvalidCredentials
		}
		return sessionkit.ErrUnauthorized
	case status == http.StatusBadRequest || status == http.StatusForbidden || status == http.StatusUnprocessableEntity:
		// 403 on login covers rejected-but-known principals, e.g. a
		// deactivated account.
		if kind == kindCredentials {
			return sessionkit.ErrInvalidCredentials
		}
		return fmt.Errorf("%w: status %d", sessionkit.ErrServer, status)
	default:
		return fmt.Errorf("%w: status %d", sessionkit.ErrServer, status)
	}
}

func grantFrom(env *envelope) (*sessionkit.AuthGrant, error) {
	if env.User == nil || env.Token == "" || env.RefreshToken == "" {
		return nil, sessionkit.ErrServer
	}
	return &sessionkit.AuthGrant{
		Identity: *env.User,
		Pair: sessionkit.CredentialPair{
			Credential:        env.Token,
			RefreshCredential: env.RefreshToken,
		},
	}, nil
}
