package transport

import (
	"context"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/logging"
)

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"

	grantPassword = "password"
	grantRefresh  = "refresh_token"
)

// LoginConfig carries the roster identity endpoint settings.
type LoginConfig struct {
	URL      string // token endpoint, e.g. https://auth.example.net/oauth2/token
	Username string
	Password string
	Timezone string // IANA zone the roster account reports in
	Origin   string // Origin header value the identity endpoint requires
}

// TokenSource logs into the roster identity endpoint with the OAuth2
// password grant and caches the bearer token until shortly before its
// server-side expiry. When a refresh token was issued it is used to
// renew the session without re-sending the password.
type TokenSource struct {
	system string
	cfg    LoginConfig
	client *Client
	cache  *gocache.Cache

	mu sync.Mutex // serializes logins so only one request hits the endpoint
}

// TokenSourceOption configures a TokenSource.
type TokenSourceOption func(*TokenSource)

// WithLoginHTTPClient substitutes the HTTP client used for login
// round-trips.
func WithLoginHTTPClient(c *Client) TokenSourceOption {
	return func(s *TokenSource) {
		if c != nil {
			s.client = c
		}
	}
}

// NewTokenSource returns a TokenSource for one system's identity
// endpoint.
func NewTokenSource(system string, cfg LoginConfig, opts ...TokenSourceOption) *TokenSource {
	s := &TokenSource{
		system: system,
		cfg:    cfg,
		cache:  gocache.New(constants.TokenCacheTTL, constants.TokenCacheCleanupInterval),
	}
	clientOpts := []ClientOption{WithTimeout(constants.LoginTimeout)}
	if cfg.Origin != "" {
		clientOpts = append(clientOpts, WithHeader("Origin", cfg.Origin))
	}
	s.client = New(system, &NoAuth{}, nil, clientOpts...)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credential implements the CredentialSource interface. It returns the
// cached access token when one is still valid and logs in otherwise.
func (s *TokenSource) Credential(ctx context.Context) (string, error) {
	if token, ok := s.cache.Get(accessTokenKey); ok {
		return token.(string), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request may have logged in while we waited for the lock.
	if token, ok := s.cache.Get(accessTokenKey); ok {
		return token.(string), nil
	}
	return s.login(ctx)
}

// Invalidate drops the cached tokens, forcing the next request to log
// in again. Sources call this after a credential rejection.
func (s *TokenSource) Invalidate() {
	s.cache.Delete(accessTokenKey)
	s.cache.Delete(refreshTokenKey)
}

// tokenResponse is the identity endpoint's grant response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (s *TokenSource) login(ctx context.Context) (string, error) {
	log := logging.Ctx(ctx)

	if refresh, ok := s.cache.Get(refreshTokenKey); ok {
		token, err := s.grant(ctx, url.Values{
			"grant_type":    {grantRefresh},
			"refresh_token": {refresh.(string)},
		}, grantRefresh)
		if err == nil {
			return token, nil
		}
		// A stale refresh token is recoverable; fall back to the
		// password grant.
		log.Warn().Err(err).Str("system", s.system).Msg("refresh grant failed, retrying with password grant")
		s.cache.Delete(refreshTokenKey)
	}

	if s.cfg.Username == "" || s.cfg.Password == "" {
		return "", &errors.AuthenticationError{
			System:  s.system,
			Method:  grantPassword,
			Message: "username and password are required",
			Err:     errors.ErrCredentialsRequired,
		}
	}

	form := url.Values{
		"username":   {s.cfg.Username},
		"password":   {s.cfg.Password},
		"rememberMe": {"true"},
		"grant_type": {grantPassword},
	}
	if s.cfg.Timezone != "" {
		form.Set("timezone", s.cfg.Timezone)
	}
	return s.grant(ctx, form, grantPassword)
}

func (s *TokenSource) grant(ctx context.Context, form url.Values, method string) (string, error) {
	log := logging.Ctx(ctx)

	var tr tokenResponse
	if err := s.client.PostForm(ctx, s.cfg.URL, form, &tr); err != nil {
		return "", &errors.AuthenticationError{
			System:  s.system,
			Method:  method,
			Message: "login failed",
			Err:     err,
		}
	}
	if tr.AccessToken == "" {
		return "", &errors.AuthenticationError{
			System:  s.system,
			Method:  method,
			Message: "identity endpoint returned no access token",
		}
	}

	ttl := constants.TokenCacheTTL
	if tr.ExpiresIn > 0 {
		ttl = time.Duration(tr.ExpiresIn)*time.Second - constants.TokenRefreshMargin
		if ttl < 30*time.Second {
			ttl = 30 * time.Second
		}
	}
	s.cache.Set(accessTokenKey, tr.AccessToken, ttl)
	if tr.RefreshToken != "" {
		s.cache.Set(refreshTokenKey, tr.RefreshToken, constants.TokenCacheTTL)
	}

	log.Debug().
		Str("system", s.system).
		Str("grant", method).
		Dur("ttl", ttl).
		Msg("access token obtained")
	return tr.AccessToken, nil
}
