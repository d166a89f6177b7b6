package services

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
	"github.com/gtead/marketplace-backend/internal/utils"
)

// OIDCService is the delegated identity provider. The flow is the
// standard authorization-code exchange: BeginLogin builds the redirect,
// HandleCallback swaps the code for tokens, verifies the ID token against
// the provider's JWKS, and upserts the user by (provider, subject).
type OIDCService interface {
	BeginLogin(state string) string
	HandleCallback(ctx context.Context, code string) (*types.User, *ProviderTokens, error)
	// Refresh trades a refresh token for a fresh access token; used by
	// middleware when a delegated session's access token has expired.
	Refresh(ctx context.Context, refreshToken string) (*ProviderTokens, error)
}

// OIDCConfigured reports whether the delegated provider can be enabled.
func OIDCConfigured() bool {
	return utils.GetEnv("OIDC_ISSUER", "", nil) != "" &&
		utils.GetEnv("OIDC_CLIENT_ID", "", nil) != ""
}

type oidcService struct {
	log          *logger.Logger
	users        repos.UserRepo
	httpClient   *http.Client
	issuer       string
	clientID     string
	clientSecret string
	redirectURL  string
	providerName string

	discoveryOnce sync.Once
	discoveryErr  error
	discovery     oidcDiscovery

	jwks *jwksCache
}

type oidcDiscovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

func NewOIDCService(log *logger.Logger, users repos.UserRepo) (OIDCService, error) {
	issuer := strings.TrimRight(utils.GetEnv("OIDC_ISSUER", "", log), "/")
	clientID := utils.GetEnv("OIDC_CLIENT_ID", "", log)
	clientSecret := utils.GetEnv("OIDC_CLIENT_SECRET", "", log)
	redirectURL := utils.GetEnv("OIDC_REDIRECT_URL", "http://localhost:8080/api/auth/oidc/callback", log)
	if issuer == "" || clientID == "" {
		return nil, fmt.Errorf("OIDC_ISSUER and OIDC_CLIENT_ID are required")
	}
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &oidcService{
		log:          log.With("service", "OIDCService"),
		users:        users,
		httpClient:   httpClient,
		issuer:       issuer,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		providerName: utils.GetEnv("OIDC_PROVIDER_NAME", "oidc", log),
		jwks:         newJWKSCache(httpClient),
	}, nil
}

func (osv *oidcService) ensureDiscovery(ctx context.Context) error {
	osv.discoveryOnce.Do(func() {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, osv.issuer+"/.well-known/openid-configuration", nil)
		res, err := osv.httpClient.Do(req)
		if err != nil {
			osv.discoveryErr = err
			return
		}
		defer res.Body.Close()
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			osv.discoveryErr = fmt.Errorf("discovery request failed: %s", res.Status)
			return
		}
		if err := json.NewDecoder(res.Body).Decode(&osv.discovery); err != nil {
			osv.discoveryErr = err
			return
		}
		if osv.discovery.JWKSURI == "" || osv.discovery.TokenEndpoint == "" || osv.discovery.AuthorizationEndpoint == "" {
			osv.discoveryErr = fmt.Errorf("discovery document incomplete")
			return
		}
		osv.jwks.setURL(osv.discovery.JWKSURI)
	})
	return osv.discoveryErr
}

func (osv *oidcService) BeginLogin(state string) string {
	endpoint := osv.issuer + "/authorize"
	if err := osv.ensureDiscovery(context.Background()); err != nil {
		osv.log.Warn("OIDC discovery failed, sending issuer-relative authorize URL", "error", err)
	} else {
		endpoint = osv.discovery.AuthorizationEndpoint
	}
	q := url.Values{}
	q.Set("client_id", osv.clientID)
	q.Set("redirect_uri", osv.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	return endpoint + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (osv *oidcService) HandleCallback(ctx context.Context, code string) (*types.User, *ProviderTokens, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil, fmt.Errorf("missing authorization code")
	}
	if err := osv.ensureDiscovery(ctx); err != nil {
		return nil, nil, fmt.Errorf("oidc discovery: %w", err)
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", osv.redirectURL)
	tok, err := osv.tokenRequest(ctx, form)
	if err != nil {
		return nil, nil, err
	}

	claims, err := osv.verifyIDToken(ctx, tok.IDToken)
	if err != nil {
		return nil, nil, err
	}
	user, err := osv.upsertFromClaims(ctx, claims)
	if err != nil {
		return nil, nil, err
	}

	tokens := &ProviderTokens{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if tok.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
		tokens.ExpiresAt = &exp
	}
	return user, tokens, nil
}

func (osv *oidcService) Refresh(ctx context.Context, refreshToken string) (*ProviderTokens, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, fmt.Errorf("missing refresh token")
	}
	if err := osv.ensureDiscovery(ctx); err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	tok, err := osv.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	tokens := &ProviderTokens{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if tokens.RefreshToken == "" {
		// Providers may omit the refresh token on renewal; keep the old one.
		tokens.RefreshToken = refreshToken
	}
	if tok.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
		tokens.ExpiresAt = &exp
	}
	return tokens, nil
}

func (osv *oidcService) tokenRequest(ctx context.Context, form url.Values) (*tokenResponse, error) {
	form.Set("client_id", osv.clientID)
	if osv.clientSecret != "" {
		form.Set("client_secret", osv.clientSecret)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, osv.discovery.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := osv.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("token endpoint returned %s", res.Status)
	}
	var tok tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &tok, nil
}

func (osv *oidcService) verifyIDToken(ctx context.Context, idToken string) (jwt.MapClaims, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("token response missing id_token")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	claims := jwt.MapClaims{}
	tok, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("missing kid")
		}
		return osv.jwks.getKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid id_token: %w", err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid id_token")
	}
	iss, _ := claims["iss"].(string)
	if strings.TrimRight(iss, "/") != osv.issuer {
		return nil, fmt.Errorf("issuer mismatch: %q", iss)
	}
	if !audContains(claims["aud"], osv.clientID) {
		return nil, fmt.Errorf("audience mismatch")
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return nil, fmt.Errorf("missing sub")
	}
	return claims, nil
}

// upsertFromClaims maps provider claims onto the marketplace User shape.
// New delegated accounts default to the vendor role; role escalation only
// happens through local registration rules or an admin edit.
func (osv *oidcService) upsertFromClaims(ctx context.Context, claims jwt.MapClaims) (*types.User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	firstName, _ := claims["given_name"].(string)
	lastName, _ := claims["family_name"].(string)
	picture, _ := claims["picture"].(string)

	existing, err := osv.users.GetByProviderSubject(ctx, osv.providerName, sub)
	if err == nil {
		changed := false
		if email != "" && !strings.EqualFold(existing.Email, email) {
			existing.Email = strings.ToLower(email)
			changed = true
		}
		if picture != "" && existing.ProfileImageURL != picture {
			existing.ProfileImageURL = picture
			changed = true
		}
		if !changed {
			return existing, nil
		}
		return osv.users.Update(ctx, existing)
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return nil, fmt.Errorf("lookup provider subject: %w", err)
	}

	return osv.users.Create(ctx, &types.User{
		Email:           strings.ToLower(email),
		FirstName:       firstName,
		LastName:        lastName,
		ProfileImageURL: picture,
		Role:            types.RoleVendor,
		Provider:        osv.providerName,
		ProviderSubject: sub,
	})
}

func audContains(aud any, required string) bool {
	switch v := aud.(type) {
	case string:
		return v == required
	case []any:
		for _, it := range v {
			if s, ok := it.(string); ok && s == required {
				return true
			}
		}
	}
	return false
}

// ----- JWKS cache -----

type jwksCache struct {
	httpClient *http.Client

	mu        sync.RWMutex
	jwksURL   string
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	ttl       time.Duration
}

func newJWKSCache(httpClient *http.Client) *jwksCache {
	return &jwksCache{
		httpClient: httpClient,
		keys:       map[string]*rsa.PublicKey{},
		ttl:        6 * time.Hour,
	}
}

func (j *jwksCache) setURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jwksURL = url
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (j *jwksCache) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	j.mu.RLock()
	key := j.keys[kid]
	stale := time.Since(j.fetchedAt) > j.ttl
	url := j.jwksURL
	j.mu.RUnlock()

	if key != nil && !stale {
		return key, nil
	}
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("jwks url not set")
	}
	if err := j.refresh(ctx, url); err != nil {
		// A stale key beats no key when the refresh fails.
		j.mu.RLock()
		key = j.keys[kid]
		j.mu.RUnlock()
		if key != nil {
			return key, nil
		}
		return nil, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	key = j.keys[kid]
	if key == nil {
		return nil, fmt.Errorf("kid not found in jwks: %s", kid)
	}
	return key, nil
}

func (j *jwksCache) refresh(ctx context.Context, url string) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	res, err := j.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("jwks fetch failed: %s", res.Status)
	}
	var set jwkSet
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return err
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	j.mu.Lock()
	j.keys = keys
	j.fetchedAt = time.Now()
	j.mu.Unlock()
	return nil
}

func rsaKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
