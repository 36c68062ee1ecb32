package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paiecash/wallet-api/internal/config"
	"github.com/paiecash/wallet-api/internal/identity"
)

// ErrProviderUnavailable indicates the identity provider rejected or failed a
// call during the authorization-code flow.
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// OAuthClient performs the authorization-code exchange against the external
// identity provider and fetches the user profile.
type OAuthClient struct {
	cfg    config.OAuth
	client *http.Client
}

// NewOAuthClient builds a client from the injected provider configuration.
func NewOAuthClient(cfg config.OAuth) *OAuthClient {
	return &OAuthClient{cfg: cfg, client: &http.Client{Timeout: 15 * time.Second}}
}

// AuthURL builds the provider's authorization endpoint URL for a login redirect.
func (c *OAuthClient) AuthURL(state string) string {
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {c.cfg.RedirectURI},
		"scope":         {"openid profile email"},
		"state":         {state},
	}
	return c.cfg.Issuer + "/api/auth/authorize?" + q.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Exchange swaps an authorization code for an access token.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.cfg.RedirectURI},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Issuer+"/api/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var decoded tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", ErrProviderUnavailable, err)
	}
	if decoded.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrProviderUnavailable)
	}
	return decoded.AccessToken, nil
}

type userInfoResponse struct {
	Subject  string            `json:"sub"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	UserType string            `json:"user_type"`
	Metadata map[string]string `json:"metadata"`
}

// UserInfo fetches the authenticated user's profile from the provider.
func (c *OAuthClient) UserInfo(ctx context.Context, accessToken string) (identity.Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Issuer+"/api/auth/userinfo", nil)
	if err != nil {
		return identity.Claims{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return identity.Claims{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return identity.Claims{}, fmt.Errorf("%w: userinfo status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var decoded userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return identity.Claims{}, fmt.Errorf("%w: decode userinfo: %v", ErrProviderUnavailable, err)
	}
	if decoded.Subject == "" {
		return identity.Claims{}, fmt.Errorf("%w: userinfo without subject", ErrProviderUnavailable)
	}
	return identity.Claims{
		Subject:  decoded.Subject,
		Email:    decoded.Email,
		Name:     decoded.Name,
		UserType: decoded.UserType,
		Metadata: decoded.Metadata,
	}, nil
}
