package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/allisson/possync/internal/errors"
)

// expirySkew is how early a cached token is treated as expired, so a token
// that dies mid-request is refreshed before it is used.
const expirySkew = 30 * time.Second

// RefreshingTokenSource exchanges a long-lived refresh token for short-lived
// access tokens and caches the current one until it nears expiry.
type RefreshingTokenSource struct {
	baseURL      string
	refreshToken string
	httpClient   *http.Client
	logger       *slog.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// NewRefreshingTokenSource creates a new RefreshingTokenSource.
func NewRefreshingTokenSource(config Config, refreshToken string, logger *slog.Logger) *RefreshingTokenSource {
	return &RefreshingTokenSource{
		baseURL:      config.BaseURL,
		refreshToken: refreshToken,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
		now:    time.Now,
	}
}

// AccessToken returns the cached access token, refreshing it first when it is
// missing or about to expire.
func (s *RefreshingTokenSource) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && s.now().Add(expirySkew).Before(s.expiresAt) {
		return s.accessToken, nil
	}

	return s.refresh(ctx)
}

// Refresh discards the cached token and fetches a new one. The dispatcher
// calls this once per drain when the server answers 401 despite a token the
// cache still considered valid.
func (s *RefreshingTokenSource) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
	return s.refresh(ctx)
}

// refreshResponse is the token endpoint's success body.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// refresh performs the token exchange. Callers hold s.mu.
func (s *RefreshingTokenSource) refresh(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": s.refreshToken})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/refresh",
		bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "refresh token rejected")
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			return "", apperrors.Wrap(apperrors.ErrUnreachable, "token endpoint unavailable")
		}
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "token refresh failed")
	}

	var tokenResp refreshResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", apperrors.Wrap(err, "failed to decode token response")
	}
	if tokenResp.AccessToken == "" {
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "token endpoint returned no access token")
	}

	s.accessToken = tokenResp.AccessToken
	s.expiresAt = tokenExpiry(tokenResp.AccessToken, s.now())

	if s.logger != nil {
		s.logger.Debug("access token refreshed",
			slog.Time("expires_at", s.expiresAt),
		)
	}

	return s.accessToken, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the server
// verifies, the client only needs to know when to refresh. Tokens without a
// readable exp get a short fixed lifetime.
func tokenExpiry(accessToken string, now time.Time) time.Time {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err == nil {
		if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return now.Add(5 * time.Minute)
}
