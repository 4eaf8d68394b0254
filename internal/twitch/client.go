package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/manofshad/vodhunter-go/internal/apperr"
)

const (
	oauthTokenURL = "https://id.twitch.tv/oauth2/token"
	helixBaseURL  = "https://api.twitch.tv/helix"
)

// Archive is the latest-VOD metadata the archive-follower needs to
// decide whether to switch to a new broadcast.
type Archive struct {
	PlatformID      string
	URL             string
	Title           string
	DurationSeconds int
	CreatedAt       time.Time
}

// Client is the capability set the archive-follower and monitor
// supervisor depend on.
type Client interface {
	IsLive(ctx context.Context, user string) (bool, error)
	GetUserID(ctx context.Context, user string) (string, error)
	GetLatestArchive(ctx context.Context, userID string) (*Archive, error)
}

// HelixClient implements Client against the real Twitch Helix API
// using the client_credentials OAuth2 flow, grounded on
// original_source/services/twitch_monitor.py: the access token is
// fetched lazily on first use and refreshed exactly once if a call
// comes back 401.
type HelixClient struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu    sync.Mutex
	token string
}

// NewHelixClient returns a HelixClient, or a FatalConfig error if
// credentials are missing.
func NewHelixClient(clientID, clientSecret string, timeout time.Duration) (*HelixClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, apperr.FatalConfigf("twitch: client id and client secret are required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HelixClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

func (c *HelixClient) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oauthTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("twitch: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Transientf("twitch: fetch access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.Transientf("twitch: token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperr.Transientf("twitch: decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", apperr.Transientf("twitch: token response had no access_token")
	}
	return body.AccessToken, nil
}

func (c *HelixClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	token, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

func (c *HelixClient) refreshToken(ctx context.Context) (string, error) {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

// helixGet performs a GET against helixBaseURL+path, retrying exactly
// once with a refreshed token on a 401, matching twitch_monitor.py's
// is_live retry behavior.
func (c *HelixClient) helixGet(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	do := func(tok string) (*http.Response, error) {
		reqURL := helixBaseURL + path
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("twitch: build request: %w", err)
		}
		req.Header.Set("Client-Id", c.clientID)
		req.Header.Set("Authorization", "Bearer "+tok)
		return c.httpClient.Do(req)
	}

	resp, err := do(token)
	if err != nil {
		return nil, apperr.Transientf("twitch: helix request: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		freshToken, err := c.refreshToken(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = do(freshToken)
		if err != nil {
			return nil, apperr.Transientf("twitch: helix request after token refresh: %w", err)
		}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, apperr.Transientf("twitch: helix returned %d for %s", resp.StatusCode, path)
	}
	return resp, nil
}

// IsLive reports whether user currently has a live stream.
func (c *HelixClient) IsLive(ctx context.Context, user string) (bool, error) {
	user = strings.ToLower(strings.TrimSpace(user))
	if user == "" {
		return false, apperr.Inputf("twitch: streamer is required")
	}

	resp, err := c.helixGet(ctx, "/streams", url.Values{"user_login": {user}})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var body struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, apperr.Transientf("twitch: decode streams response: %w", err)
	}
	return len(body.Data) > 0, nil
}

// GetUserID resolves a login name to its numeric Helix user id.
func (c *HelixClient) GetUserID(ctx context.Context, user string) (string, error) {
	user = strings.ToLower(strings.TrimSpace(user))
	if user == "" {
		return "", apperr.Inputf("twitch: streamer is required")
	}

	resp, err := c.helixGet(ctx, "/users", url.Values{"login": {user}})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperr.Transientf("twitch: decode users response: %w", err)
	}
	if len(body.Data) == 0 {
		return "", apperr.Inputf("twitch: unknown streamer %q", user)
	}
	return body.Data[0].ID, nil
}

// GetLatestArchive returns the most recently created VOD for userID,
// per the S6 scenario: among the returned videos, the one with the
// latest created_at wins. Returns (nil, nil) if the user has no
// archives.
func (c *HelixClient) GetLatestArchive(ctx context.Context, userID string) (*Archive, error) {
	if userID == "" {
		return nil, apperr.Inputf("twitch: user id is required")
	}

	resp, err := c.helixGet(ctx, "/videos", url.Values{
		"user_id": {userID},
		"type":    {"archive"},
		"first":   {"5"},
		"sort":    {"time"},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Data []struct {
			ID        string `json:"id"`
			URL       string `json:"url"`
			Title     string `json:"title"`
			Duration  string `json:"duration"`
			CreatedAt string `json:"created_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.Transientf("twitch: decode videos response: %w", err)
	}
	if len(body.Data) == 0 {
		return nil, nil
	}

	var latest *Archive
	var latestCreated time.Time
	for _, v := range body.Data {
		createdAt, err := time.Parse(time.RFC3339, v.CreatedAt)
		if err != nil {
			continue
		}
		if latest == nil || createdAt.After(latestCreated) {
			latestCreated = createdAt
			latest = &Archive{
				PlatformID:      v.ID,
				URL:             v.URL,
				Title:           v.Title,
				DurationSeconds: parseHelixDuration(v.Duration),
				CreatedAt:       createdAt,
			}
		}
	}
	return latest, nil
}

// parseHelixDuration parses Twitch's compact duration format
// ("1h2m3s") into whole seconds, per spec.md §8/S5. An empty or
// unparseable string yields 0.
func parseHelixDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	total := 0
	num := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
		case r == 'h':
			total += num * 3600
			num = 0
		case r == 'm':
			total += num * 60
			num = 0
		case r == 's':
			total += num
			num = 0
		default:
			num = 0
		}
	}
	return total
}
