package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"visitor-relay/internal/common/config"
)

// Client talks to a Reddit-style community board through the script-app
// OAuth flow. Safe for concurrent use.
type Client struct {
	baseURL      string
	authURL      string
	username     string
	password     string
	clientID     string
	clientSecret string
	userAgent    string
	httpClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// SubmitRequest describes one post submission. Exactly one of URL / Text is
// set: a link post carries URL, a self post carries Text (possibly empty).
type SubmitRequest struct {
	Board    string
	Title    string
	URL      string
	Text     *string
	Resubmit bool
}

// SubmitResult is the board's answer in either of its two shapes: a direct
// permalink, or a post handle the short link is derived from.
type SubmitResult struct {
	DirectLink string
	PostID     string
}

// CanonicalLink normalizes both result shapes to a single stable permalink.
func (r SubmitResult) CanonicalLink() string {
	if r.DirectLink != "" {
		return r.DirectLink
	}
	return "https://redd.it/" + r.PostID
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type submitResponse struct {
	JSON struct {
		Errors [][]string `json:"errors"`
		Data   struct {
			URL  string `json:"url"`
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	} `json:"json"`
}

func NewClient(cfg config.BoardConfig) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		authURL:      cfg.AuthURL,
		username:     cfg.Username,
		password:     cfg.Password,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userAgent:    cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
	}
}

// Submit posts to the board and returns the result in whichever shape the
// board answered with. Resubmit requests never fail on duplicate titles or
// URLs; the board creates a new post.
func (c *Client) Submit(ctx context.Context, sub SubmitRequest) (*SubmitResult, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with board: %w", err)
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("sr", sub.Board)
	form.Set("title", sub.Title)
	if sub.URL != "" {
		form.Set("kind", "link")
		form.Set("url", sub.URL)
	} else {
		form.Set("kind", "self")
		if sub.Text != nil {
			form.Set("text", *sub.Text)
		}
	}
	if sub.Resubmit {
		form.Set("resubmit", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submit", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to submit post (status %d): %s", resp.StatusCode, string(body))
	}

	var submitResp submitResponse
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(submitResp.JSON.Errors) > 0 {
		return nil, fmt.Errorf("post submission failed: %v", submitResp.JSON.Errors[0])
	}

	result := &SubmitResult{
		DirectLink: submitResp.JSON.Data.URL,
		PostID:     submitResp.JSON.Data.ID,
	}
	if result.DirectLink == "" && result.PostID == "" {
		return nil, fmt.Errorf("no link or post id in response")
	}

	return result, nil
}

// ensureToken returns a cached access token, refreshing it through the
// password grant when missing or expired.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}

	c.token = tok.AccessToken
	// Refresh one minute early so in-flight requests never carry a token
	// that expires mid-call.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)

	return c.token, nil
}
