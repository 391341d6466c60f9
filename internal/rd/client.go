// A small client for the Real-Debrid REST API. Tokens are passed per
// call because the coordinator acts on behalf of several accounts.

package rd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RejectedError reports that the provider itself refused the request,
// typically because the token is invalid or the account is locked.
// Anything else (timeouts, 5xx, garbled responses) is returned as a
// plain error so callers can treat it as transient.
type RejectedError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("realdebrid rejected request (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("realdebrid rejected request (%d)", e.StatusCode)
}

// IsRejected reports whether err is an explicit refusal from the
// provider rather than a transient failure.
func IsRejected(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given API base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// User fetches the account behind a token. The provider reports the
// premium expiration as an RFC3339 timestamp; a missing or unparsable
// value is returned as a nil ExpiresAt.
func (c *Client) User(ctx context.Context, token string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var result userResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if result.Expiration != "" {
		t, err := time.Parse(time.RFC3339, result.Expiration)
		if err == nil {
			expiresAt = &t
		}
	}

	return &Account{
		Username:  result.Username,
		Premium:   result.Type == "premium",
		ExpiresAt: expiresAt,
	}, nil
}

// UnrestrictLink turns a hoster link into a direct-download link under
// the given token's account.
func (c *Client) UnrestrictLink(ctx context.Context, token, link string) (*Unrestricted, error) {
	form := url.Values{}
	form.Set("link", link)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/unrestrict/link", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var result unrestrictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if result.Error != "" {
		return nil, fmt.Errorf("realdebrid error: %s", result.Error)
	}

	return &Unrestricted{
		URL:      result.Link,
		Filename: result.Filename,
		Filesize: result.Filesize,
	}, nil
}

// checkStatus maps 401 and 403 to RejectedError and every other
// non-2xx status to a plain error. The error body, when present, looks
// like {"error": "bad_token", "error_code": 8}.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &RejectedError{
			StatusCode: resp.StatusCode,
			Code:       body.ErrorCode,
			Message:    body.Error,
		}
	}
	if body.Error != "" {
		return fmt.Errorf("realdebrid returned status %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("realdebrid returned status %d", resp.StatusCode)
}
