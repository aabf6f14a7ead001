// SPDX-License-Identifier: MPL-2.0

package hosting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pyrelease/pyrelease/internal/version"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout bounds every API request made by a client built with defaults.
	DefaultTimeout = 15 * time.Second

	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

var (
	// ErrRepositoryNotFound is returned when the repository is private or does not exist.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrUnexpectedStatus is returned for HTTP status codes the client does not handle.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrMalformedResponse is returned when a release payload cannot be interpreted.
	ErrMalformedResponse = errors.New("malformed release response")
)

type (
	// RateLimitError is returned when the GitHub API rate limit is exceeded.
	RateLimitError struct {
		Limit     int
		Remaining int
		ResetAt   time.Time
	}

	// latestRelease is the JSON wire format of GET /repos/{owner}/{repo}/releases/latest.
	// TagName is a pointer so that an absent field is distinguishable from "".
	latestRelease struct {
		TagName     *string `json:"tag_name"`
		Name        string  `json:"name"`
		HTMLURL     string  `json:"html_url"`
		Draft       bool    `json:"draft"`
		Prerelease  bool    `json:"prerelease"`
		PublishedAt string  `json:"published_at"`
	}

	// repository is the JSON wire format of GET /repos/{owner}/{repo}.
	repository struct {
		FullName string `json:"full_name"`
		HTMLURL  string `json:"html_url"`
		Private  bool   `json:"private"`
	}

	// Client queries the GitHub Releases API.
	Client struct {
		httpClient *http.Client
		baseURL    string // API base URL (overridable for tests and GitHub Enterprise)
		token      string // Optional GITHUB_TOKEN for authenticated requests
		userAgent  string // User-Agent header value
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// Error formats the rate limit details as a human-readable message.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded (%d remaining, resets at %s)",
		e.Remaining, e.ResetAt.UTC().Format("15:04 UTC"))
}

// WithHTTPClient sets a custom HTTP client. The caller owns its timeout.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithTimeout replaces the default client with one bounded by d.
// Non-positive values keep the default timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(g *Client) {
		if d > 0 {
			g.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithBaseURL overrides the GitHub API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		if base != "" {
			g.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken sets a GitHub personal access token for authenticated requests.
// Authenticated requests have a higher rate limit (5000/hour vs 60/hour) and
// can see private repositories the token has access to.
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		g.userAgent = ua
	}
}

// NewClient creates a Client with defaults: the public API base URL, a
// DefaultTimeout-bounded HTTP client and userAgent "pyrelease/dev".
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		userAgent:  "pyrelease/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestRelease asks for the latest published release of owner/repo.
//
// GitHub answers 404 on releases/latest both when the repository has no
// release and when it is private or missing, so a 404 is followed by a
// request for the repository itself to tell the two apart.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) Lookup {
	if owner == "" || repo == "" {
		return unreachable(fmt.Errorf("%w: owner and repository are required", ErrRepositoryNotFound))
	}

	latestURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	resp, err := c.doRequest(ctx, latestURL)
	if err != nil {
		return unreachable(fmt.Errorf("getting latest release: %w", err))
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := checkRateLimit(resp); err != nil {
		return unreachable(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return decodeLatestRelease(io.LimitReader(resp.Body, maxJSONResponseBytes))
	case http.StatusNotFound:
		return c.probeRepository(ctx, owner, repo)
	default:
		return unreachable(fmt.Errorf("getting latest release: %w %d", ErrUnexpectedStatus, resp.StatusCode))
	}
}

// probeRepository distinguishes "exists without releases" from "not visible".
func (c *Client) probeRepository(ctx context.Context, owner, repo string) Lookup {
	repoURL := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	resp, err := c.doRequest(ctx, repoURL)
	if err != nil {
		return unreachable(fmt.Errorf("getting repository: %w", err))
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := checkRateLimit(resp); err != nil {
		return unreachable(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var r repository
		// The body only feeds the browser URL; a decode failure does not change the outcome.
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&r) //nolint:errcheck // Best-effort.
		return Lookup{State: StateNoReleases, URL: r.HTMLURL}
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		return unreachable(fmt.Errorf("%w: %s/%s (private or nonexistent)", ErrRepositoryNotFound, owner, repo))
	default:
		return unreachable(fmt.Errorf("getting repository: %w %d", ErrUnexpectedStatus, resp.StatusCode))
	}
}

// doRequest creates and executes a GET request with common GitHub API headers.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// decodeLatestRelease parses the releases/latest payload into a Lookup.
func decodeLatestRelease(body io.Reader) Lookup {
	var lr latestRelease
	if err := json.NewDecoder(body).Decode(&lr); err != nil {
		return malformed("", fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}
	if lr.TagName == nil {
		return malformed("", fmt.Errorf("%w: tag_name is absent", ErrMalformedResponse))
	}

	tag := *lr.TagName
	v, err := version.Parse(tag)
	if err != nil {
		return malformed(tag, fmt.Errorf("%w: tag %q: %w", ErrMalformedResponse, tag, err))
	}

	return Lookup{State: StateReleased, Version: v, Tag: tag, URL: lr.HTMLURL}
}

// checkRateLimit returns a RateLimitError when GitHub rejected the request
// (403 or 429) and the X-RateLimit-Remaining header is zero. A successful
// response that used up the last request of the quota is still served.
func checkRateLimit(resp *http.Response) error {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return nil //nolint:nilerr // Non-numeric header is non-fatal.
	}

	// Malformed or missing companion values default to zero, which is fine
	// for a diagnostic message.
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                 //nolint:errcheck // Best-effort header parsing.
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // Best-effort header parsing.

	return &RateLimitError{
		Limit:     limit,
		Remaining: 0,
		ResetAt:   time.Unix(resetUnix, 0),
	}
}
