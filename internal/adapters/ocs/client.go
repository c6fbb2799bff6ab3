package ocs

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tgruber/ncusers/internal/domain"
)

const (
	basePath     = "ocs/v1.php/"
	serviceCloud = "cloud"

	apiRequestHeader = "OCS-APIREQUEST"

	maxResponseBytes = 1 << 20
)

// Options configure a Client. The zero value verifies TLS certificates, uses
// a default HTTP client with a 30s timeout, and stays quiet.
type Options struct {
	InsecureSkipVerify bool
	Debug              bool
	DebugOut           io.Writer
	HTTPClient         *http.Client
	Timeout            time.Duration
}

// Client speaks the OCS provisioning protocol against one server. A Client
// holds at most one authenticated session and is not safe for use by
// concurrent batch runs.
type Client struct {
	baseURL string
	opts    Options
	httpc   *http.Client

	username     string
	secret       string
	loggedIn     bool
	capabilities domain.Capabilities
	version      string
}

// NewClient validates and normalizes baseURL (a trailing slash is always
// appended) and returns an unauthenticated client.
func NewClient(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("server url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("server url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("server url host is required")
	}

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	httpc := opts.HTTPClient
	if httpc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
		if opts.InsecureSkipVerify {
			httpc.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}

	return &Client{
		baseURL: baseURL,
		opts:    opts,
		httpc:   httpc,
	}, nil
}

// Login stores the credentials and immediately runs a capability probe to
// validate them. On any probe failure the session is torn down again, so a
// Client is either fully authenticated or not authenticated at all.
func (c *Client) Login(ctx context.Context, userID, secret string) error {
	c.username = userID
	c.secret = secret
	c.loggedIn = true

	if _, err := c.Capabilities(ctx); err != nil {
		c.reset()
		return fmt.Errorf("validate credentials: %w", err)
	}

	return nil
}

// Logout discards the session unconditionally.
func (c *Client) Logout() {
	c.reset()
}

func (c *Client) reset() {
	c.username = ""
	c.secret = ""
	c.loggedIn = false
	c.capabilities = nil
	c.version = ""
}

// ServerVersion reports the version string captured by the last capability
// probe, empty before login.
func (c *Client) ServerVersion() string {
	return c.version
}

// ServerCapabilities reports the capability tree captured by the last
// capability probe, nil before login.
func (c *Client) ServerCapabilities() domain.Capabilities {
	return c.capabilities
}

// Capabilities fetches the server's capability tree and version string and
// caches both on the client.
func (c *Client) Capabilities(ctx context.Context) (domain.ServerInfo, error) {
	body, err := c.request(ctx, http.MethodGet, serviceCloud, "capabilities", nil)
	if err != nil {
		return domain.ServerInfo{}, err
	}

	env, err := parseEnvelope(body, domain.StatusOK)
	if err != nil {
		return domain.ServerInfo{}, err
	}

	info := domain.ServerInfo{
		Version:      env.Data.Version.versionString(),
		Capabilities: env.Data.Capabilities.toMap(),
	}
	c.capabilities = info.Capabilities
	c.version = info.Version

	return info, nil
}

// SearchUsers returns every username containing query as a substring. An
// empty query lists all users.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]string, error) {
	action := "users"
	if query != "" {
		action += "?search=" + url.QueryEscape(query)
	}

	body, err := c.request(ctx, http.MethodGet, serviceCloud, action, nil)
	if err != nil {
		return nil, err
	}

	env, err := parseEnvelope(body, domain.StatusOK)
	if err != nil {
		return nil, err
	}

	return env.Data.Users, nil
}

// UserExists reports whether name exists exactly. The provisioning API has
// no exact-match endpoint, so this wraps the substring search once with a
// containment check; call sites must not reimplement it against SearchUsers.
func (c *Client) UserExists(ctx context.Context, name string) (bool, error) {
	users, err := c.SearchUsers(ctx, name)
	if err != nil {
		return false, err
	}

	for _, user := range users {
		if user == name {
			return true, nil
		}
	}

	return false, nil
}

// CreateUser creates name with an initial password. Only status 100 counts
// as success; an already-existing user surfaces as *domain.APIError with
// code 102 rather than as a silent no-op.
func (c *Client) CreateUser(ctx context.Context, name, initialPassword string) error {
	form := url.Values{}
	form.Set("userid", name)
	form.Set("password", initialPassword)

	body, err := c.request(ctx, http.MethodPost, serviceCloud, "users", form)
	if err != nil {
		return err
	}

	_, err = parseEnvelope(body, domain.StatusOK)
	return err
}

// SearchGroups returns every group name containing query as a substring.
func (c *Client) SearchGroups(ctx context.Context, query string) ([]string, error) {
	body, err := c.request(ctx, http.MethodGet, serviceCloud, "groups?search="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}

	env, err := parseEnvelope(body, domain.StatusOK)
	if err != nil {
		return nil, err
	}

	return env.Data.Groups, nil
}

// GroupExists reports whether name exists exactly within the search results.
func (c *Client) GroupExists(ctx context.Context, name string) (bool, error) {
	groups, err := c.SearchGroups(ctx, name)
	if err != nil {
		return false, err
	}

	for _, group := range groups {
		if group == name {
			return true, nil
		}
	}

	return false, nil
}

// AddUserToGroup adds user to group.
func (c *Client) AddUserToGroup(ctx context.Context, user, group string) error {
	form := url.Values{}
	form.Set("groupid", group)

	body, err := c.request(ctx, http.MethodPost, serviceCloud, "users/"+url.PathEscape(user)+"/groups", form)
	if err != nil {
		return err
	}

	_, err = parseEnvelope(body, domain.StatusOK)
	return err
}

// request issues one OCS call and applies the HTTP-layer half of the
// classification: any status other than 200 becomes *domain.TransportError
// carrying the raw body. The application-layer half lives in parseEnvelope.
func (c *Client) request(ctx context.Context, method, service, action string, form url.Values) ([]byte, error) {
	if !c.loggedIn {
		return nil, domain.ErrNotLoggedIn
	}

	endpoint := c.baseURL + basePath + service + "/" + action

	var payload io.Reader
	if form != nil {
		payload = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("create ocs request: %w", err)
	}
	req.Header.Set(apiRequestHeader, "true")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.SetBasicAuth(c.username, c.secret)

	if c.opts.Debug && c.opts.DebugOut != nil {
		_, _ = fmt.Fprintf(c.opts.DebugOut, "ocs request: %s %s\n", method, endpoint)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("issue ocs request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read ocs response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{StatusCode: resp.StatusCode, Body: body}
	}

	return body, nil
}
