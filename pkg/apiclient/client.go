package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fuel-client/pkg/auth"
	"fuel-client/pkg/version"
)

const (
	apiPrefix    = "/api/v1/"
	keystonePath = "/keystone/v2.0/tokens"
)

// Options configures a Client.
type Options struct {
	// ServerURL is the scheme://host:port of the control plane, without the API prefix.
	ServerURL string

	Username string
	Password string
	Tenant   string
	// Token, when set, is used instead of authenticating with the credentials
	// (unless it is a JWT that already expired).
	Token string

	CAFile   string
	CertFile string
	KeyFile  string
	Insecure bool
	Timeout  time.Duration

	// Logger receives one line per request. Nil discards.
	Logger *log.Logger
	// HTTPClient overrides the client built from the TLS options.
	HTTPClient *http.Client
}

// Client is the HTTP collaborator shared by every command: it sends JSON
// requests to the API root and turns non-2xx responses into *APIError.
type Client struct {
	server   *url.URL
	http     *http.Client
	logger   *log.Logger
	username string
	password string
	tenant   string

	mu    sync.Mutex
	token string
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.ServerURL) == "" {
		return nil, fmt.Errorf("server url is required")
	}
	u, err := url.Parse(strings.TrimRight(opts.ServerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must include scheme and host", opts.ServerURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc, err = buildHTTPClient(opts.CAFile, opts.CertFile, opts.KeyFile, opts.Insecure, opts.Timeout)
		if err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		server:   u,
		http:     hc,
		logger:   logger,
		username: opts.Username,
		password: opts.Password,
		tenant:   opts.Tenant,
		token:    opts.Token,
	}, nil
}

// URL returns the absolute URL of an API path such as "clusters/1/".
func (c *Client) URL(path string, query url.Values) string {
	u := *c.server
	u.Path = strings.TrimRight(c.server.Path, "/") + apiPrefix + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Get decodes the JSON body of GET path into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, c.URL(path, query), nil, true)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// GetRaw returns the undecoded body of GET path.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.URL(path, query), nil, true)
}

// Put sends payload as JSON and decodes the response into out (when non-nil).
func (c *Client) Put(ctx context.Context, path string, query url.Values, payload, out any) error {
	body, err := c.do(ctx, http.MethodPut, c.URL(path, query), payload, true)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// Post sends payload as JSON and decodes the response into out (when non-nil).
func (c *Client) Post(ctx context.Context, path string, payload, out any) error {
	body, err := c.do(ctx, http.MethodPost, c.URL(path, nil), payload, true)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) do(ctx context.Context, method, target string, payload any, authenticated bool) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token, err := c.Token(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("X-Auth-Token", token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("%s %s failed: %v", method, target, err)
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), target, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Printf("%s %s status=%d took=%s", method, target, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, target, resp, body)
	}
	return body, nil
}

// Token returns the auth token, authenticating against keystone when no
// usable token is cached. Without credentials it returns "".
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && !auth.Expired(c.token, time.Now()) {
		return c.token, nil
	}
	if c.password == "" {
		if c.token != "" {
			return "", fmt.Errorf("auth token expired and no password configured")
		}
		return "", nil
	}
	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

type keystoneRequest struct {
	Auth keystoneAuth `json:"auth"`
}

type keystoneAuth struct {
	TenantName          string              `json:"tenantName,omitempty"`
	PasswordCredentials passwordCredentials `json:"passwordCredentials"`
}

type passwordCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type keystoneResponse struct {
	Access struct {
		Token struct {
			ID      string `json:"id"`
			Expires string `json:"expires"`
		} `json:"token"`
	} `json:"access"`
}

func (c *Client) login(ctx context.Context) (string, error) {
	u := *c.server
	u.Path = strings.TrimRight(c.server.Path, "/") + keystonePath
	req := keystoneRequest{Auth: keystoneAuth{
		TenantName:          c.tenant,
		PasswordCredentials: passwordCredentials{Username: c.username, Password: c.password},
	}}
	body, err := c.do(ctx, http.MethodPost, u.String(), req, false)
	if err != nil {
		return "", fmt.Errorf("authenticate %s: %w", c.username, err)
	}
	var resp keystoneResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if resp.Access.Token.ID == "" {
		return "", fmt.Errorf("token response carries no token id")
	}
	c.logger.Printf("authenticated user=%s tenant=%s expires=%s", c.username, c.tenant, resp.Access.Token.Expires)
	return resp.Access.Token.ID, nil
}

// decode unmarshals JSON keeping numbers as json.Number, so ids stay textual
// when they land in untyped maps.
func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
