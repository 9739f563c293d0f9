// Package tricount talks to the public Tricount API: it installs an
// anonymous session and fetches registries by their public identifier.
package tricount

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBaseURL   = "https://api.tricount.bunq.com"
	DefaultUserAgent = "com.bunq.tricount.android:RELEASE:7.0.7:3174:ANDROID:13:C"
	DefaultTimeout   = 30 * time.Second

	deviceDescription = "Android"
	maxErrorBody      = 4 << 10
)

// ErrNoSession is returned when a fetch is attempted without a token.
var ErrNoSession = errors.New("tricount: no session")

// Config holds the client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Session is the credential pair obtained from Authenticate. It is shared
// read-only by every fetch of a batch.
type Session struct {
	Token  string
	UserID string
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("tricount: %s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Client is a Tricount API client. One installation id is generated per
// client and reused for every request it makes.
type Client struct {
	baseURL    string
	userAgent  string
	appID      string
	httpClient *http.Client
	publicKey  func() (string, error)
}

// NewClient creates a client, filling unset fields of cfg with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		appID:      uuid.NewString(),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		publicKey:  generatePublicKey,
	}
}

type installationRequest struct {
	AppInstallationUUID string `json:"app_installation_uuid"`
	ClientPublicKey     string `json:"client_public_key"`
	DeviceDescription   string `json:"device_description"`
}

type installationResponse struct {
	Response []struct {
		Token *struct {
			Token string `json:"token"`
		} `json:"Token"`
		UserPerson *struct {
			ID json.RawMessage `json:"id"`
		} `json:"UserPerson"`
	} `json:"Response"`
}

// Authenticate installs a session for this client and returns its token
// and user id.
func (c *Client) Authenticate(ctx context.Context) (Session, error) {
	key, err := c.publicKey()
	if err != nil {
		return Session{}, err
	}
	payload, err := json.Marshal(installationRequest{
		AppInstallationUUID: c.appID,
		ClientPublicKey:     key,
		DeviceDescription:   deviceDescription,
	})
	if err != nil {
		return Session{}, fmt.Errorf("encode installation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/session-registry-installation", bytes.NewReader(payload))
	if err != nil {
		return Session{}, fmt.Errorf("create installation request: %w", err)
	}
	c.setHeaders(req)

	body, err := c.do(req)
	if err != nil {
		return Session{}, err
	}

	var resp installationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Session{}, fmt.Errorf("decode installation response: %w", err)
	}
	var s Session
	for _, item := range resp.Response {
		if item.Token != nil {
			s.Token = item.Token.Token
		}
		if item.UserPerson != nil {
			s.UserID = decodeID(item.UserPerson.ID)
		}
	}
	if s.Token == "" || s.UserID == "" {
		return Session{}, errors.New("tricount: installation response is missing the token or the user id")
	}

	slog.InfoContext(ctx, "Tricount session established", "user_id", s.UserID)
	return s, nil
}

// FetchRegistry returns the raw registry document for a public identifier.
func (c *Client) FetchRegistry(ctx context.Context, s Session, identifier string) ([]byte, error) {
	if s.Token == "" || s.UserID == "" {
		return nil, ErrNoSession
	}
	u := fmt.Sprintf("%s/v1/user/%s/registry?%s", c.baseURL, url.PathEscape(s.UserID),
		url.Values{"public_identifier_token": {identifier}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create registry request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("X-Bunq-Client-Authentication", s.Token)

	slog.DebugContext(ctx, "Fetching registry", "identifier", identifier)
	return c.do(req)
}

// decodeID accepts an id sent either as a JSON number or a string.
func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("app-id", c.appID)
	req.Header.Set("X-Bunq-Client-Request-Id", uuid.NewString())
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tricount: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			Method:     req.Method,
			URL:        req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tricount: read %s response: %w", req.URL.Path, err)
	}
	return body, nil
}
