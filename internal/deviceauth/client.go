// Package deviceauth implements the two request/response steps of the GitHub
// OAuth device authorization grant. The client keeps no state between calls;
// the caller owns polling, attempt counting and giving up.
package deviceauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the GitHub web host serving the device flow endpoints.
	DefaultBaseURL = "https://github.com"
	// DefaultClientID identifies the gitlink OAuth app.
	DefaultClientID = "cd51880daa675d9e6452"

	deviceCodePath  = "/login/device/code"
	accessTokenPath = "/login/oauth/access_token"
	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"
	repoScope       = "repo"

	maxResponseBytes = 1 << 20
)

var (
	// ErrUnknown is the generic failure of either step: transport errors,
	// unexpected status codes, unparseable bodies and missing fields.
	ErrUnknown = errors.New("unknown device authorization failure")
	// ErrExpired is wrapped (alongside ErrUnknown) when the device code expired.
	ErrExpired = errors.New("device code expired")
	// ErrDenied is wrapped (alongside ErrUnknown) when the user declined.
	ErrDenied = errors.New("access denied by user")
)

// Verification is the code pair returned by the first step. UserCode is shown
// to the user; DeviceCode is the opaque handle used to poll.
type Verification struct {
	UserCode        string `json:"userCode"`
	DeviceCode      string `json:"deviceCode"`
	VerificationURI string `json:"verificationUri,omitempty"`
	ExpiresIn       int    `json:"expiresIn,omitempty"`
	Interval        int    `json:"interval,omitempty"`
}

// GrantState is the non-failure outcome of a token check.
type GrantState int

const (
	Pending GrantState = iota
	Granted
)

func (s GrantState) String() string {
	if s == Granted {
		return "granted"
	}
	return "pending"
}

// Grant is the result of one token check. Token is set when State is Granted.
// Interval is the poll interval the provider asked for, zero when unspecified.
type Grant struct {
	State    GrantState
	Token    *oauth2.Token
	Interval time.Duration
	SlowDown bool
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client
}

// Client talks to the device flow endpoints of a fixed host.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
}

// New creates a client, filling unset options with the GitHub defaults.
func New(opts Options) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		clientID: opts.ClientID,
		http:     opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.clientID == "" {
		c.clientID = DefaultClientID
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	return c
}

type deviceCodeRequest struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

type deviceCodeResponse struct {
	UserCode        string `json:"user_code"`
	DeviceCode      string `json:"device_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// InitDeviceOAuth requests a fresh verification code pair.
func (c *Client) InitDeviceOAuth(ctx context.Context) (Verification, error) {
	var payload deviceCodeResponse
	if err := c.post(ctx, deviceCodePath, deviceCodeRequest{ClientID: c.clientID, Scope: repoScope}, &payload); err != nil {
		return Verification{}, err
	}
	if payload.UserCode == "" || payload.DeviceCode == "" {
		return Verification{}, fmt.Errorf("%w: device code response missing codes", ErrUnknown)
	}
	return Verification{
		UserCode:        payload.UserCode,
		DeviceCode:      payload.DeviceCode,
		VerificationURI: payload.VerificationURI,
		ExpiresIn:       payload.ExpiresIn,
		Interval:        payload.Interval,
	}, nil
}

type accessTokenRequest struct {
	ClientID   string `json:"client_id"`
	DeviceCode string `json:"device_code"`
	GrantType  string `json:"grant_type"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	Scope       string `json:"scope,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
	Interval    int    `json:"interval,omitempty"`
}

// CheckAuthStatus performs one token check for deviceCode. A nil error means
// the grant is either Granted or still Pending; every failure wraps ErrUnknown.
func (c *Client) CheckAuthStatus(ctx context.Context, deviceCode string) (Grant, error) {
	req := accessTokenRequest{ClientID: c.clientID, DeviceCode: deviceCode, GrantType: deviceGrantType}

	var payload accessTokenResponse
	if err := c.post(ctx, accessTokenPath, req, &payload); err != nil {
		return Grant{}, err
	}

	switch payload.Error {
	case "":
	case "authorization_pending":
		return Grant{State: Pending, Interval: seconds(payload.Interval)}, nil
	case "slow_down":
		return Grant{State: Pending, Interval: seconds(payload.Interval), SlowDown: true}, nil
	case "expired_token":
		return Grant{}, fmt.Errorf("%w: %w", ErrUnknown, ErrExpired)
	case "access_denied":
		return Grant{}, fmt.Errorf("%w: %w", ErrUnknown, ErrDenied)
	default:
		return Grant{}, fmt.Errorf("%w: %s", ErrUnknown, describe(payload))
	}

	if payload.AccessToken == "" {
		return Grant{}, fmt.Errorf("%w: token response missing access_token", ErrUnknown)
	}
	return Grant{
		State: Granted,
		Token: &oauth2.Token{AccessToken: payload.AccessToken, TokenType: payload.TokenType},
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrUnknown, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrUnknown, path, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUnknown, err)
	}
	return nil
}

func describe(payload accessTokenResponse) string {
	if payload.ErrorDesc != "" {
		return payload.Error + ": " + payload.ErrorDesc
	}
	return payload.Error
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
