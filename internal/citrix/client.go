package citrix

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CloudClient defines the Citrix Cloud API operations used by the collector.
// This interface allows for easy mocking in tests.
type CloudClient interface {
	// AcquireToken exchanges a tenant's client credentials for a bearer token.
	AcquireToken(ctx context.Context, customerID, clientID, clientSecret string) (string, error)

	// FetchMachines returns the tenant's VDA machine list.
	FetchMachines(ctx context.Context, token, customerID, siteID string) ([]Machine, error)
}

// Client wraps the Citrix Cloud REST APIs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Ensure Client implements CloudClient.
var _ CloudClient = (*Client)(nil)

// NewClient creates a client against the public Citrix Cloud endpoint.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: HTTPTimeout},
		baseURL:    DefaultBaseURL,
		logger:     logger,
	}
}

// NewClientWithHTTP creates a client with a custom HTTP client and base URL (for testing).
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     slog.Default(),
	}
}

// AcquireToken performs the OAuth 2.0 client-credentials exchange against the
// per-tenant trust endpoint.
func (c *Client) AcquireToken(ctx context.Context, customerID, clientID, clientSecret string) (string, error) {
	tokenURL := fmt.Sprintf("%s/cctrustoauth2/%s/tokens/clients", c.baseURL, customerID)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read error response for debugging
		var errResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return "", fmt.Errorf("token exchange failed: %s - %s", errResp.Error, errResp.ErrorDescription)
		}
		return "", fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var result tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if result.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned empty access token")
	}

	c.logTokenLifetime(customerID, result.AccessToken)

	return result.AccessToken, nil
}

// logTokenLifetime inspects the bearer token's exp claim without verifying
// the signature. The token is opaque to this program otherwise; the lifetime
// is only surfaced to help diagnose mid-run expiry.
func (c *Client) logTokenLifetime(customerID, token string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}

	remaining := time.Until(exp.Time)
	if remaining < shortTokenLifetime {
		c.logger.Warn("bearer token close to expiry", "customer_id", customerID, "remaining", remaining)
		return
	}
	c.logger.Debug("bearer token acquired", "customer_id", customerID, "remaining", remaining)
}

// FetchMachines fetches the tenant's full machine list, following
// continuation tokens until the listing is exhausted.
func (c *Client) FetchMachines(ctx context.Context, token, customerID, siteID string) ([]Machine, error) {
	var machines []Machine
	continuation := ""

	for {
		page, next, err := c.fetchMachinesPage(ctx, token, customerID, siteID, continuation)
		if err != nil {
			return nil, err
		}

		machines = append(machines, page...)

		if next == "" {
			return machines, nil
		}
		continuation = next
	}
}

func (c *Client) fetchMachinesPage(ctx context.Context, token, customerID, siteID, continuation string) ([]Machine, string, error) {
	reqURL := fmt.Sprintf("%s/cvad/manage/Machines", c.baseURL)
	if continuation != "" {
		reqURL += "?continuationToken=" + url.QueryEscape(continuation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Citrix-CustomerId", customerID)
	req.Header.Set("Citrix-InstanceId", siteID)
	req.Header.Set("Authorization", fmt.Sprintf("%s=%s", authScheme, token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("machines API returned status %d", resp.StatusCode)
	}

	var result machinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", err
	}

	return result.Items, result.ContinuationToken, nil
}
