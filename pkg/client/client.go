package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the daemon answers 404 for an item.
var ErrNotFound = errors.New("item not found")

// Client provides HTTP client functionality to communicate with the itemd daemon
type Client struct {
	baseURL  string
	basePath string
	client   *http.Client
	logger   *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL  string // server root, e.g. http://localhost:3000
	BasePath string // resource prefix, "/api" when empty
	Timeout  time.Duration
	Logger   *slog.Logger // Optional logger for client operations
	TLS      *TLSClientConfig
	Insecure bool // Skip TLS verification
}

// TLSClientConfig holds TLS configuration for client
type TLSClientConfig struct {
	Enabled    bool   // Enable TLS
	CACert     string // CA certificate file path
	ClientCert string // Client certificate file
	ClientKey  string // Client private key file
	ServerName string // Server name for verification
	SkipVerify bool   // Skip certificate verification
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:3000",
		BasePath: "/api",
		Timeout:  10 * time.Second,
	}
}

// New creates a new itemd API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:3000"
	}
	if config.BasePath == "" {
		config.BasePath = "/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	transport := &http.Transport{}
	if config.TLS != nil && config.TLS.Enabled || config.Insecure {
		tlsConfig, err := setupClientTLS(config)
		if err != nil {
			config.Logger.Error("TLS setup failed", "error", err)
		} else {
			transport.TLSClientConfig = tlsConfig
		}
	}

	bp := "/" + strings.Trim(config.BasePath, "/")
	if bp == "/" {
		bp = ""
	}
	return &Client{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		basePath: bp,
		logger:   config.Logger,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// IsReachable checks if the daemon is running and answers its health check
func (c *Client) IsReachable(ctx context.Context) bool {
	status, err := c.Health(ctx)
	if err != nil {
		c.logger.Debug("Daemon unreachable", "error", err)
		return false
	}
	c.logger.Debug("Daemon reachability check", "reachable", true, "health", status)
	return true
}

// Health returns the body of GET /health.
func (c *Client) Health(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/health", nil, http.StatusOK, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Metrics returns the daemon's uptime and memory snapshot.
func (c *Client) Metrics(ctx context.Context) (MetricsSnapshot, error) {
	var snap MetricsSnapshot
	err := c.do(ctx, http.MethodGet, c.baseURL+"/metrics", nil, http.StatusOK, &snap)
	return snap, err
}

// List returns all items in insertion order.
func (c *Client) List(ctx context.Context) ([]Item, error) {
	items := []Item{}
	if err := c.do(ctx, http.MethodGet, c.itemsURL(), nil, http.StatusOK, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Create adds an item and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, in ItemInput) (Item, error) {
	c.logger.Debug("Creating item", "name", in.Name)
	var it Item
	err := c.do(ctx, http.MethodPost, c.itemsURL(), in, http.StatusCreated, &it)
	return it, err
}

// Get fetches one item; ErrNotFound if it does not exist.
func (c *Client) Get(ctx context.Context, id int) (Item, error) {
	var it Item
	err := c.do(ctx, http.MethodGet, c.itemURL(id), nil, http.StatusOK, &it)
	return it, err
}

// Update changes the fields set in in and returns the resulting item.
func (c *Client) Update(ctx context.Context, id int, in ItemInput) (Item, error) {
	c.logger.Debug("Updating item", "id", id)
	var it Item
	err := c.do(ctx, http.MethodPut, c.itemURL(id), in, http.StatusOK, &it)
	return it, err
}

// Delete removes an item; ErrNotFound if it does not exist.
func (c *Client) Delete(ctx context.Context, id int) error {
	c.logger.Debug("Deleting item", "id", id)
	return c.do(ctx, http.MethodDelete, c.itemURL(id), nil, http.StatusNoContent, nil)
}

func (c *Client) itemsURL() string { return c.baseURL + c.basePath + "/items" }

func (c *Client) itemURL(id int) string { return c.itemsURL() + "/" + strconv.Itoa(id) }

// setupClientTLS configures TLS settings for HTTP client
func setupClientTLS(config Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if config.Insecure {
		tlsConfig.InsecureSkipVerify = true // #nosec G402 explicit opt-in
		return tlsConfig, nil
	}

	if config.TLS != nil {
		if config.TLS.SkipVerify {
			tlsConfig.InsecureSkipVerify = true // #nosec G402 explicit opt-in
		}
		if config.TLS.ServerName != "" {
			tlsConfig.ServerName = config.TLS.ServerName
		}
		if config.TLS.CACert != "" {
			if err := loadCACert(tlsConfig, config.TLS.CACert); err != nil {
				return nil, fmt.Errorf("failed to load CA certificate: %w", err)
			}
		}
		if config.TLS.ClientCert != "" && config.TLS.ClientKey != "" {
			cert, err := tls.LoadX509KeyPair(config.TLS.ClientCert, config.TLS.ClientKey)
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
	}

	return tlsConfig, nil
}

// loadCACert loads CA certificate from file and adds it to TLS config
func loadCACert(tlsConfig *tls.Config, caCertPath string) error {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return fmt.Errorf("failed to read CA certificate file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return fmt.Errorf("failed to parse CA certificate")
	}

	tlsConfig.RootCAs = caCertPool
	return nil
}

// do performs the request, checks for the expected status and decodes the
// response into out. A *bytes.Buffer out receives the raw body.
func (c *Client) do(ctx context.Context, method, url string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", url)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		return c.handleErrorResponse(resp)
	}
	switch o := out.(type) {
	case nil:
		return nil
	case *bytes.Buffer:
		_, err = io.Copy(o, resp.Body)
	default:
		err = json.NewDecoder(resp.Body).Decode(o)
	}
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// handleErrorResponse maps a non-success answer to an error
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var errorResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Error == "" {
		c.logger.Error("Unexpected response", "status", resp.StatusCode)
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	c.logger.Error("API request failed", "error", errorResp.Error, "status", resp.StatusCode)
	return fmt.Errorf("API error: %s", errorResp.Error)
}
