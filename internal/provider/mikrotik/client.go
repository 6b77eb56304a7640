// Package mikrotik implements provider.Provider against the RouterOS v7 REST
// API for static DNS entries (/ip/dns/static).
package mikrotik

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/config"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/metrics"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/syncerr"
)

const staticPath = "/rest/ip/dns/static"

type Httper interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL  string
	username string
	password string
	http     Httper
	metrics  *metrics.Metrics
}

// New builds a client for the router at cfg.Address. A bare host or host:port
// is reached over plain http, as RouterOS serves REST there by default.
func New(cfg config.Router, metrics *metrics.Metrics) (*Client, error) {
	baseURL, err := normalizeAddress(cfg.Address)
	if err != nil {
		return nil, syncerr.New(syncerr.KindConfig, err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL:  baseURL,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Transport: transport, Timeout: cfg.Timeout},
		metrics:  metrics,
	}, nil
}

func normalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.New("router address is empty")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("router address %q: %w", address, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("router address %q: unsupported scheme %q", address, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("router address %q: missing host", address)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/"), nil
}

func (c *Client) Capabilities() provider.Capabilities {
	return provider.Capabilities{NativeUpdate: true}
}

func (c *Client) GetRecords(ctx context.Context) ([]provider.Record, error) {
	slog.Info("Getting static DNS entries", "router", c.baseURL)
	start := time.Now()

	resp, err := c.doRequest(ctx, http.MethodGet, staticPath, nil)
	if err != nil {
		c.metrics.IncRouterRequest("read", false)
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		c.metrics.IncRouterRequest("read", false)
		return nil, fmt.Errorf("list static dns: %w", err)
	}

	var entries []staticEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		c.metrics.IncRouterRequest("read", false)
		return nil, fmt.Errorf("decode static dns list: %w", err)
	}

	records := make([]provider.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.toRecord())
	}

	c.metrics.IncRouterRequest("read", true)
	slog.Debug("Retrieved static DNS entries", "count", len(records), "duration", time.Since(start))
	return records, nil
}

func (c *Client) CreateRecord(ctx context.Context, record provider.Record) (provider.Record, error) {
	slog.Info("Creating DNS record", "name", record.Name, "type", record.Type, "data", record.Data)
	start := time.Now()

	body, err := newEntry(record)
	if err != nil {
		return provider.Record{}, err
	}

	resp, err := c.doRequest(ctx, http.MethodPut, staticPath, body)
	if err != nil {
		c.metrics.IncRouterRequest("create", false)
		return provider.Record{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK, http.StatusCreated); err != nil {
		c.metrics.IncRouterRequest("create", false)
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.contains("entry already exists") {
			return provider.Record{}, fmt.Errorf("create %s: %w", record, provider.ErrAlreadyExists)
		}
		return provider.Record{}, fmt.Errorf("create %s: %w", record, err)
	}

	var created staticEntry
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		c.metrics.IncRouterRequest("create", false)
		return provider.Record{}, fmt.Errorf("decode created entry: %w", err)
	}

	c.metrics.IncRouterRequest("create", true)
	slog.Debug("Created DNS record", "id", created.ID, "name", record.Name, "type", record.Type, "duration", time.Since(start))
	return created.toRecord(), nil
}

// UpdateRecord changes the value of the entry identified by record.ID.
func (c *Client) UpdateRecord(ctx context.Context, record provider.Record) error {
	slog.Info("Updating DNS record", "id", record.ID, "name", record.Name, "type", record.Type, "data", record.Data)
	start := time.Now()

	if record.ID == "" {
		return fmt.Errorf("update %s: missing entry id", record)
	}
	body, err := patchEntry(record)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(ctx, http.MethodPatch, entryPath(record.ID), body)
	if err != nil {
		c.metrics.IncRouterRequest("update", false)
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		c.metrics.IncRouterRequest("update", false)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("update %s: %w", record.ID, provider.ErrNotFound)
		}
		return fmt.Errorf("update %s: %w", record.ID, err)
	}

	c.metrics.IncRouterRequest("update", true)
	slog.Debug("Updated DNS record", "id", record.ID, "name", record.Name, "duration", time.Since(start))
	return nil
}

func (c *Client) DeleteRecord(ctx context.Context, record provider.Record) error {
	slog.Info("Deleting DNS record", "id", record.ID, "name", record.Name, "type", record.Type)
	start := time.Now()

	if record.ID == "" {
		return fmt.Errorf("delete %s: missing entry id", record)
	}

	resp, err := c.doRequest(ctx, http.MethodDelete, entryPath(record.ID), nil)
	if err != nil {
		c.metrics.IncRouterRequest("delete", false)
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusNoContent, http.StatusOK); err != nil {
		c.metrics.IncRouterRequest("delete", false)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("delete %s: %w", record.ID, provider.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", record.ID, err)
	}

	c.metrics.IncRouterRequest("delete", true)
	slog.Debug("Deleted DNS record", "id", record.ID, "name", record.Name, "duration", time.Since(start))
	return nil
}

func entryPath(id string) string {
	return staticPath + "/" + url.PathEscape(id)
}

// doRequest builds and executes an authenticated request. Transport failures
// are reported as connection errors.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, syncerr.New(syncerr.KindConnection, fmt.Errorf("%s %s: %w", method, path, err))
	}
	return resp, nil
}

// apiError is the error body RouterOS returns, e.g.
// {"error":400,"message":"Bad Request","detail":"failure: entry already exists"}.
type apiError struct {
	Status  int    `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	raw     string
}

func (e *apiError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("router returned status %d: %s", e.Status, e.Detail)
	case e.Message != "":
		return fmt.Sprintf("router returned status %d: %s", e.Status, e.Message)
	case e.raw != "":
		return fmt.Sprintf("router returned status %d: %s", e.Status, e.raw)
	}
	return fmt.Sprintf("router returned status %d", e.Status)
}

func (e *apiError) contains(s string) bool {
	return strings.Contains(e.Detail, s) || strings.Contains(e.Message, s) || strings.Contains(e.raw, s)
}

// checkStatus returns nil when resp has one of the wanted codes. Auth
// failures become connection errors.
func checkStatus(resp *http.Response, want ...int) error {
	for _, code := range want {
		if resp.StatusCode == code {
			return nil
		}
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &apiError{raw: strings.TrimSpace(string(data))}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.Message, apiErr.Detail = "", ""
	}
	apiErr.Status = resp.StatusCode

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return syncerr.New(syncerr.KindConnection, fmt.Errorf("authentication failed: %w", apiErr))
	}
	return apiErr
}
