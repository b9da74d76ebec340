package dhis2

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/umoja-health/tracksync/internal/core/domain"
	"github.com/umoja-health/tracksync/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.DeliverySink = (*Client)(nil)

// Config holds DHIS2 connection settings.
type Config struct {
	// URL is the instance base URL, e.g. "https://dhis.example.org".
	URL      string
	Username string
	Password string

	// Resolve maps hostnames to IP addresses, bypassing DNS for
	// deployments where the instance name does not resolve from the
	// sync host. Connection workarounds belong here, not in the core.
	Resolve map[string]string

	InsecureSkipVerify bool

	RequestTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.RequestTimeout == 0 {
		out.RequestTimeout = 30 * time.Second
	}
	return out
}

// Client is an HTTP delivery sink against one DHIS2 instance.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a delivery sink client. The logger must not be nil.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if len(cfg.Resolve) > 0 {
		dialer := &net.Dialer{Timeout: 10 * time.Second}
		overrides := cfg.Resolve
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err == nil {
				if ip, ok := overrides[host]; ok {
					addr = net.JoinHostPort(ip, port)
				}
			}
			return dialer.DialContext(ctx, network, addr)
		}
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
	}
}

// Ping verifies the instance is reachable and accepting credentials.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/system/info", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSinkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: system info returned %d", domain.ErrSinkUnavailable, resp.StatusCode)
	}
	return nil
}

// importResponse is the tracker import report, reduced to the parts
// the sync pipeline acts on.
type importResponse struct {
	HTTPStatusCode int    `json:"httpStatusCode"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	Response       struct {
		ImportSummaries []struct {
			Status      string     `json:"status"`
			Description string     `json:"description"`
			Conflicts   []Conflict `json:"conflicts"`
		} `json:"importSummaries"`
	} `json:"response"`
}

// Deliver posts one event for synchronous import. A nil error means
// the instance durably accepted the event.
func (c *Client) Deliver(ctx context.Context, ev domain.TrackerEvent) (*driven.Outcome, error) {
	payload, err := json.Marshal(map[string]any{
		"events": []domain.TrackerEvent{ev},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost,
		"/api/tracker?async=false&importStrategy=CREATE_AND_UPDATE",
		bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSinkUnavailable, err)
	}
	defer resp.Body.Close()

	var report importResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("tracker import returned %d with unreadable body: %w", resp.StatusCode, err)
	}

	// Only a full OK counts as durably accepted. A WARNING import may
	// have ignored part of the event, so it is surfaced as a failure
	// and retried instead of being recorded as synced.
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && strings.EqualFold(report.Status, "OK") {
		return &driven.Outcome{
			Status:     report.Status,
			HTTPStatus: resp.StatusCode,
		}, nil
	}

	impErr := &ImportError{
		HTTPStatus: resp.StatusCode,
		Status:     report.Status,
		Message:    report.Message,
	}
	for _, summary := range report.Response.ImportSummaries {
		impErr.Conflicts = append(impErr.Conflicts, summary.Conflicts...)
		if impErr.Message == "" && summary.Description != "" {
			impErr.Message = summary.Description
		}
	}
	for _, conflict := range impErr.Conflicts {
		c.logger.Warn("tracker import conflict",
			zap.String("object", conflict.Object),
			zap.String("value", conflict.Value))
	}
	return nil, impErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	url := strings.TrimRight(c.cfg.URL, "/") + path

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
