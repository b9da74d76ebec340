package couchdb

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/umoja-health/tracksync/internal/core/domain"
	"github.com/umoja-health/tracksync/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ChangeSource = (*Client)(nil)

// reportsView is the CHT design document view holding reports by form.
const reportsView = "_design/medic-client/_view/reports_by_form"

// Config holds CouchDB connection settings.
type Config struct {
	// URL is the server base URL, e.g. "https://couch.example.org:5984".
	URL      string
	Database string
	Username string
	Password string

	// InsecureSkipVerify disables TLS verification for self-signed
	// deployments. Connection-resolution workarounds live here in
	// configuration, never in the core.
	InsecureSkipVerify bool

	// RequestTimeout bounds batch and ping requests.
	RequestTimeout time.Duration

	// FeedTimeout is the server-side longpoll timeout for the changes
	// feed. The subscribe loop reconnects when it elapses.
	FeedTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.RequestTimeout == 0 {
		out.RequestTimeout = 30 * time.Second
	}
	if out.FeedTimeout == 0 {
		out.FeedTimeout = 30 * time.Second
	}
	return out
}

// Client is an HTTP change source against one CouchDB database.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a change source client. The logger must not be nil.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		http: &http.Client{
			Transport: transport,
			// No client-level timeout: the changes feed holds requests
			// open up to FeedTimeout; per-request deadlines come from
			// request contexts instead.
		},
	}
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.get(ctx, c.dbURL(), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: database info returned %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}
	return nil
}

// FetchBatch returns up to limit historical reports of one form, in
// log order, via the reports_by_form view.
func (c *Client) FetchBatch(ctx context.Context, form domain.Form, limit int) ([]domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	key, _ := json.Marshal([]string{string(form)})
	params := url.Values{
		"key":          {string(key)},
		"include_docs": {"true"},
		"reduce":       {"false"},
		"limit":        {strconv.Itoa(limit)},
	}

	resp, err := c.get(ctx, c.dbURL()+"/"+reportsView, params)
	if err != nil {
		return nil, fmt.Errorf("querying reports view: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reports view returned %d: %s", resp.StatusCode, readBody(resp.Body))
	}

	var result struct {
		Rows []struct {
			ID  string         `json:"id"`
			Doc map[string]any `json:"doc"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding view response: %w", err)
	}

	reports := make([]domain.Report, 0, len(result.Rows))
	for _, row := range result.Rows {
		if row.Doc == nil {
			continue
		}
		reports = append(reports, decodeReport(row.Doc, ""))
	}
	return reports, nil
}

// dbURL returns the database endpoint URL.
func (c *Client) dbURL() string {
	return strings.TrimRight(c.cfg.URL, "/") + "/" + c.cfg.Database
}

// get issues an authenticated GET.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	if params != nil {
		rawURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

// decodeReport converts a raw CouchDB document into a domain report.
func decodeReport(doc map[string]any, seq string) domain.Report {
	report := domain.Report{
		Seq:    seq,
		Fields: map[string]any{},
	}

	if id, ok := doc["_id"].(string); ok {
		report.ID = id
	}
	if form, ok := doc["form"].(string); ok {
		report.Form = domain.Form(form)
	}
	if fields, ok := doc["fields"].(map[string]any); ok {
		report.Fields = fields
	}

	// reported_date is epoch milliseconds in CHT documents.
	if ms, ok := doc["reported_date"].(float64); ok && ms > 0 {
		report.ReportedAt = time.UnixMilli(int64(ms)).UTC()
	}

	if geo, ok := doc["geolocation"].(map[string]any); ok {
		lat, latOK := geo["latitude"].(float64)
		lng, lngOK := geo["longitude"].(float64)
		if latOK && lngOK {
			report.Geolocation = &domain.Geopoint{Latitude: lat, Longitude: lng}
		}
	}

	return report
}
