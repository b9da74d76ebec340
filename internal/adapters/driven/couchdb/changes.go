package couchdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/umoja-health/tracksync/internal/core/ports/driven"
)

// changesResponse is one longpoll round of the _changes feed.
type changesResponse struct {
	Results []changeRow     `json:"results"`
	LastSeq json.RawMessage `json:"last_seq"`
}

type changeRow struct {
	Seq     json.RawMessage `json:"seq"`
	ID      string          `json:"id"`
	Deleted bool            `json:"deleted"`
	Doc     map[string]any  `json:"doc"`
}

// Subscribe streams live changes starting after the given sequence.
// An empty since starts at the current head of the log. The change
// channel closes when ctx is cancelled; connection failures are
// reported on the error channel and end the stream.
func (c *Client) Subscribe(ctx context.Context, since string) (<-chan driven.Change, <-chan error) {
	changes := make(chan driven.Change)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		c.tail(ctx, since, changes, errs)
	}()

	return changes, errs
}

func (c *Client) tail(ctx context.Context, since string, changes chan<- driven.Change, errs chan<- error) {
	// With no committed cursor the tail starts at the head of the log;
	// history is the backfill phase's job.
	if since == "" {
		since = "now"
	}

	for {
		resp, err := c.pollChanges(ctx, since)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			errs <- fmt.Errorf("changes feed: %w", err)
			return
		}

		for _, row := range resp.Results {
			seq := decodeSeq(row.Seq)
			if row.Deleted || row.Doc == nil {
				continue
			}
			report := decodeReport(row.Doc, seq)
			if !report.Form.Known() {
				continue
			}
			select {
			case changes <- driven.Change{Report: report, Seq: seq}:
			case <-ctx.Done():
				return
			}
		}

		if next := decodeSeq(resp.LastSeq); next != "" {
			since = next
		}
	}
}

// pollChanges runs one longpoll round. The server holds the request
// open until a change arrives or FeedTimeout elapses.
func (c *Client) pollChanges(ctx context.Context, since string) (*changesResponse, error) {
	params := url.Values{
		"feed":         {"longpoll"},
		"include_docs": {"true"},
		"since":        {since},
		"timeout":      {strconv.FormatInt(c.cfg.FeedTimeout.Milliseconds(), 10)},
	}

	resp, err := c.get(ctx, c.dbURL()+"/_changes", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, readBody(resp.Body))
	}

	var out changesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding feed response: %w", err)
	}

	c.logger.Debug("changes feed round complete",
		zap.String("since", since),
		zap.Int("results", len(out.Results)))

	return &out, nil
}

// decodeSeq renders a CouchDB sequence token as a string. Couch 1.x
// emits numbers, 2.x+ emits opaque strings.
func decodeSeq(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
