package dhis2

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		URL:            srv.URL,
		Username:       "integration",
		Password:       "secret",
		RequestTimeout: 2 * time.Second,
	}, zap.NewNop())
}

func sampleEvent() domain.TrackerEvent {
	return domain.TrackerEvent{
		Event:        "medic-doc-1",
		Program:      "vUgGotMTazy",
		ProgramStage: "CJrEOnZXWPn",
		OrgUnit:      "HcmB7x6MET7",
		OccurredAt:   "2024-06-01T00:00:00.000Z",
		Status:       domain.EventStatus,
		StoredBy:     "medic-integration",
		DataValues: []domain.DataValue{
			{DataElement: "SjKctl9bPGk", Value: "Jane Doe"},
		},
	}
}

func TestClient_Ping_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/system/info", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "integration", user)
		assert.Equal(t, "secret", pass)
		fmt.Fprint(w, `{"version":"2.40.2"}`)
	}))

	require.NoError(t, client.Ping(context.Background()))
}

func TestClient_Ping_Unauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSinkUnavailable)
}

func TestClient_Deliver_Accepted(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tracker", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "false", q.Get("async"))
		assert.Equal(t, "CREATE_AND_UPDATE", q.Get("importStrategy"))

		var body struct {
			Events []domain.TrackerEvent `json:"events"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Events, 1)
		assert.Equal(t, "vUgGotMTazy", body.Events[0].Program)
		assert.Equal(t, "COMPLETED", body.Events[0].Status)

		fmt.Fprint(w, `{"httpStatusCode":200,"status":"OK"}`)
	}))

	outcome, err := client.Deliver(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "OK", outcome.Status)
	assert.Equal(t, http.StatusOK, outcome.HTTPStatus)
}

func TestClient_Deliver_ConflictsSurfaceAsImportError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{
			"httpStatusCode":409,
			"status":"ERROR",
			"message":"An error occurred, please check import summary.",
			"response":{"importSummaries":[{
				"status":"ERROR",
				"conflicts":[
					{"object":"dataElement","value":"value_not_valid_option"},
					{"object":"orgUnit","value":"not_in_search_scope"}
				]
			}]}
		}`)
	}))

	outcome, err := client.Deliver(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Nil(t, outcome)

	var impErr *ImportError
	require.ErrorAs(t, err, &impErr)
	assert.Equal(t, http.StatusConflict, impErr.HTTPStatus)
	require.Len(t, impErr.Conflicts, 2)
	assert.Equal(t, "dataElement", impErr.Conflicts[0].Object)
}

func TestClient_Deliver_ErrorStatusWithOKTransport(t *testing.T) {
	// Some instances report import failure in the body with HTTP 200.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"httpStatusCode":200,"status":"ERROR","message":"import failed"}`)
	}))

	_, err := client.Deliver(context.Background(), sampleEvent())
	require.Error(t, err)

	var impErr *ImportError
	require.ErrorAs(t, err, &impErr)
	assert.Equal(t, "import failed", impErr.Message)
}

func TestClient_Deliver_WarningIsNotAccepted(t *testing.T) {
	// A WARNING import may have ignored part of the event; only a full
	// OK may produce a ledger entry.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"httpStatusCode":200,
			"status":"WARNING",
			"response":{"importSummaries":[{
				"status":"WARNING",
				"description":"value ignored for dataElement",
				"conflicts":[{"object":"dataElement","value":"value_not_valid_option"}]
			}]}
		}`)
	}))

	outcome, err := client.Deliver(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Nil(t, outcome)

	var impErr *ImportError
	require.ErrorAs(t, err, &impErr)
	assert.Equal(t, "WARNING", impErr.Status)
	assert.Equal(t, "value ignored for dataElement", impErr.Message)
	require.Len(t, impErr.Conflicts, 1)
}

func TestClient_Deliver_UnreadableBodyIsFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>proxy error</html>`)
	}))

	outcome, err := client.Deliver(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.Contains(t, err.Error(), "unreadable body")
}

func TestClient_Deliver_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(Config{URL: srv.URL}, zap.NewNop())
	srv.Close()

	_, err := client.Deliver(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSinkUnavailable)
}
