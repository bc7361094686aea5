package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkhq/network-intake/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSubmitWaitlistSendsNormalizedEmail(t *testing.T) {
	var got map[string]string
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/waitlist", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Email added to waitlist successfully"})
	})

	c := New(srv.URL + "/api/")
	res, err := c.SubmitWaitlist(context.Background(), " Test@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Email added to waitlist successfully", res.Message)
	assert.Equal(t, "test@example.com", got["email"])
}

func TestClientValidationSkipsNetwork(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	c := New(srv.URL + "/api")

	_, err := c.SubmitWaitlist(context.Background(), "not-an-email")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)

	_, err = c.SubmitPartnership(context.Background(), Partnership{Organization: "Acme", Contact: "Jane", Email: "j@acme.io", Phone: "abc"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "phone", vErr.Field)

	_, err = c.SubmitPartnership(context.Background(), Partnership{Contact: "Jane"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Organization name is required", vErr.Message)

	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestLedgerBlocksResubmission(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok"})
	})
	clock := &fakeClock{t: time.Now()}
	c := New(srv.URL+"/api", WithClock(clock.now))

	_, err := c.SubmitWaitlist(context.Background(), "a@b.co")
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Minute)
	_, err = c.SubmitWaitlist(context.Background(), "A@B.co")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestCooldownBetweenSubmissions(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok"})
	})
	clock := &fakeClock{t: time.Now()}
	c := New(srv.URL+"/api", WithClock(clock.now))

	_, err := c.SubmitWaitlist(context.Background(), "one@b.co")
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Second)
	_, err = c.SubmitWaitlist(context.Background(), "two@b.co")
	assert.ErrorIs(t, err, ErrCooldown)

	clock.t = clock.t.Add(4 * time.Second)
	_, err = c.SubmitWaitlist(context.Background(), "two@b.co")
	assert.NoError(t, err)
}

func TestServerErrorsDecoded(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/waitlist":
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "Email already exists in waitlist", "duplicate": true})
		default:
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "error": "Too many requests. Please try again in 42 seconds.", "retryAfter": 42})
		}
	})
	ledger := NewMemoryLedger()
	c := New(srv.URL+"/api", WithLedger(ledger), WithCooldown(0))

	_, err := c.SubmitWaitlist(context.Background(), "dup@b.co")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Duplicate)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.True(t, ledger.Has(domain.KindWaitlist, "dup@b.co"))

	_, err = c.SubmitPartnership(context.Background(), Partnership{Organization: "Acme", Contact: "Jane", Email: "j@acme.io", Phone: "+971501234567"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 42, apiErr.RetryAfter)
	assert.False(t, ledger.Has(domain.KindPartnership, "j@acme.io"))
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "Network Backend API", "timestamp": "2024-01-01T00:00:00.000Z"})
	})

	h, err := New(srv.URL + "/api").Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}

func TestTransportError(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	c := New(srv.URL+"/api", WithCooldown(0))
	_, err := c.SubmitWaitlist(context.Background(), "a@b.co")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.False(t, c.ledger.Has(domain.KindWaitlist, "a@b.co"))
}

func TestFileLedgerPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "ledger.json")

	l, err := OpenFileLedger(path)
	require.NoError(t, err)
	assert.False(t, l.Has(domain.KindWaitlist, "a@b.co"))
	require.NoError(t, l.Record(domain.KindWaitlist, "A@b.co "))

	reopened, err := OpenFileLedger(path)
	require.NoError(t, err)
	assert.True(t, reopened.Has(domain.KindWaitlist, "a@b.co"))
	assert.False(t, reopened.Has(domain.KindPartnership, "a@b.co"))
}
