package oracle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PtahSamora/titcha-studyroom/internal/infra/oracle"
)

func TestHTTPClient_Ask_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tutor/ask", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "factor x^2+2x", body["prompt"])
		assert.Equal(t, "math", body["subject"])
		assert.Equal(t, float64(7), body["roomId"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"blocks":[{"type":"text","text":"Take x out."}]}`))
	}))
	defer server.Close()

	client, err := oracle.NewHTTPClient(server.URL, "test-key", 5*time.Second)
	require.NoError(t, err)

	blocks, err := client.Ask(context.Background(), "factor x^2+2x", "math", 7)

	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Take x out.", blocks[0].Text)
}

func TestHTTPClient_Ask_StatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"quota", http.StatusTooManyRequests, oracle.ErrQuotaExceeded},
		{"bad key", http.StatusUnauthorized, oracle.ErrBadConfig},
		{"forbidden", http.StatusForbidden, oracle.ErrBadConfig},
		{"server error", http.StatusInternalServerError, oracle.ErrUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client, err := oracle.NewHTTPClient(server.URL, "k", time.Second)
			require.NoError(t, err)

			_, err = client.Ask(context.Background(), "q", "math", 7)

			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHTTPClient_Ask_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client, err := oracle.NewHTTPClient(server.URL, "k", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Ask(ctx, "q", "math", 7)

	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestHTTPClient_Ask_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, err := oracle.NewHTTPClient(server.URL, "k", time.Second)
	require.NoError(t, err)

	_, err = client.Ask(context.Background(), "q", "math", 7)

	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := oracle.NewHTTPClient("", "k", time.Second)
	assert.Error(t, err)
}
