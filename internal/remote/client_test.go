package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type release struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

func TestGetJSONDecodesDocument(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		require.NoError(t, json.NewEncoder(w).Encode([]release{{Version: "1.21", Stable: true}}))
	}))
	t.Cleanup(server.Close)

	client := NewClient(WithHTTPClient(server.Client()), WithUserAgent("mcvm-test"))

	var releases []release
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &releases))
	require.Equal(t, []release{{Version: "1.21", Stable: true}}, releases)
	require.Equal(t, "mcvm-test", gotUA)
	require.Equal(t, "application/json", gotAccept)
}

func TestGetXMLDecodesDocument(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<metadata><versioning><versions><version>21.0.1</version><version>21.0.2-beta</version></versions></versioning></metadata>`))
	}))
	t.Cleanup(server.Close)

	var doc struct {
		Versions []string `xml:"versioning>versions>version"`
	}
	client := NewClient(WithHTTPClient(server.Client()))
	require.NoError(t, client.GetXML(context.Background(), server.URL, &doc))
	require.Equal(t, []string{"21.0.1", "21.0.2-beta"}, doc.Versions)
}

func TestGetJSONReportsStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := NewClient(WithHTTPClient(server.Client()))
	err := client.GetJSON(context.Background(), server.URL, &[]release{})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestGetJSONReportsDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(WithHTTPClient(server.Client()))
	err := client.GetJSON(context.Background(), server.URL, &[]release{})
	require.ErrorContains(t, err, "remote: decode json")
}

func TestGetJSONHonoursTimeout(t *testing.T) {
	t.Parallel()

	unblock := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-unblock:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(unblock)
		server.Close()
	})

	client := NewClient(WithHTTPClient(server.Client()), WithTimeout(20*time.Millisecond))
	err := client.GetJSON(context.Background(), server.URL, &[]release{})
	require.Error(t, err)
}

func TestCachingClientServesRepeatedRequestsFromMemory(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=300")
		require.NoError(t, json.NewEncoder(w).Encode([]release{{Version: "1.20"}}))
	}))
	t.Cleanup(server.Close)

	client := NewClient()
	for i := 0; i < 3; i++ {
		var releases []release
		require.NoError(t, client.GetJSON(context.Background(), server.URL, &releases))
		require.Len(t, releases, 1)
	}
	require.EqualValues(t, 1, hits.Load())
}

var _ Fetcher = (*Client)(nil)
