package region

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectorCachesCountryCode(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("cn\n"))
	}))
	t.Cleanup(server.Close)

	detector := NewDetector(WithEndpoints(server.URL), WithHTTPClient(server.Client()))

	for i := 0; i < 2; i++ {
		code, err := detector.CountryCode(context.Background())
		require.NoError(t, err)
		require.Equal(t, "CN", code)
	}
	require.EqualValues(t, 1, hits.Load())
}

func TestDetectorFallsBackToNextEndpoint(t *testing.T) {
	t.Parallel()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(broken.Close)
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"country_code":"de"}`))
	}))
	t.Cleanup(fallback.Close)

	detector := NewDetector(WithEndpoints(broken.URL, fallback.URL))
	code, err := detector.CountryCode(context.Background())
	require.NoError(t, err)
	require.Equal(t, "DE", code)
}

func TestDetectorReturnsErrorWhenAllEndpointsFail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	detector := NewDetector(WithEndpoints(server.URL), WithHTTPClient(server.Client()))
	_, err := detector.CountryCode(context.Background())
	require.ErrorContains(t, err, "region: country lookup failed")
}

func TestParseCountry(t *testing.T) {
	t.Parallel()

	cases := []struct {
		body    string
		want    string
		wantErr bool
	}{
		{body: "us", want: "US"},
		{body: `{"country":"jp"}`, want: "JP"},
		{body: `{"country_code":"CN","country":"China"}`, want: "CN"},
		{body: "   ", wantErr: true},
		{body: `{"country_code":`, wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseCountry([]byte(tc.body))
		if tc.wantErr {
			require.Error(t, err, tc.body)
			continue
		}
		require.NoError(t, err, tc.body)
		require.Equal(t, tc.want, got)
	}
}
