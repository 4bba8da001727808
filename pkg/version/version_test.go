package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		candidate string
		current   string
		want      bool
	}{
		{"1.2.0", "1.1.9", true},
		{"1.2.0", "1.2.0", false},
		{"1.2.0", "1.10.0", false},
		{"2.0", "1.9.9", true},
		{"v1.3.0", "1.2.0", true},
		{"1.2.1", "dev", true},
		{"0.0.1", "dev", true},
		{"1.2", "1.2.0", false},
	}

	for _, tt := range tests {
		got := IsNewer(tt.candidate, tt.current)
		assert.Equal(t, tt.want, got, "IsNewer(%q, %q)", tt.candidate, tt.current)
	}
}

func TestCheckForUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latest": "2.1.0"}`))
	}))
	defer srv.Close()

	latest, newer, err := CheckForUpdate(context.Background(), srv.URL, "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", latest)
	assert.True(t, newer)

	_, newer, err = CheckForUpdate(context.Background(), srv.URL, "2.1.0")
	require.NoError(t, err)
	assert.False(t, newer)
}

func TestCheckForUpdateFeedErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"empty latest", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, _, err := CheckForUpdate(context.Background(), srv.URL, "1.0.0")
			assert.Error(t, err)
		})
	}
}

func TestCheckForUpdateUnreachableFeed(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // closed on purpose

	_, _, err := CheckForUpdate(context.Background(), srv.URL, "1.0.0")
	assert.Error(t, err)
}
