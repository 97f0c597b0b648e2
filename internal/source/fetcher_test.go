package source_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/source"
)

const singleCard = "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Test\r\nBDAY:1990-03-15\r\nEND:VCARD\r\n"

// serveCard answers every request with body served as contentType.
func serveCard(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set(config.HeaderContentType, contentType)
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPFetcher_SendsCredentialsAndNegotiatesVCard(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "reader", user)
		assert.Equal(t, "s3cret", pass)
		assert.Equal(t, config.UserAgent, r.Header.Get(config.HeaderUserAgent))
		assert.Contains(t, r.Header.Get(config.HeaderAccept), config.MimeVCard)
		assert.Equal(t, "abc", r.URL.Query().Get("token"))

		w.Header().Set(config.HeaderContentType, "text/vcard; charset=utf-8")
		_, _ = io.WriteString(w, singleCard)
	}))
	defer ts.Close()

	rc, err := source.NewHTTPFetcher().Fetch(context.Background(), ts.URL+"/cards.vcf?token=abc", "reader", "s3cret")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, singleCard, string(body))
}

func TestHTTPFetcher_ContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantErr     bool
	}{
		{"vCard 4", "text/vcard", false},
		{"Legacy vCard with charset", "text/x-vcard; charset=UTF-8", false},
		{"Directory", "text/directory; profile=vCard", false},
		{"Raw file host", "text/plain; charset=utf-8", false},
		{"Binary download", "application/octet-stream", false},
		{"Upper case", "TEXT/VCARD", false},
		{"Login page", "text/html; charset=utf-8", true},
		{"API error", "application/json", true},
		{"Malformed header", "text/vcard; =", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := serveCard(t, tt.contentType, singleCard)

			rc, err := source.NewHTTPFetcher().Fetch(context.Background(), ts.URL, "", "")
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, rc)
				assert.Contains(t, err.Error(), config.ErrContentType)
				return
			}
			require.NoError(t, err)
			_ = rc.Close()
		})
	}
}

func TestHTTPFetcher_StatusErrors(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			rc, err := source.NewHTTPFetcher().Fetch(context.Background(), ts.URL, "", "")
			require.Error(t, err)
			assert.Nil(t, rc)
			assert.Contains(t, err.Error(), config.ErrHTTPStatus)
			assert.Contains(t, err.Error(), http.StatusText(code))
		})
	}
}

func TestHTTPFetcher_HonoursContextDeadline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := source.NewHTTPFetcher().Fetch(ctx, ts.URL, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPFetcher_RejectsBadLocations(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"Control character", string([]byte{0x7f}), config.ErrInvalidURL},
		{"FTP", "ftp://example.com/file.vcf", config.ErrProtocol},
		{"Local file", "file:///etc/contacts.vcf", config.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source.NewHTTPFetcher().Fetch(context.Background(), tt.url, "", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
