package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"slices"

	"github.com/tartampluch/drem/internal/config"
)

// Fetcher downloads a remote vCard file.
type Fetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// vcardMediaTypes are the Content-Type values a contact export is served with.
// Static hosts often fall back to text/plain or a generic binary type.
var vcardMediaTypes = []string{
	config.MimeVCard,
	config.MimeXVCard,
	config.MimeDirectory,
	config.MimeTextPlain,
	config.MimeOctetStream,
}

// HTTPFetcher downloads vCard exports over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: config.HTTPTimeout},
	}
}

// Fetch GETs a vCard export, optionally with basic auth.
// Anything but a 200 carrying a vCard-compatible media type is an error, so a
// login page or an API error document never reaches the decoder.
// The returned body is capped at config.MaxHTTPResponseSize.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL, user, pass string) (io.ReadCloser, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	// Query strings may carry share tokens.
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, u.Scheme+"://"+u.Host+u.Path),
	)
	log.Debug(config.MsgDownloadStart)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHTTPRequest, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.AcceptVCard)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHTTPNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.Warn(config.MsgHTTPStatusBad, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, fmt.Errorf("%s: %d %s", config.ErrHTTPStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	mediaType, ok := vcardMediaType(resp.Header.Get(config.HeaderContentType))
	if !ok {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: %q", config.ErrContentType, mediaType)
	}

	log.Info(config.MsgDownloading,
		slog.String(config.LogKeyMediaType, mediaType),
		slog.Int64(config.LogKeySizeBytes, resp.ContentLength),
	)

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, config.MaxHTTPResponseSize),
		Closer: resp.Body,
	}, nil
}

// vcardMediaType reports the media type of header and whether it may hold vCards.
// A missing header is accepted; the decoder has the final word.
func vcardMediaType(header string) (string, bool) {
	if header == "" {
		return "", true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return header, false
	}
	return mediaType, slices.Contains(vcardMediaTypes, mediaType)
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}
