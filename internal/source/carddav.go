package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/emersion/go-vcard"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/carddav"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

// addressBookClient is the subset of *carddav.Client used by CardDAVSource.
type addressBookClient interface {
	FindCurrentUserPrincipal(ctx context.Context) (string, error)
	FindAddressBookHomeSet(ctx context.Context, principal string) (string, error)
	FindAddressBooks(ctx context.Context, homeSet string) ([]carddav.AddressBook, error)
	QueryAddressBook(ctx context.Context, path string, query *carddav.AddressBookQuery) ([]carddav.AddressObject, error)
}

// CardDAVSource reads records from a CardDAV server.
// When the URL names an address book it is queried directly; a bare host
// triggers principal discovery and every address book found is read.
type CardDAVSource struct {
	client addressBookClient
	path   string
}

// userAgentTransport stamps every request with the application User-Agent.
type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	return t.next.RoundTrip(req)
}

// NewCardDAVSource creates a client for rawURL authenticated with basic auth.
func NewCardDAVSource(rawURL, user, pass string) (*CardDAVSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	httpClient := &http.Client{
		Timeout:   config.HTTPTimeout,
		Transport: &userAgentTransport{next: http.DefaultTransport},
	}
	var hc webdav.HTTPClient = httpClient
	if user != "" || pass != "" {
		hc = webdav.HTTPClientWithBasicAuth(httpClient, user, pass)
	}

	endpoint := u.Scheme + "://" + u.Host + "/"
	client, err := carddav.NewClient(hc, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCardDAVClient, err)
	}
	return &CardDAVSource{client: client, path: u.Path}, nil
}

// Fetch queries the address books and maps the returned cards.
func (s *CardDAVSource) Fetch(ctx context.Context, kind engine.Kind) ([]engine.RawRecord, error) {
	cards, err := s.cards(ctx)
	if err != nil {
		return nil, err
	}
	return CardRecords(cards, kind), nil
}

// FetchAll queries the address books once for both kinds.
func (s *CardDAVSource) FetchAll(ctx context.Context) ([]engine.RawRecord, error) {
	cards, err := s.cards(ctx)
	if err != nil {
		return nil, err
	}
	return allRecords(cards), nil
}

func (s *CardDAVSource) cards(ctx context.Context) ([]vcard.Card, error) {
	paths, err := s.addressBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrFetchRecords, err)
	}

	query := &carddav.AddressBookQuery{
		DataRequest: carddav.AddressDataRequest{AllProp: true},
	}

	var cards []vcard.Card
	for _, p := range paths {
		objects, err := s.client.QueryAddressBook(ctx, p, query)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", config.ErrCardDAVQuery, p, err)
		}
		for _, obj := range objects {
			cards = append(cards, obj.Card)
		}
	}
	return cards, nil
}

func (s *CardDAVSource) addressBooks(ctx context.Context) ([]string, error) {
	if s.path != "" && s.path != "/" {
		return []string{s.path}, nil
	}

	principal, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	homeSet, err := s.client.FindAddressBookHomeSet(ctx, principal)
	if err != nil {
		return nil, err
	}
	books, err := s.client.FindAddressBooks(ctx, homeSet)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, errors.New(config.ErrNoAddressBook)
	}

	paths := make([]string, len(books))
	for i, b := range books {
		paths[i] = b.Path
	}
	slog.Debug(config.MsgAddressBooks,
		config.LogKeyComponent, config.CompSource,
		config.LogKeyCount, len(paths))
	return paths, nil
}
