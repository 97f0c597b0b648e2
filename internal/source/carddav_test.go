package source

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emersion/go-vcard"
	"github.com/emersion/go-webdav/carddav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

// MockAddressBook simulates a CardDAV server using testify/mock.
type MockAddressBook struct {
	mock.Mock
}

func (m *MockAddressBook) FindCurrentUserPrincipal(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockAddressBook) FindAddressBookHomeSet(ctx context.Context, principal string) (string, error) {
	args := m.Called(ctx, principal)
	return args.String(0), args.Error(1)
}

func (m *MockAddressBook) FindAddressBooks(ctx context.Context, homeSet string) ([]carddav.AddressBook, error) {
	args := m.Called(ctx, homeSet)
	if b := args.Get(0); b != nil {
		return b.([]carddav.AddressBook), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAddressBook) QueryAddressBook(ctx context.Context, path string, query *carddav.AddressBookQuery) ([]carddav.AddressObject, error) {
	args := m.Called(ctx, path, query)
	if o := args.Get(0); o != nil {
		return o.([]carddav.AddressObject), args.Error(1)
	}
	return nil, args.Error(1)
}

func card(t *testing.T, raw string) vcard.Card {
	t.Helper()
	c, err := vcard.NewDecoder(strings.NewReader(raw)).Decode()
	require.NoError(t, err)
	return c
}

func TestCardDAVSource_DirectAddressBook(t *testing.T) {
	book := new(MockAddressBook)
	book.On("QueryAddressBook", mock.Anything, "/dav/me/contacts/", mock.MatchedBy(func(q *carddav.AddressBookQuery) bool {
		return q.DataRequest.AllProp
	})).Return([]carddav.AddressObject{
		{Path: "/dav/me/contacts/a.vcf", Card: card(t, "BEGIN:VCARD\nVERSION:4.0\nFN:Alice\nBDAY:1994-03-15\nEND:VCARD\n")},
		{Path: "/dav/me/contacts/b.vcf", Card: card(t, "BEGIN:VCARD\nVERSION:4.0\nFN:No Date\nEND:VCARD\n")},
	}, nil)

	src := &CardDAVSource{client: book, path: "/dav/me/contacts/"}
	records, err := src.Fetch(context.Background(), engine.KindBirthday)
	require.NoError(t, err)

	assert.Equal(t, []engine.RawRecord{
		{Kind: engine.KindBirthday, Key: "Alice", Date: "03/15/1994", Names: []string{"Alice"}},
	}, records)
	book.AssertNotCalled(t, "FindCurrentUserPrincipal", mock.Anything)
}

func TestCardDAVSource_FetchAllQueriesOnce(t *testing.T) {
	book := new(MockAddressBook)
	book.On("QueryAddressBook", mock.Anything, "/dav/me/contacts/", mock.Anything).Return([]carddav.AddressObject{
		{Card: card(t, "BEGIN:VCARD\nVERSION:4.0\nFN:Alice\nBDAY:1994-03-15\nANNIVERSARY:2010-06-12\nRELATED;VALUE=text;TYPE=spouse:Bob\nEND:VCARD\n")},
	}, nil).Once()

	src := &CardDAVSource{client: book, path: "/dav/me/contacts/"}
	records, err := src.FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, engine.KindBirthday, records[0].Kind)
	assert.Equal(t, engine.KindAnniversary, records[1].Kind)
	assert.Equal(t, []string{"Alice", "Bob"}, records[1].Names)
	book.AssertNumberOfCalls(t, "QueryAddressBook", 1)
}

func TestCardDAVSource_Discovery(t *testing.T) {
	book := new(MockAddressBook)
	book.On("FindCurrentUserPrincipal", mock.Anything).Return("/principals/me/", nil)
	book.On("FindAddressBookHomeSet", mock.Anything, "/principals/me/").Return("/dav/me/", nil)
	book.On("FindAddressBooks", mock.Anything, "/dav/me/").Return([]carddav.AddressBook{
		{Path: "/dav/me/family/"},
		{Path: "/dav/me/work/"},
	}, nil)
	book.On("QueryAddressBook", mock.Anything, "/dav/me/family/", mock.Anything).Return([]carddav.AddressObject{
		{Card: card(t, "BEGIN:VCARD\nVERSION:4.0\nFN:Ann\nANNIVERSARY:2000-06-01\nRELATED;VALUE=text;TYPE=spouse:Bob\nEND:VCARD\n")},
	}, nil)
	book.On("QueryAddressBook", mock.Anything, "/dav/me/work/", mock.Anything).Return([]carddav.AddressObject{}, nil)

	src := &CardDAVSource{client: book, path: "/"}
	records, err := src.Fetch(context.Background(), engine.KindAnniversary)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, []string{"Ann", "Bob"}, records[0].Names)
	assert.Equal(t, "06/01/2000", records[0].Date)
	book.AssertExpectations(t)
}

func TestCardDAVSource_Errors(t *testing.T) {
	t.Run("No address book", func(t *testing.T) {
		book := new(MockAddressBook)
		book.On("FindCurrentUserPrincipal", mock.Anything).Return("/p/", nil)
		book.On("FindAddressBookHomeSet", mock.Anything, "/p/").Return("/h/", nil)
		book.On("FindAddressBooks", mock.Anything, "/h/").Return([]carddav.AddressBook{}, nil)

		_, err := (&CardDAVSource{client: book}).Fetch(context.Background(), engine.KindBirthday)
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrNoAddressBook)
	})

	t.Run("Query failure", func(t *testing.T) {
		book := new(MockAddressBook)
		book.On("QueryAddressBook", mock.Anything, "/books/x/", mock.Anything).Return(nil, errors.New("401 unauthorized"))

		_, err := (&CardDAVSource{client: book, path: "/books/x/"}).Fetch(context.Background(), engine.KindBirthday)
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrCardDAVQuery)
		assert.Contains(t, err.Error(), "401 unauthorized")
	})
}

func TestNewCardDAVSource_SplitsEndpointAndPath(t *testing.T) {
	src, err := NewCardDAVSource("https://dav.example.com/addressbooks/me/default/", "me", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/addressbooks/me/default/", src.path)
	assert.NotNil(t, src.client)

	_, err = NewCardDAVSource("://bad", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrInvalidURL)
}
