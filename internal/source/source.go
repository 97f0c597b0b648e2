package source

import (
	"context"
	"fmt"

	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

// RecordSource returns the raw records of one kind.
type RecordSource interface {
	Fetch(ctx context.Context, kind engine.Kind) ([]engine.RawRecord, error)
}

// SnapshotSource reads every kind in one go, so a pass never mixes two
// versions of the same contact list.
type SnapshotSource interface {
	RecordSource
	FetchAll(ctx context.Context) ([]engine.RawRecord, error)
}

// New builds the RecordSource selected by s.Source.
func New(s *config.Settings) (RecordSource, error) {
	switch s.Source {
	case config.SourceAzure:
		return NewAzureTableSource(s.AzureEndpoint, s.AzureAccount, s.AzureKey)
	case config.SourceVCard:
		return &VCardSource{
			Path:     s.VCardPath,
			URL:      s.VCardURL,
			User:     s.CardDAVUser,
			Password: s.CardDAVPassword,
			Fetcher:  NewHTTPFetcher(),
		}, nil
	case config.SourceCardDAV:
		return NewCardDAVSource(s.CardDAVURL, s.CardDAVUser, s.CardDAVPassword)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrSourceUnknown, s.Source)
	}
}
