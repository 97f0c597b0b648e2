package source_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/source"
)

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

func mustDate(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := time.Parse(config.DateFormatDisplay, v)
	require.NoError(t, err)
	return d
}

func TestNew_SelectsSource(t *testing.T) {
	tests := []struct {
		name     string
		settings config.Settings
		want     any
	}{
		{"vCard", config.Settings{Source: config.SourceVCard, VCardPath: "cards.vcf"}, &source.VCardSource{}},
		{"CardDAV", config.Settings{Source: config.SourceCardDAV, CardDAVURL: "https://dav.example.com/addressbooks/me/"}, &source.CardDAVSource{}},
		{"Azure", config.Settings{
			Source:        config.SourceAzure,
			AzureAccount:  "account",
			AzureKey:      "YWJjZA==",
			AzureEndpoint: "https://account.table.core.windows.net",
		}, &source.AzureTableSource{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := source.New(&tt.settings)
			require.NoError(t, err)
			assert.IsType(t, tt.want, src)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := source.New(&config.Settings{Source: "ldap"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSourceUnknown)

	_, err = source.New(&config.Settings{Source: config.SourceCardDAV, CardDAVURL: "ftp://dav.example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrProtocol)

	_, err = source.New(&config.Settings{Source: config.SourceAzure, AzureAccount: "a", AzureKey: "not base64!"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrTableClient)
}
