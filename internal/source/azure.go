package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

// entityLister returns the raw JSON entities of table matching filter.
type entityLister interface {
	ListEntities(ctx context.Context, table, filter string) ([][]byte, error)
}

type tableService struct {
	svc *aztables.ServiceClient
}

func (t tableService) ListEntities(ctx context.Context, table, filter string) ([][]byte, error) {
	pager := t.svc.NewClient(table).NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	var entities [][]byte
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", config.ErrTableQuery, table, err)
		}
		entities = append(entities, resp.Entities...)
	}
	return entities, nil
}

// AzureTableSource reads records from Azure Table Storage.
// Birthdays live in the "birthdays" table, partition "Birthdays"; anniversaries
// in "anniversaries", partition "Anniversaries".
type AzureTableSource struct {
	lister entityLister
}

// NewAzureTableSource authenticates with the account's shared key.
// SDK retries are disabled: a failed pass is simply retried by the next run.
func NewAzureTableSource(endpoint, account, key string) (*AzureTableSource, error) {
	cred, err := aztables.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTableClient, err)
	}

	opts := &aztables.ClientOptions{}
	opts.Retry.MaxRetries = -1
	opts.Telemetry.ApplicationID = config.AppName

	svc, err := aztables.NewServiceClientWithSharedKey(endpoint, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTableClient, err)
	}
	return &AzureTableSource{lister: tableService{svc: svc}}, nil
}

// Fetch lists the partition holding kind and maps each entity.
func (s *AzureTableSource) Fetch(ctx context.Context, kind engine.Kind) ([]engine.RawRecord, error) {
	table, partition := config.TableBirthdays, config.PartitionBirthdays
	if kind == engine.KindAnniversary {
		table, partition = config.TableAnniversaries, config.PartitionAnniversary
	}

	entities, err := s.lister.ListEntities(ctx, table, fmt.Sprintf(config.FilterPartitionFormat, partition))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrFetchRecords, err)
	}

	records := make([]engine.RawRecord, 0, len(entities))
	for _, raw := range entities {
		rec, err := EntityRecord(kind, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	slog.Debug(config.MsgRecordsFetched,
		config.LogKeyComponent, config.CompSource,
		config.LogKeyTable, table,
		config.LogKeyCount, len(records))
	return records, nil
}

// EntityRecord maps one table entity to a raw record.
// Missing or non-string properties read as empty.
func EntityRecord(kind engine.Kind, raw []byte) (engine.RawRecord, error) {
	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		return engine.RawRecord{}, fmt.Errorf("%s: %w", config.ErrEntityDecode, err)
	}

	rec := engine.RawRecord{Kind: kind, Key: prop(props, config.PropRowKey)}
	if kind == engine.KindAnniversary {
		rec.Date = prop(props, config.PropAnnivDate)
		rec.Names = []string{prop(props, config.PropSpouse1), prop(props, config.PropSpouse2)}
		return rec, nil
	}

	rec.Date = prop(props, config.PropBirthDate)
	rec.Names = []string{prop(props, config.PropName)}
	rec.SecondaryDate = prop(props, config.PropDeathDate)
	return rec, nil
}

func prop(props map[string]any, name string) string {
	if s, ok := props[name].(string); ok {
		return s
	}
	return ""
}
