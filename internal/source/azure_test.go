package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

// MockLister simulates the table service using testify/mock.
type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListEntities(ctx context.Context, table, filter string) ([][]byte, error) {
	args := m.Called(ctx, table, filter)
	if e := args.Get(0); e != nil {
		return e.([][]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAzureTableSource_Birthdays(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListEntities", mock.Anything, "birthdays", "PartitionKey eq 'Birthdays'").Return([][]byte{
		[]byte(`{"PartitionKey":"Birthdays","RowKey":"1","odata.etag":"W/\"x\"","Name":"Alice","BirthDate":"03/15/1994"}`),
		[]byte(`{"PartitionKey":"Birthdays","RowKey":"2","Name":"Grandpa","BirthDate":"07/04/1920","DeathDate":"11/30/2001"}`),
	}, nil)

	src := &AzureTableSource{lister: lister}
	records, err := src.Fetch(context.Background(), engine.KindBirthday)
	require.NoError(t, err)

	assert.Equal(t, []engine.RawRecord{
		{Kind: engine.KindBirthday, Key: "1", Date: "03/15/1994", Names: []string{"Alice"}},
		{Kind: engine.KindBirthday, Key: "2", Date: "07/04/1920", Names: []string{"Grandpa"}, SecondaryDate: "11/30/2001"},
	}, records)
	lister.AssertExpectations(t)
}

func TestAzureTableSource_Anniversaries(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListEntities", mock.Anything, "anniversaries", "PartitionKey eq 'Anniversaries'").Return([][]byte{
		[]byte(`{"RowKey":"a","Spouse1":"Ann","Spouse2":"Bob","AnnivDate":"06/01/2000"}`),
		[]byte(`{"RowKey":"b","Spouse1":"Solo","AnnivDate":"05/05/1995","Extra":42}`),
	}, nil)

	src := &AzureTableSource{lister: lister}
	records, err := src.Fetch(context.Background(), engine.KindAnniversary)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"Ann", "Bob"}, records[0].Names)
	assert.Equal(t, "06/01/2000", records[0].Date)
	assert.Equal(t, []string{"Solo", ""}, records[1].Names)
	assert.Empty(t, records[1].SecondaryDate)
}

func TestAzureTableSource_Errors(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListEntities", mock.Anything, "birthdays", mock.Anything).Return(nil, errors.New("403 forbidden"))
	lister.On("ListEntities", mock.Anything, "anniversaries", mock.Anything).Return([][]byte{[]byte(`{not json`)}, nil)

	src := &AzureTableSource{lister: lister}

	_, err := src.Fetch(context.Background(), engine.KindBirthday)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrFetchRecords)
	assert.Contains(t, err.Error(), "403 forbidden")

	_, err = src.Fetch(context.Background(), engine.KindAnniversary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrEntityDecode)
}

func TestEntityRecord_NonStringProperties(t *testing.T) {
	rec, err := EntityRecord(engine.KindBirthday, []byte(`{"RowKey":"9","Name":7,"BirthDate":null}`))
	require.NoError(t, err)
	assert.Equal(t, "9", rec.Key)
	assert.Equal(t, []string{""}, rec.Names)
	assert.Empty(t, rec.Date)
}
