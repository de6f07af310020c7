package formula

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart_edgar/pkg/core/store"
	"smart_edgar/pkg/core/xbrl"
)

func TestSectorMarketShare(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenSQLite(ctx, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.SaveRecords(ctx, []xbrl.ValueRecord{
		{Identifier: "1", Date: "2021-12-31", NumberOfMonths: 12, ParameterName: "Revenues", Value: 300, Form: "10-K"},
		{Identifier: "2", Date: "2021-12-31", NumberOfMonths: 12, ParameterName: "Revenues", Value: 100, Form: "10-K"},
		{Identifier: "3", Date: "2021-12-31", NumberOfMonths: 12, ParameterName: "Revenues", Value: 5000, Form: "10-K"},
		// quarters and segments do not count
		{Identifier: "1", Date: "2021-09-30", NumberOfMonths: 3, ParameterName: "Revenues", Value: 80, Form: "10-Q"},
		{Identifier: "2", Date: "2021-12-31", NumberOfMonths: 12, ParameterName: "Revenues", Value: 60, Segment: "ProductMember", Form: "10-K"},
	})
	require.NoError(t, err)
	require.NoError(t, db.SaveCompanies(ctx, []store.Company{
		{Identifier: "1", CompanyName: "Acme", SICCode: "3571"},
		{Identifier: "2", CompanyName: "Globex", SICCode: "3571"},
		{Identifier: "3", CompanyName: "Initech", SICCode: "7372"},
	}))

	share := SectorMarketShare{Source: db}

	v, ok, err := share.MarketShare(ctx, "1", "2021")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 75, v, 1e-9)

	v, ok, err = share.MarketShare(ctx, "3", "2021")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 100, v, 1e-9, "alone in its industry")

	_, ok, err = share.MarketShare(ctx, "1", "2019")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedMarketShare(t *testing.T) {
	calls := 0
	fail := false
	next := MarketShareFunc(func(_ context.Context, id, year string) (float64, bool, error) {
		calls++
		if fail {
			return 0, false, errors.New("database is gone")
		}
		return 12.5, true, nil
	})
	c := NewCachedMarketShare(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, ok, err := c.MarketShare(ctx, "1", "2021")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 12.5, v)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())

	fail = true
	_, _, err := c.MarketShare(ctx, "1", "2022")
	require.Error(t, err)
	_, _, err = c.MarketShare(ctx, "1", "2022")
	require.Error(t, err)
	assert.Equal(t, 3, calls, "failures are not cached")
	assert.Equal(t, 1, c.Len())
}
