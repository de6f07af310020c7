package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart_edgar/pkg/core/xbrl"
)

func sampleRecords() []xbrl.ValueRecord {
	return []xbrl.ValueRecord{
		{Identifier: "0000012345", Date: "2021-03-31", NumberOfMonths: 3, ParameterName: "Revenues", Value: 1.5e9, UnitRef: "USD", Prefix: "us-gaap", Form: "10-Q", File: "acme-20210331.xml"},
		{Identifier: "0000012345", Date: "2021-03-31", NumberOfMonths: 3, ParameterName: "Revenues", Value: 9e8, UnitRef: "USD", Segment: "us-gaap:ProductMember", SegmentDimension: "srt:ProductOrServiceAxis", Prefix: "us-gaap", Form: "10-Q", File: "acme-20210331.xml"},
		{Identifier: "0000012345", Date: "2021-03-31", NumberOfMonths: 0, ParameterName: "Assets", Value: 9.8e9, UnitRef: "USD", Prefix: "us-gaap", Form: "10-Q", File: "acme-20210331.xml"},
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.SaveRecords(ctx, sampleRecords())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	rows, err := db.Query(ctx, `SELECT parameterName AS "parameterName", segment AS "segment", value AS "value", numberOfMonths AS "numberOfMonths"
FROM fact_values ORDER BY parameterName, segment`)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Assets", rows[0]["parameterName"])
	assert.Equal(t, 9.8e9, rows[0]["value"])
	assert.EqualValues(t, 0, rows[0]["numberOfMonths"])
	assert.Equal(t, "", rows[1]["segment"])
	assert.Equal(t, "us-gaap:ProductMember", rows[2]["segment"])
}

func TestSQLiteUpserts(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveMappings(ctx, DefaultMappings()))
	require.NoError(t, db.SaveMappings(ctx, []Mapping{{"Revenues", "Revenue", 5}}))

	rows, err := db.Query(ctx, `SELECT priority AS "priority" FROM mappings WHERE parameterName = 'Revenues'`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 5, rows[0]["priority"])

	require.NoError(t, db.SaveCompanies(ctx, []Company{{Identifier: "1", CompanyName: "Acme"}}))
	require.NoError(t, db.SaveCompanies(ctx, []Company{{Identifier: "1", CompanyName: "Acme Corp", SICCode: "3571"}}))

	rows, err = db.Query(ctx, `SELECT companyName AS "companyName", sicCode AS "sicCode" FROM company`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme Corp", rows[0]["companyName"])
	assert.Equal(t, "3571", rows[0]["sicCode"])
}

func TestSQLitePersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "edgar.db")

	db, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	_, err = db.SaveRecords(ctx, sampleRecords())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(ctx, `SELECT COUNT(*) AS "n" FROM fact_values`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0]["n"])
}

func TestSQLiteQueryError(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Query(ctx, "SELECT nope FROM missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite query")
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(3, sqlitePlaceholder))
	assert.Equal(t, "$1, $2", placeholders(2, pgPlaceholder))
}
