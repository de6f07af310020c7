package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPGSourceWithoutPool(t *testing.T) {
	s := &PGSource{}
	_, err := s.Query(context.Background(), "SELECT 1")
	assert.EqualError(t, err, "database pool not initialized")
	_, err = s.SaveRecords(context.Background(), nil)
	assert.Error(t, err)
}

func TestConnectRequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(7), normalize(int32(7)))
	assert.Equal(t, "x", normalize("x"))
	assert.Nil(t, normalize(nil))
}

func TestPGSourceIntegration(t *testing.T) {
	if os.Getenv("EDGAR_PG_INTEGRATION") != "1" {
		t.Skip("set EDGAR_PG_INTEGRATION=1 to run against a postgres container")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to cleanup postgres container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	url := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	src := NewPGSource(pool, nil)
	require.NoError(t, src.Migrate(ctx))

	n, err := src.SaveRecords(ctx, sampleRecords())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.NoError(t, src.SaveMappings(ctx, DefaultMappings()))
	require.NoError(t, src.SaveCompanies(ctx, []Company{{Identifier: "0000012345", CompanyName: "Acme Corp"}}))

	rows, err := src.Query(ctx, `SELECT company.companyName AS "companyName", SUM(fact_values.value) AS "value", fact_values.numberOfMonths AS "numberOfMonths"
FROM fact_values
JOIN company ON fact_values.identifier = company.identifier
WHERE fact_values.parameterName = 'Revenues' AND fact_values.segment = ''
GROUP BY company.companyName, fact_values.numberOfMonths`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme Corp", rows[0]["companyName"])
	assert.Equal(t, 1.5e9, rows[0]["value"])
	assert.Equal(t, int64(3), rows[0]["numberOfMonths"])
}
