package formula

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"smart_edgar/pkg/core/pivot"
	"smart_edgar/pkg/core/reporting"
)

// MarketShareProvider returns the share, in percent, of a company's value
// within its industry for a year.
type MarketShareProvider interface {
	MarketShare(ctx context.Context, identifier, year string) (float64, bool, error)
}

// MarketShareFunc adapts a function to MarketShareProvider.
type MarketShareFunc func(ctx context.Context, identifier, year string) (float64, bool, error)

func (f MarketShareFunc) MarketShare(ctx context.Context, identifier, year string) (float64, bool, error) {
	return f(ctx, identifier, year)
}

// SectorMarketShare computes the market share from the reporting tables:
// the company's annual value of Parameter against the sum over all
// companies with the same industry code.
type SectorMarketShare struct {
	Source    pivot.RowSource
	Parameter string // defaults to "Revenues"
}

// SQL returns the query computing the company and sector totals.
func (s SectorMarketShare) SQL(identifier, year string) string {
	param := s.Parameter
	if param == "" {
		param = "Revenues"
	}
	id := reporting.QuoteLiteral(identifier)
	return fmt.Sprintf(`SELECT SUM(CASE WHEN fact_values.identifier = %s THEN fact_values.value ELSE 0 END) AS "company",
  SUM(fact_values.value) AS "sector"
FROM fact_values
JOIN company ON fact_values.identifier = company.identifier
WHERE company.sicCode = (SELECT c.sicCode FROM company c WHERE c.identifier = %s)
  AND fact_values.parameterName = %s
  AND fact_values.numberOfMonths = 12
  AND fact_values.segment = ''
  AND substr(fact_values.date, 1, 4) = %s`,
		id, id, reporting.QuoteLiteral(param), reporting.QuoteLiteral(year))
}

func (s SectorMarketShare) MarketShare(ctx context.Context, identifier, year string) (float64, bool, error) {
	rows, err := s.Source.Query(ctx, s.SQL(identifier, year))
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	company, ok1 := pivot.ToFloat(rows[0]["company"])
	sector, ok2 := pivot.ToFloat(rows[0]["sector"])
	if !ok1 || !ok2 || sector == 0 {
		return 0, false, nil
	}
	return company / sector * 100, true, nil
}

type shareEntry struct {
	value float64
	ok    bool
}

// CachedMarketShare memoizes another provider for a time to live. Failed
// lookups are not cached.
type CachedMarketShare struct {
	next  MarketShareProvider
	ttl   time.Duration
	cache *ttlcache.Cache[string, shareEntry]
}

// NewCachedMarketShare wraps next.
func NewCachedMarketShare(next MarketShareProvider, ttl time.Duration) *CachedMarketShare {
	return &CachedMarketShare{
		next: next,
		ttl:  ttl,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, shareEntry](ttl),
		),
	}
}

func (c *CachedMarketShare) MarketShare(ctx context.Context, identifier, year string) (float64, bool, error) {
	key := identifier + "/" + year
	if item := c.cache.Get(key); item != nil {
		e := item.Value()
		return e.value, e.ok, nil
	}
	v, ok, err := c.next.MarketShare(ctx, identifier, year)
	if err != nil {
		return 0, false, err
	}
	c.cache.Set(key, shareEntry{value: v, ok: ok}, c.ttl)
	return v, ok, nil
}

// Len returns the number of cached entries.
func (c *CachedMarketShare) Len() int { return c.cache.Len() }
