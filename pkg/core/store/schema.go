package store

import (
	"context"
	"strings"

	"smart_edgar/pkg/core/pivot"
	"smart_edgar/pkg/core/xbrl"
)

// Store is a relational backend holding the reporting tables.
type Store interface {
	pivot.RowSource
	SaveRecords(ctx context.Context, records []xbrl.ValueRecord) (int64, error)
	SaveMappings(ctx context.Context, mappings []Mapping) error
	SaveCompanies(ctx context.Context, companies []Company) error
}

var (
	_ Store = (*SQLite)(nil)
	_ Store = (*PGSource)(nil)
)

// Mapping assigns a source parameter to a standard parameter. Among the
// parameters of one standard parameter the lowest priority is preferred.
type Mapping struct {
	ParameterName     string `yaml:"parameterName"`
	StandardParameter string `yaml:"standardParameter"`
	Priority          int    `yaml:"priority"`
}

// Company is the metadata row joined to the values by identifier.
type Company struct {
	Identifier     string
	CompanyName    string
	TradingSymbol  string
	SICCode        string
	SICDescription string
	Incorporation  string
	Location       string
}

// DefaultMappings ranks the common alternatives of a few standard
// parameters.
func DefaultMappings() []Mapping {
	return []Mapping{
		{"Revenues", "Revenue", 1},
		{"RevenueFromContractWithCustomerExcludingAssessedTax", "Revenue", 2},
		{"SalesRevenueNet", "Revenue", 3},
		{"NetIncomeLoss", "NetIncome", 1},
		{"ProfitLoss", "NetIncome", 2},
		{"OperatingIncomeLoss", "OperatingIncome", 1},
		{"Assets", "Assets", 1},
		{"Liabilities", "Liabilities", 1},
		{"StockholdersEquity", "Equity", 1},
		{"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest", "Equity", 2},
	}
}

var valueColumns = []string{
	"identifier", "date", "numberOfMonths", "parameterName", "value", "unitRef",
	"segment", "segmentDimension", "prefix", "form", "file",
}

var companyColumns = []string{
	"identifier", "companyName", "tradingSymbol", "sicCode", "sicDescription", "incorporation", "location",
}

// ddl creates the tables of the EDGAR reporting model. realType is the
// floating point type name of the backend.
func ddl(realType string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS fact_values (
  identifier TEXT NOT NULL,
  date TEXT NOT NULL,
  numberOfMonths INTEGER NOT NULL,
  parameterName TEXT NOT NULL,
  value ` + realType + `,
  unitRef TEXT,
  segment TEXT NOT NULL DEFAULT '',
  segmentDimension TEXT NOT NULL DEFAULT '',
  prefix TEXT,
  form TEXT,
  file TEXT
)`,
		`CREATE INDEX IF NOT EXISTS fact_values_lookup ON fact_values (identifier, parameterName, date)`,
		`CREATE TABLE IF NOT EXISTS company (
  identifier TEXT PRIMARY KEY,
  companyName TEXT,
  tradingSymbol TEXT,
  sicCode TEXT,
  sicDescription TEXT,
  incorporation TEXT,
  location TEXT
)`,
		`CREATE TABLE IF NOT EXISTS mappings (
  parameterName TEXT PRIMARY KEY,
  standardParameter TEXT NOT NULL,
  priority INTEGER NOT NULL
)`,
	}
}

func placeholders(n int, style func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = style(i + 1)
	}
	return strings.Join(parts, ", ")
}

func companyArgs(c Company) []any {
	return []any{c.Identifier, c.CompanyName, c.TradingSymbol, c.SICCode, c.SICDescription, c.Incorporation, c.Location}
}
