package reporting

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Grouping labels of the EDGAR model.
const (
	GroupCompany   = "Company"
	GroupTime      = "Time"
	GroupParameter = "Parameter"
	GroupFiling    = "Filing"
	GroupSegment   = "Segment"
)

// Table names of the EDGAR model.
const (
	TableValues   = "fact_values"
	TableCompany  = "company"
	TableMappings = "mappings"
)

// EdgarModel returns the schema over extracted filing values, company
// metadata and the parameter to standard parameter mapping table.
func EdgarModel() *Model {
	m := &Model{
		BaseTable:         TableValues,
		ValueField:        "value",
		IdentifierField:   "identifier",
		PriorityDimension: "standardParameter",
		PriorityField:     "mappings.priority",
		Tables: []*Table{
			{
				Name: TableValues,
				Fields: []*Field{
					{Name: "identifier", Group: GroupCompany},
					{Name: "date", Group: GroupTime},
					{Name: "year", Expression: "substr(fact_values.date, 1, 4)", Group: GroupTime},
					{Name: "numberOfMonths", Group: GroupTime},
					{Name: "parameterName", Group: GroupParameter},
					{Name: "value"},
					{Name: "unitRef", Group: GroupParameter},
					{Name: "segment", Group: GroupSegment},
					{Name: "segmentDimension", Group: GroupSegment},
					{Name: "prefix", Group: GroupParameter},
					{Name: "form", Group: GroupFiling},
					{Name: "file", Group: GroupFiling},
				},
			},
			{
				Name: TableCompany,
				Fields: []*Field{
					{Name: "identifier"},
					{Name: "companyName", Group: GroupCompany},
					{Name: "tradingSymbol", Group: GroupCompany},
					{Name: "sicCode", Group: GroupCompany},
					{Name: "sicDescription", Group: GroupCompany},
					{Name: "incorporation", Group: GroupCompany},
					{Name: "location", Group: GroupCompany},
				},
			},
			{
				Name: TableMappings,
				Fields: []*Field{
					{Name: "parameterName"},
					{Name: "standardParameter", Group: GroupParameter},
					{Name: "priority"},
				},
			},
		},
		Joins: []Join{
			{Left: TableValues, LeftColumn: "identifier", Right: TableCompany, RightColumn: "identifier", Outer: true},
			{Left: TableValues, LeftColumn: "parameterName", Right: TableMappings, RightColumn: "parameterName"},
		},
	}
	return m.Link()
}

// LoadModel reads a schema from a YAML file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes a YAML schema and checks that its base table exists.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	m.Link()
	if _, err := m.Table(m.BaseTable); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	if m.ValueField == "" {
		m.ValueField = "value"
	}
	return &m, nil
}
