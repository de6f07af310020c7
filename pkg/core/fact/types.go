// Package fact holds the in-memory representation of one parsed filing document.
// Facts live in an arena (Graph) and are addressed by Handle; children and
// parents are handle lists so a fact can be referenced from several places.
package fact

import (
	"regexp"
	"strings"
)

// =============================================================================
// TAG TAXONOMY
// =============================================================================

// Type is the closed set of recognized filing tags.
// Tags that are not part of the taxonomy resolve to TypeUndefined and keep
// their original name on the fact (see Graph.Tag).
type Type uint8

const (
	TypeRoot Type = iota
	TypeXBRL
	TypeValue
	TypeImport
	TypeContext
	TypeEntity
	TypeArcroleRef
	TypeCalculationArc
	TypeCalculationLink
	TypeDefinition
	TypeDefinitionLink
	TypeDefinitionArc
	TypeElement
	TypeLoc
	TypeLabel
	TypeLabelArc
	TypeLabelLink
	TypeLinkbase
	TypeLinkbaseRef
	TypePresentationArc
	TypePresentationLink
	TypeRoleRef
	TypeRoleType
	TypeSchema
	TypeSchemaRef
	TypeUnit
	TypeUsedOn
	TypePeriod
	TypeStartDate
	TypeEndDate
	TypeIdentifier
	TypeSegment
	TypeExplicitMember
	TypeInstant
	TypeDivide
	TypeUnitNumerator
	TypeUnitDenominator
	TypeMeasure
	TypeAnnotation
	TypeAppinfo
	TypeFootnote
	TypeFootnoteLink
	TypeFootnoteArc
	TypeReference
	TypeDocumentation
	TypeDefinitionAndReference
	TypeHeader
	TypeResources
	TypeHidden
	TypeHTML
	TypeContinuation
	TypeTypedMember
	TypeUndefined
)

var typeNames = [...]string{
	TypeRoot:                   "ROOT",
	TypeXBRL:                   "xbrl",
	TypeValue:                  "value",
	TypeImport:                 "importX",
	TypeContext:                "context",
	TypeEntity:                 "entity",
	TypeArcroleRef:             "arcroleRef",
	TypeCalculationArc:         "calculationArc",
	TypeCalculationLink:        "calculationLink",
	TypeDefinition:             "definition",
	TypeDefinitionLink:         "definitionLink",
	TypeDefinitionArc:          "definitionArc",
	TypeElement:                "element",
	TypeLoc:                    "loc",
	TypeLabel:                  "label",
	TypeLabelArc:               "labelArc",
	TypeLabelLink:              "labelLink",
	TypeLinkbase:               "linkbase",
	TypeLinkbaseRef:            "linkbaseRef",
	TypePresentationArc:        "presentationArc",
	TypePresentationLink:       "presentationLink",
	TypeRoleRef:                "roleRef",
	TypeRoleType:               "roleType",
	TypeSchema:                 "schema",
	TypeSchemaRef:              "schemaRef",
	TypeUnit:                   "unit",
	TypeUsedOn:                 "usedOn",
	TypePeriod:                 "period",
	TypeStartDate:              "startDate",
	TypeEndDate:                "endDate",
	TypeIdentifier:             "identifier",
	TypeSegment:                "segment",
	TypeExplicitMember:         "explicitMember",
	TypeInstant:                "instant",
	TypeDivide:                 "divide",
	TypeUnitNumerator:          "unitNumerator",
	TypeUnitDenominator:        "unitDenominator",
	TypeMeasure:                "measure",
	TypeAnnotation:             "annotation",
	TypeAppinfo:                "appinfo",
	TypeFootnote:               "footnote",
	TypeFootnoteLink:           "footnoteLink",
	TypeFootnoteArc:            "footnoteArc",
	TypeReference:              "reference",
	TypeDocumentation:          "documentation",
	TypeDefinitionAndReference: "DefinitionAndReference",
	TypeHeader:                 "header",
	TypeResources:              "resources",
	TypeHidden:                 "hidden",
	TypeHTML:                   "html",
	TypeContinuation:           "continuation",
	TypeTypedMember:            "typedMember",
	TypeUndefined:              "UNDEFINED",
}

// reservedTags are tag names that collide with the taxonomy's own spelling.
// They resolve only through this table.
var reservedTags = map[string]Type{
	"import": TypeImport,
}

// typeByName holds the tag spellings of the taxonomy. The root and undefined
// sentinels and the remapped entries cannot be reached by a tag name.
var typeByName = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		switch Type(t) {
		case TypeRoot, TypeUndefined:
			continue
		}
		m[name] = Type(t)
	}
	for _, t := range reservedTags {
		delete(m, typeNames[t])
	}
	return m
}()

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "UNDEFINED"
}

// LookupType returns the taxonomy entry for a tag name.
func LookupType(tag string) (Type, bool) {
	if t, ok := reservedTags[tag]; ok {
		return t, true
	}
	t, ok := typeByName[tag]
	return t, ok
}

// ResolveType maps a tag name to its taxonomy entry. It is total: tags that
// are not recognized become TypeValue when they sit directly below the root
// of a facts document, and TypeUndefined otherwise. The second result reports
// whether the tag was recognized by the taxonomy itself.
func ResolveType(tag string, depth int, factsDocument bool) (Type, bool) {
	if t, ok := LookupType(tag); ok {
		return t, true
	}
	if factsDocument && depth == 1 {
		return TypeValue, false
	}
	return TypeUndefined, false
}

// =============================================================================
// ATTRIBUTES
// =============================================================================

// Well known attribute names.
const (
	AttrValue            = "value"
	AttrContextRef       = "contextRef"
	AttrInstant          = "instant"
	AttrForm             = "form"
	AttrFile             = "file"
	AttrParameterName    = "parameterName"
	AttrLabel            = "label"
	AttrRole             = "role"
	AttrFrom             = "from"
	AttrTo               = "to"
	AttrOrder            = "order"
	AttrPriority         = "priority"
	AttrPreferredLabel   = "preferredLabel"
	AttrHref             = "href"
	AttrRoleURI          = "roleURI"
	AttrID               = "id"
	AttrExplicitMember   = "explicitMember"
	AttrDate             = "date"
	AttrSegment          = "segment"
	AttrIdentifier       = "identifier"
	AttrCompanyName      = "companyName"
	AttrTradingSymbol    = "tradingSymbol"
	AttrIncorporation    = "incorporation"
	AttrLocation         = "location"
	AttrSICCode          = "sicCode"
	AttrSICDescription   = "sicDescription"
	AttrDateLabel        = "dateLabel"
	AttrSegmentDimension = "segmentDimension"
	AttrDimension        = "dimension"
	AttrNumberOfMonths   = "numberOfMonths"
	AttrUnitRef          = "unitRef"
	AttrScale            = "scale"
	AttrStartDate        = "startDate"
	AttrEndDate          = "endDate"
	AttrURI              = "uri"
	AttrPrefix           = "prefix"
	AttrDecimals         = "decimals"
)

// =============================================================================
// DATA TYPE CLASSIFICATION
// =============================================================================

// DataType classifies the textual payload of a value fact.
type DataType uint8

const (
	DataTypeUndefined DataType = iota
	DataTypeString
	DataTypeNumber
	DataTypeHTML
)

func (d DataType) String() string {
	switch d {
	case DataTypeString:
		return "string"
	case DataTypeNumber:
		return "number"
	case DataTypeHTML:
		return "html"
	default:
		return "undefined"
	}
}

var numberPattern = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// ClassifyValue decides the data type from the lexical shape of a value.
func ClassifyValue(value string) DataType {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return DataTypeUndefined
	case strings.HasPrefix(v, "<"), strings.HasPrefix(v, "&lt;"), strings.HasPrefix(v, "&gt;"):
		return DataTypeHTML
	case numberPattern.MatchString(v):
		return DataTypeNumber
	default:
		return DataTypeString
	}
}
