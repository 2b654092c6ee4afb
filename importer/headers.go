package importer

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Field is a position attribute a file column can map to.
type Field int

const (
	FieldRelevanceCategory Field = iota
	FieldPositionID
	FieldStatus
	FieldObjectCode
	FieldObjectDescription
	FieldPositionValue
	FieldOrganizationUnit
	FieldGradeCode
	FieldBaseGrade
	FieldPercentage
	FieldStartDate
	FieldEndDate
	FieldFund
	FieldPersonnelNumber
	FieldEmployeeGroup
)

var fieldNames = map[Field]string{
	FieldRelevanceCategory: "relevance_category",
	FieldPositionID:        "position_id",
	FieldStatus:            "status",
	FieldObjectCode:        "object_code",
	FieldObjectDescription: "object_description",
	FieldPositionValue:     "position_value",
	FieldOrganizationUnit:  "organization_unit",
	FieldGradeCode:         "grade_code",
	FieldBaseGrade:         "base_grade",
	FieldPercentage:        "percentage",
	FieldStartDate:         "start_date",
	FieldEndDate:           "end_date",
	FieldFund:              "fund",
	FieldPersonnelNumber:   "personnel_number",
	FieldEmployeeGroup:     "employee_group",
}

func (f Field) String() string {
	return fieldNames[f]
}

// headerRule lists the names a column may carry in HR system exports. The
// German names come from SAP staff-plan reports.
type headerRule struct {
	field    Field
	exact    []string
	contains []string
}

// headerRules are checked in order; earlier rules win on substring matches.
var headerRules = []headerRule{
	{FieldRelevanceCategory, []string{"relevance", "relevance category"}, []string{"stellenplanrelevanz", "relevance"}},
	{FieldPositionID, []string{"objektid", "objekt id", "object id", "position id", "stellen id"}, nil},
	{FieldStatus, []string{"sta", "status"}, nil},
	{FieldObjectCode, []string{"objektkurzel", "object code"}, []string{"objektkurzel", "object code"}},
	{FieldObjectDescription, []string{"bezeichnung", "description"}, []string{"objektbezeichnung", "object description", "bezeichnung"}},
	{FieldPositionValue, []string{"wert stelle", "position value"}, []string{"wert stelle", "position value"}},
	{FieldOrganizationUnit, []string{"organisationseinheit", "organization unit"}, []string{"organisationseinheit", "organization"}},
	{FieldGradeCode, []string{"trfgr", "tariff group", "grade"}, []string{"trfgr", "tariff"}},
	{FieldBaseGrade, []string{"bsgrd", "base grade"}, []string{"bsgrd", "base grade"}},
	{FieldPercentage, []string{"%", "prozent", "percentage"}, []string{"prozt", "prozent", "percentage"}},
	{FieldStartDate, []string{"start", "start date", "beginn"}, []string{"beginn", "start_date"}},
	{FieldEndDate, []string{"end", "end date", "ende"}, []string{"ende", "end_date"}},
	{FieldFund, []string{"fonds", "fund"}, nil},
	{FieldPersonnelNumber, []string{"persnr", "personnel number"}, []string{"persnr", "personnel"}},
	{FieldEmployeeGroup, []string{"mitarbeitergruppe", "employee group"}, []string{"mitarbeitergruppe", "employee group"}},
}

// minFuzzyAlias keeps short aliases like "sta" or "%" out of fuzzy matching.
const minFuzzyAlias = 5

var umlautFolder = strings.NewReplacer("ü", "u", "ä", "a", "ö", "o", "ß", "ss")

// normalizeHeader lower-cases, trims and folds umlauts.
func normalizeHeader(h string) string {
	return umlautFolder.Replace(strings.ToLower(strings.TrimSpace(h)))
}

// ColumnMap maps fields to column indexes.
type ColumnMap map[Field]int

// Value returns the trimmed cell of field in record, or "".
func (m ColumnMap) Value(record []string, f Field) string {
	idx, ok := m[f]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// MapHeaders assigns each header to at most one field. For each header the
// exact names are tried first, then substring keywords, then a fuzzy match
// against the aliases of fields that are still unassigned. The first header
// claiming a field keeps it.
func MapHeaders(headers []string) ColumnMap {
	m := make(ColumnMap)
	unmapped := make([]int, 0)

	for i, raw := range headers {
		h := normalizeHeader(raw)
		if h == "" {
			continue
		}
		if f, ok := matchExact(h); ok && !m.has(f) {
			m[f] = i
			continue
		}
		if f, ok := matchContains(h, m); ok {
			m[f] = i
			continue
		}
		unmapped = append(unmapped, i)
	}

	for _, i := range unmapped {
		if f, ok := matchFuzzy(normalizeHeader(headers[i]), m); ok {
			m[f] = i
		}
	}
	return m
}

func (m ColumnMap) has(f Field) bool {
	_, ok := m[f]
	return ok
}

func matchExact(h string) (Field, bool) {
	for _, r := range headerRules {
		for _, name := range r.exact {
			if h == name {
				return r.field, true
			}
		}
	}
	return 0, false
}

func matchContains(h string, taken ColumnMap) (Field, bool) {
	for _, r := range headerRules {
		if taken.has(r.field) {
			continue
		}
		for _, kw := range r.contains {
			if strings.Contains(h, kw) {
				return r.field, true
			}
		}
	}
	return 0, false
}

// matchFuzzy picks the free field whose alias is closest to h, among aliases
// whose letters all appear in h in order ("pers.-nr." ~ "persnr").
func matchFuzzy(h string, taken ColumnMap) (Field, bool) {
	best := -1
	var bestField Field
	for _, r := range headerRules {
		if taken.has(r.field) {
			continue
		}
		for _, alias := range append(append([]string{}, r.exact...), r.contains...) {
			if len(alias) < minFuzzyAlias || !fuzzy.MatchNormalizedFold(alias, h) {
				continue
			}
			d := fuzzy.LevenshteinDistance(alias, h)
			if d > len(h)/2 {
				continue
			}
			if best < 0 || d < best {
				best = d
				bestField = r.field
			}
		}
	}
	return bestField, best >= 0
}
