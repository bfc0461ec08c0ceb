package request

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var iso2Re = regexp.MustCompile(`^[A-Za-z]{2}$`)

// NationTable maps country names, in any case, to ISO-3166 alpha-2 codes.
type NationTable map[string]string

// DefaultNationTable covers the names users typically type in the onboarding form.
func DefaultNationTable() NationTable {
	return NationTable{
		"россия":               "RU",
		"российская федерация": "RU",
		"russia":               "RU",
		"украина":              "UA",
		"україна":              "UA",
		"ukraine":              "UA",
		"беларусь":             "BY",
		"belarus":              "BY",
		"казахстан":            "KZ",
		"kazakhstan":           "KZ",
		"грузия":               "GE",
		"georgia":              "GE",
		"армения":              "AM",
		"armenia":              "AM",
		"азербайджан":          "AZ",
		"azerbaijan":           "AZ",
		"узбекистан":           "UZ",
		"uzbekistan":           "UZ",
		"молдова":              "MD",
		"moldova":              "MD",
		"латвия":               "LV",
		"latvia":               "LV",
		"литва":                "LT",
		"lithuania":            "LT",
		"эстония":              "EE",
		"estonia":              "EE",
		"польша":               "PL",
		"poland":               "PL",
		"германия":             "DE",
		"germany":              "DE",
		"франция":              "FR",
		"france":               "FR",
		"италия":               "IT",
		"italy":                "IT",
		"испания":              "ES",
		"spain":                "ES",
		"великобритания":       "GB",
		"united kingdom":       "GB",
		"сша":                  "US",
		"united states":        "US",
		"usa":                  "US",
		"израиль":              "IL",
		"israel":               "IL",
		"турция":               "TR",
		"turkey":               "TR",
	}
}

// LoadNationTable reads a flat YAML mapping of name to code and merges it
// over DefaultNationTable.
func LoadNationTable(path string) (NationTable, error) {
	table := DefaultNationTable()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("read nation table: %w", err)
	}

	var file map[string]string
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return table, fmt.Errorf("parse nation table: %w", err)
	}
	for name, code := range file {
		if !iso2Re.MatchString(strings.TrimSpace(code)) {
			return table, fmt.Errorf("nation table: %q maps to invalid code %q", name, code)
		}
		table[normalizeKey(name)] = strings.ToUpper(strings.TrimSpace(code))
	}
	return table, nil
}

// Normalize returns the upper-cased code for raw, or "" when it cannot be mapped.
func (t NationTable) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if iso2Re.MatchString(raw) {
		return strings.ToUpper(raw)
	}
	return t[normalizeKey(raw)]
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
