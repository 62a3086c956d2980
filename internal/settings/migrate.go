package settings

import (
	"fmt"
	"math"
	"strings"
)

// Document is a persisted config decoded without a schema.
type Document = map[string]any

// Migration upgrades a document from version From to From+1 in place.
type Migration struct {
	From  int
	Name  string
	Apply func(doc Document) error
}

// Chain is the ordered list of migrations applied on load.
var Chain = []Migration{
	{From: 0, Name: "legacy-price-tables", Apply: migrateLegacyPrices},
	{From: 1, Name: "promo-code-defaults", Apply: backfillPromoCodes},
}

// legacy fallback when a price sub-table is missing
const (
	legacyStandard = 70.0
	legacyPremium  = 85.0
)

// Migrate runs every migration in chain whose From matches the document
// version and stamps the version after each step.  It returns the names
// of the migrations applied.  A document at or beyond the last version
// is left untouched.
func Migrate(doc Document, chain []Migration) ([]string, error) {
	var applied []string
	v := Version(doc)
	for _, m := range chain {
		if m.From != v {
			continue
		}
		if err := m.Apply(doc); err != nil {
			return applied, fmt.Errorf("migration %s: %w", m.Name, err)
		}
		v = m.From + 1
		doc["schemaVersion"] = v
		applied = append(applied, m.Name)
	}
	return applied, nil
}

// Version reads schemaVersion; a missing or malformed value is 0.
func Version(doc Document) int {
	switch v := doc["schemaVersion"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// WholeVersion reports whether schemaVersion is absent or a whole
// number.  Version truncates fractions and reads other types as 0.
func WholeVersion(doc Document) bool {
	raw, ok := doc["schemaVersion"]
	if !ok {
		return true
	}
	switch v := raw.(type) {
	case float64:
		return v == math.Trunc(v) && !math.IsInf(v, 0)
	case int:
		return true
	}
	return false
}

// migrateLegacyPrices moves the old per-category price tables onto the
// show types.  It only fires when prices.weekend exists and at least one
// show type has no priceStandard.
func migrateLegacyPrices(doc Document) error {
	prices, _ := doc["prices"].(map[string]any)
	if prices == nil {
		return nil
	}
	if _, ok := prices["weekend"]; !ok {
		return nil
	}
	types, _ := doc["showTypes"].([]any)
	needed := false
	for _, t := range types {
		st, ok := t.(map[string]any)
		if !ok {
			continue
		}
		if _, has := st["priceStandard"]; !has {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	for _, t := range types {
		st, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := st["name"].(string)
		table, _ := prices[legacyTable(name)].(map[string]any)
		st["priceStandard"] = legacyPrice(table, "standard", legacyStandard)
		st["pricePremium"] = legacyPrice(table, "premium", legacyPremium)
	}
	delete(prices, "weekday")
	delete(prices, "weekend")
	delete(prices, "zorgHeld")
	return nil
}

func legacyTable(showType string) string {
	switch {
	case strings.Contains(showType, "Weekend"):
		return "weekend"
	case strings.Contains(showType, "Zorgzame"):
		return "zorgHeld"
	default:
		return "weekday"
	}
}

func legacyPrice(table map[string]any, key string, def float64) float64 {
	if table == nil {
		return def
	}
	if v, ok := table[key].(float64); ok {
		return v
	}
	return def
}

// backfillPromoCodes gives promo codes saved before discount types
// existed a fixed type and marks them active.
func backfillPromoCodes(doc Document) error {
	codes, _ := doc["promoCodes"].([]any)
	for _, c := range codes {
		pc, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if _, has := pc["type"]; !has {
			pc["type"] = "fixed"
		}
		if _, has := pc["isActive"]; !has {
			pc["isActive"] = true
		}
	}
	return nil
}
