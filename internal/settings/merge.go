package settings

import (
	"encoding/json"
	"fmt"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// Patch mirrors model.AppConfig with every field optional.  A nil field
// was absent (or null) in the persisted document and keeps the default.
type Patch struct {
	SchemaVersion *int
	ShowNames     *[]string
	ShowTypes     *[]model.ShowType
	PromoCodes    *[]model.DiscountCode
	Vouchers      *[]model.Voucher
	Merchandise   *[]model.MerchItem
	CapSlogans    *[]model.CapSlogan
	BookingRules  *BookingRulesPatch
	Prices        *PricesPatch
}

type BookingRulesPatch struct {
	MinGuests       *int
	MaxGuests       *int
	CutoffHours     *int
	EnforceCapacity *bool
}

type PricesPatch struct {
	PreShowDrinks *float64
	AfterParty    *float64
	Cap           *float64
}

// DecodePatch reads a Patch out of doc field by field.  A field whose
// value has the wrong shape is reported and left nil so the rest of the
// document still applies.
func DecodePatch(doc Document) (Patch, []error) {
	var errs []error
	p := Patch{
		SchemaVersion: field[int](doc, "schemaVersion", &errs),
		ShowNames:     field[[]string](doc, "showNames", &errs),
		ShowTypes:     field[[]model.ShowType](doc, "showTypes", &errs),
		PromoCodes:    field[[]model.DiscountCode](doc, "promoCodes", &errs),
		Vouchers:      field[[]model.Voucher](doc, "vouchers", &errs),
		Merchandise:   field[[]model.MerchItem](doc, "merchandise", &errs),
		CapSlogans:    field[[]model.CapSlogan](doc, "capSlogans", &errs),
	}
	if sub, ok := object(doc, "bookingRules", &errs); ok {
		p.BookingRules = &BookingRulesPatch{
			MinGuests:       field[int](sub, "minGuests", &errs),
			MaxGuests:       field[int](sub, "maxGuests", &errs),
			CutoffHours:     field[int](sub, "cutoffHours", &errs),
			EnforceCapacity: field[bool](sub, "enforceCapacity", &errs),
		}
	}
	if sub, ok := object(doc, "prices", &errs); ok {
		p.Prices = &PricesPatch{
			PreShowDrinks: field[float64](sub, "preShowDrinks", &errs),
			AfterParty:    field[float64](sub, "afterParty", &errs),
			Cap:           field[float64](sub, "cap", &errs),
		}
	}
	return p, errs
}

func field[T any](doc Document, key string, errs *[]error) *T {
	v, ok := doc[key]
	if !ok || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return nil
	}
	return &out
}

func object(doc Document, key string, errs *[]error) (Document, bool) {
	v, ok := doc[key]
	if !ok || v == nil {
		return nil, false
	}
	sub, ok := v.(map[string]any)
	if !ok {
		*errs = append(*errs, fmt.Errorf("%s: expected an object, got %T", key, v))
		return nil, false
	}
	return sub, true
}

// Apply returns base with every present field of p written over it.
// Arrays replace the default wholesale; nested objects merge per field.
func (p Patch) Apply(base model.AppConfig) model.AppConfig {
	out := base.Clone()
	if p.SchemaVersion != nil {
		out.SchemaVersion = *p.SchemaVersion
	}
	if p.ShowNames != nil {
		out.ShowNames = *p.ShowNames
	}
	if p.ShowTypes != nil {
		out.ShowTypes = *p.ShowTypes
	}
	if p.PromoCodes != nil {
		out.PromoCodes = *p.PromoCodes
	}
	if p.Vouchers != nil {
		out.Vouchers = *p.Vouchers
	}
	if p.Merchandise != nil {
		out.Merchandise = *p.Merchandise
	}
	if p.CapSlogans != nil {
		out.CapSlogans = *p.CapSlogans
	}
	if r := p.BookingRules; r != nil {
		setIf(&out.BookingRules.MinGuests, r.MinGuests)
		setIf(&out.BookingRules.MaxGuests, r.MaxGuests)
		setIf(&out.BookingRules.CutoffHours, r.CutoffHours)
		setIf(&out.BookingRules.EnforceCapacity, r.EnforceCapacity)
	}
	if pr := p.Prices; pr != nil {
		setIf(&out.Prices.PreShowDrinks, pr.PreShowDrinks)
		setIf(&out.Prices.AfterParty, pr.AfterParty)
		setIf(&out.Prices.Cap, pr.Cap)
	}
	return out
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Merge decodes doc and applies it onto defaults.
func Merge(defaults model.AppConfig, doc Document) (model.AppConfig, []error) {
	p, errs := DecodePatch(doc)
	return p.Apply(defaults), errs
}

// ToDocument converts a config back into its generic persisted form.
func ToDocument(cfg model.AppConfig) (Document, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
