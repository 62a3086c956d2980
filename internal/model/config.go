package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CurrentSchemaVersion is the schema version written by this build.
// Persisted configs with a lower version are migrated on load.
const CurrentSchemaVersion = 2

// DiscountType selects how a promo code value is applied.
type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

// AppConfig is the tenant-wide configuration document.  It is stored as
// a single JSON blob; the json names are the persisted field names.
type AppConfig struct {
	SchemaVersion int            `json:"schemaVersion"`
	ShowNames     []string       `json:"showNames"`
	ShowTypes     []ShowType     `json:"showTypes"`
	PromoCodes    []DiscountCode `json:"promoCodes"`
	Vouchers      []Voucher      `json:"vouchers"`
	Merchandise   []MerchItem    `json:"merchandise"`
	CapSlogans    []CapSlogan    `json:"capSlogans"`
	BookingRules  BookingRules   `json:"bookingRules"`
	Prices        PriceConstants `json:"prices"`
}

// ShowType describes a category of show with its default capacity,
// per-guest prices (euros) and default times.
type ShowType struct {
	Name             string  `json:"name"`
	DefaultCapacity  int     `json:"defaultCapacity"`
	PriceStandard    float64 `json:"priceStandard"`
	PricePremium     float64 `json:"pricePremium"`
	DefaultStartTime string  `json:"defaultStartTime,omitempty"`
	DefaultEndTime   string  `json:"defaultEndTime,omitempty"`
}

// PriceFor returns the per-guest price for the given drink package.
func (t ShowType) PriceFor(p DrinkPackage) float64 {
	if p == PackagePremium {
		return t.PricePremium
	}
	return t.PriceStandard
}

// DiscountCode is a promo code.  Value is an amount in euros for fixed
// codes and a percentage for percentage codes.
type DiscountCode struct {
	Code        string       `json:"code"`
	Type        DiscountType `json:"type"`
	Value       float64      `json:"value"`
	IsActive    bool         `json:"isActive"`
	Description string       `json:"description,omitempty"`
}

// Voucher is a theater gift code worth a fixed amount in euros.
type Voucher struct {
	Code     string  `json:"code"`
	Value    float64 `json:"value"`
	IsActive bool    `json:"isActive"`
	IssuedTo string  `json:"issuedTo,omitempty"`
}

// MerchItem is a merchandise article that can be added to a booking.
type MerchItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"isActive"`
}

// CapSlogan is a printable cap label; every slogan is sold at Prices.Cap.
type CapSlogan struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// BookingRules constrain what the booking form accepts.
type BookingRules struct {
	MinGuests   int `json:"minGuests"`
	MaxGuests   int `json:"maxGuests"`
	CutoffHours int `json:"cutoffHours"`
	// EnforceCapacity rejects bookings that would overbook a show.
	EnforceCapacity bool `json:"enforceCapacity"`
}

// PriceConstants holds the flat addon prices in euros.
type PriceConstants struct {
	PreShowDrinks float64 `json:"preShowDrinks"`
	AfterParty    float64 `json:"afterParty"`
	Cap           float64 `json:"cap"`
}

// Addon ids priced from PriceConstants.
const (
	AddonPreShowDrinks = "preShowDrinks"
	AddonAfterParty    = "afterParty"
)

// FindShowType returns the show type with the given name.
func (c AppConfig) FindShowType(name string) (ShowType, bool) {
	for _, t := range c.ShowTypes {
		if t.Name == name {
			return t, true
		}
	}
	return ShowType{}, false
}

// Validate checks the invariants an admin edit must keep.
func (c AppConfig) Validate() error {
	seen := make(map[string]bool, len(c.ShowTypes))
	for _, t := range c.ShowTypes {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return errors.New("show type name is required")
		}
		if seen[name] {
			return fmt.Errorf("duplicate show type %q", name)
		}
		seen[name] = true
		if t.PriceStandard < 0 || t.PricePremium < 0 {
			return fmt.Errorf("show type %q has a negative price", name)
		}
		if t.DefaultCapacity < 0 {
			return fmt.Errorf("show type %q has a negative capacity", name)
		}
	}
	for _, p := range c.PromoCodes {
		if strings.TrimSpace(p.Code) == "" {
			return errors.New("promo code is required")
		}
		if p.Type != DiscountFixed && p.Type != DiscountPercentage {
			return fmt.Errorf("promo code %q has unknown type %q", p.Code, p.Type)
		}
		if p.Value < 0 {
			return fmt.Errorf("promo code %q has a negative value", p.Code)
		}
	}
	for _, v := range c.Vouchers {
		if strings.TrimSpace(v.Code) == "" {
			return errors.New("voucher code is required")
		}
	}
	r := c.BookingRules
	if r.MinGuests < 0 || r.MaxGuests < 0 || r.CutoffHours < 0 {
		return errors.New("booking rules cannot be negative")
	}
	if r.MaxGuests > 0 && r.MinGuests > r.MaxGuests {
		return errors.New("minimum guests exceeds maximum guests")
	}
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c AppConfig) Clone() AppConfig {
	out := c
	out.ShowNames = slices.Clone(c.ShowNames)
	out.ShowTypes = slices.Clone(c.ShowTypes)
	out.PromoCodes = slices.Clone(c.PromoCodes)
	out.Vouchers = slices.Clone(c.Vouchers)
	out.Merchandise = slices.Clone(c.Merchandise)
	out.CapSlogans = slices.Clone(c.CapSlogans)
	return out
}

// DefaultConfig returns the configuration used when nothing has been
// persisted yet and as the base every persisted config is merged onto.
func DefaultConfig() AppConfig {
	return AppConfig{
		SchemaVersion: CurrentSchemaVersion,
		ShowNames:     []string{"Het Grote Diner Spektakel", "Kerst Gala"},
		ShowTypes: []ShowType{
			{Name: "Doordeweekse Show", DefaultCapacity: 240, PriceStandard: 70, PricePremium: 85, DefaultStartTime: "19:30", DefaultEndTime: "22:30"},
			{Name: "Weekend Show", DefaultCapacity: 240, PriceStandard: 80, PricePremium: 95, DefaultStartTime: "19:30", DefaultEndTime: "23:00"},
			{Name: "Zorgzame Helden Show", DefaultCapacity: 240, PriceStandard: 65, PricePremium: 80, DefaultStartTime: "18:30", DefaultEndTime: "21:30"},
		},
		PromoCodes: []DiscountCode{
			{Code: "GROEP20", Type: DiscountFixed, Value: 50, IsActive: true, Description: "Groepskorting"},
		},
		Vouchers: []Voucher{},
		Merchandise: []MerchItem{
			{ID: "programme", Name: "Programmaboekje", Price: 7.5, IsActive: true},
		},
		CapSlogans: []CapSlogan{},
		BookingRules: BookingRules{
			MinGuests:   1,
			MaxGuests:   12,
			CutoffHours: 24,
		},
		Prices: PriceConstants{
			PreShowDrinks: 15,
			AfterParty:    15,
			Cap:           20,
		},
	}
}
