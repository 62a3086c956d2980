// Package pricing computes reservation totals from the configured show
// type prices, addon prices and discount codes.  Amounts are returned in
// cents; configured prices are euros.
package pricing

import (
	"errors"
	"math"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// ErrInvalidCode is reported when an applied code is unknown or inactive.
var ErrInvalidCode = errors.New("discount code is invalid or no longer active")

// Draft is the part of a reservation that determines its price.
type Draft struct {
	Guests   int
	Package  model.DrinkPackage
	ShowType string
	Addons   map[string]int
}

// CodeKind tells which collection matched the applied code.
type CodeKind string

const (
	CodeNone    CodeKind = ""
	CodePromo   CodeKind = "promo"
	CodeVoucher CodeKind = "voucher"
)

// Quote is the outcome of Compute.  CodeErr is set when a code was
// supplied but did not apply; the quote is still valid without discount.
type Quote struct {
	Subtotal int64    `json:"subtotal"`
	Discount int64    `json:"discount"`
	Total    int64    `json:"total"`
	CodeKind CodeKind `json:"codeKind,omitempty"`
	CodeErr  error    `json:"-"`
}

// Compute prices a draft.  Subtotal is guests times the per-guest price
// of the drink package plus addons.  A matching active promo code or
// voucher gives a discount capped at the subtotal; the total never goes
// below zero.  Codes match case-sensitively.
func Compute(d Draft, cfg model.AppConfig, code string) Quote {
	q := Quote{Subtotal: Subtotal(d, cfg)}
	if code != "" {
		discount, kind, err := Discount(q.Subtotal, cfg, code)
		q.Discount, q.CodeKind, q.CodeErr = discount, kind, err
	}
	q.Total = q.Subtotal - q.Discount
	if q.Total < 0 {
		q.Total = 0
	}
	return q
}

// Subtotal returns the undiscounted price of a draft in cents.
// Unknown show types price guests at zero; unknown addons are ignored.
// The result saturates at math.MaxInt64 instead of wrapping.
func Subtotal(d Draft, cfg model.AppConfig) int64 {
	var total int64
	if d.Guests > 0 {
		if st, ok := cfg.FindShowType(d.ShowType); ok {
			total = addCents(total, mulCents(int64(d.Guests), cents(st.PriceFor(d.Package))))
		}
	}
	for id, qty := range d.Addons {
		if qty <= 0 {
			continue
		}
		if unit, ok := AddonPrice(cfg, id); ok {
			total = addCents(total, mulCents(int64(qty), unit))
		}
	}
	return total
}

func mulCents(n, unit int64) int64 {
	if n <= 0 || unit <= 0 {
		return 0
	}
	if n > math.MaxInt64/unit {
		return math.MaxInt64
	}
	return n * unit
}

func addCents(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// AddonPrice resolves the unit price in cents of an addon id: the flat
// pre-show drinks and after-party prices, any cap slogan, or an active
// merchandise item.
func AddonPrice(cfg model.AppConfig, id string) (int64, bool) {
	switch id {
	case model.AddonPreShowDrinks:
		return cents(cfg.Prices.PreShowDrinks), true
	case model.AddonAfterParty:
		return cents(cfg.Prices.AfterParty), true
	}
	for _, s := range cfg.CapSlogans {
		if s.ID == id {
			return cents(cfg.Prices.Cap), true
		}
	}
	for _, m := range cfg.Merchandise {
		if m.ID == id && m.IsActive {
			return cents(m.Price), true
		}
	}
	return 0, false
}

// Discount resolves code against the promo codes, then the vouchers, and
// returns the discount for subtotal.  The discount never exceeds the
// subtotal and is never negative.
func Discount(subtotal int64, cfg model.AppConfig, code string) (int64, CodeKind, error) {
	var (
		amount int64
		kind   CodeKind
		found  bool
	)
	for _, p := range cfg.PromoCodes {
		if p.Code != code || !p.IsActive {
			continue
		}
		switch p.Type {
		case model.DiscountPercentage:
			if f := math.Round(float64(subtotal) * p.Value / 100); f >= float64(subtotal) {
				amount = subtotal
			} else {
				amount = int64(f)
			}
		default:
			amount = cents(p.Value)
		}
		kind, found = CodePromo, true
		break
	}
	if !found {
		for _, v := range cfg.Vouchers {
			if v.Code == code && v.IsActive {
				amount, kind, found = cents(v.Value), CodeVoucher, true
				break
			}
		}
	}
	if !found {
		return 0, CodeNone, ErrInvalidCode
	}
	if amount > subtotal {
		amount = subtotal
	}
	if amount < 0 {
		amount = 0
	}
	return amount, kind, nil
}

func cents(euros float64) int64 {
	return int64(math.Round(euros * 100))
}
