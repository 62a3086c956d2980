package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// DrinkPackage is the per-guest tier of a reservation.
type DrinkPackage string

const (
	PackageStandard DrinkPackage = "standard"
	PackagePremium  DrinkPackage = "premium"
)

// Valid reports whether p is a known package.
func (p DrinkPackage) Valid() bool {
	return p == PackageStandard || p == PackagePremium
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusRejected  ReservationStatus = "rejected"
)

// Reservation records a booking against the show on Date.  Only
// confirmed reservations count towards occupied capacity.
//
// Fields:
//  ID           – generated document identifier.
//  Date         – date of the booked show (YYYY-MM-DD).
//  Name/Email/Phone – contact details of the booker.
//  Guests       – number of guests (> 0).
//  Package      – drink package (standard or premium).
//  Status       – pending, confirmed, cancelled or rejected.
//  CheckedIn    – set at the door.
//  TotalPrice   – total price in cents after discounts.
//  Addons       – addon id -> quantity.
//  DiscountCode – promo or voucher code applied at booking time.
type Reservation struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone,omitempty"`
	Guests       int               `json:"guests"`
	Package      DrinkPackage      `json:"package"`
	Status       ReservationStatus `json:"status"`
	CheckedIn    bool              `json:"checkedIn"`
	TotalPrice   int64             `json:"totalPrice"`
	Addons       map[string]int    `json:"addons,omitempty"`
	DiscountCode string            `json:"discountCode,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// IsConfirmed reports whether the reservation occupies seats.
func (r Reservation) IsConfirmed() bool { return r.Status == StatusConfirmed }

// Validate checks the fields supplied by the booking form.
func (r *Reservation) Validate() error {
	if _, err := ParseDate(r.Date); err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return errors.New("email is invalid")
		}
	}
	if r.Guests <= 0 {
		return errors.New("guests must be greater than 0")
	}
	if !r.Package.Valid() {
		return errors.New("package must be standard or premium")
	}
	return ValidateAddons(r.Addons)
}

// MaxAddonQty caps the quantity of a single addon on one booking.
const MaxAddonQty = 100

// ValidateAddons rejects negative quantities and quantities above
// MaxAddonQty.
func ValidateAddons(addons map[string]int) error {
	for id, qty := range addons {
		if qty < 0 {
			return errors.New("addon " + id + " has a negative quantity")
		}
		if qty > MaxAddonQty {
			return fmt.Errorf("addon %s exceeds the maximum of %d", id, MaxAddonQty)
		}
	}
	return nil
}

// CanTransition reports whether a reservation may move from one status
// to another.  Pending reservations are confirmed or rejected by staff;
// pending and confirmed ones may be cancelled.
func CanTransition(from, to ReservationStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusRejected || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	}
	return false
}

// ParseReservationStatus normalises user input into a status.
func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch st := ReservationStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRejected:
		return st, true
	}
	return "", false
}
