package utils

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// CheckinPayload is the text encoded in a reservation's check-in QR code.
func CheckinPayload(reservationID, date string) string {
	return fmt.Sprintf("dtb:checkin:%s:%s", date, reservationID)
}

// CheckinQR renders the check-in code for a reservation as a PNG.
func CheckinQR(reservationID, date string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(CheckinPayload(reservationID, date), qrcode.Medium, size)
}
