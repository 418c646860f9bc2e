package vault

import (
	"strings"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

type Brand string

const (
	BrandVisa       Brand = "Visa"
	BrandMastercard Brand = "Mastercard"
	BrandAmex       Brand = "Amex"
	BrandDiscover   Brand = "Discover"
	BrandCard       Brand = "Card"
)

const maxExpiryYears = 16

// DigitsOnly strips spaces and dashes from a card number.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Luhn reports whether a 12 to 19 digit number passes the Luhn checksum.
func Luhn(number string) bool {
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// BrandOf infers the card brand from its leading digits.
func BrandOf(number string) Brand {
	switch {
	case strings.HasPrefix(number, "4"):
		return BrandVisa
	case len(number) >= 2 && number[0] == '5' && number[1] >= '1' && number[1] <= '5':
		return BrandMastercard
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return BrandAmex
	case strings.HasPrefix(number, "6"):
		return BrandDiscover
	}
	return BrandCard
}

// CardInput is what the customer types in. It is never persisted.
type CardInput struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	Label    string `json:"label"`
}

// ValidateCard checks the card's format and returns the storable part of it.
func ValidateCard(in CardInput, now time.Time) (Method, error) {
	number := DigitsOnly(in.Number)
	if !Luhn(number) {
		return Method{}, apperr.Validation("card number is not valid")
	}
	if in.ExpMonth < 1 || in.ExpMonth > 12 {
		return Method{}, apperr.Validation("expiry month must be 1-12")
	}
	year := in.ExpYear
	if year < 100 {
		year += 2000
	}
	if year < now.Year() || year > now.Year()+maxExpiryYears {
		return Method{}, apperr.Validation("expiry year is out of range")
	}
	if year == now.Year() && in.ExpMonth < int(now.Month()) {
		return Method{}, apperr.Validation("card has expired")
	}
	return Method{
		Brand:    BrandOf(number),
		Last4:    number[len(number)-4:],
		ExpMonth: in.ExpMonth,
		ExpYear:  year,
		Label:    strings.TrimSpace(in.Label),
	}, nil
}
