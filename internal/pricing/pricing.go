package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

const (
	// FeePercent is the platform's share of every settled subtotal.
	FeePercent = 2

	// BaseLaborRate is the hourly rate used for estimates and new invoices.
	BaseLaborRate = Cents(6500)

	minScore = 0
	maxScore = 100
)

var (
	feeRate     = decimal.New(FeePercent, -2)
	rateFloor   = decimal.NewFromInt(55)
	rateSlope   = decimal.New(3, -1)
	minutesHour = decimal.NewFromInt(60)
)

// LineItem is one part line on an invoice.
type LineItem struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
	Unit Cents  `json:"unit"`
}

// Invoice is the labor and parts breakdown of a job.
type Invoice struct {
	LaborRate    Cents           `json:"labor_rate_per_hour"`
	LaborHours   decimal.Decimal `json:"labor_hours"`
	InvoiceParts []LineItem      `json:"invoice_parts"`
	OtherParts   []LineItem      `json:"other_parts"`
	Notes        string          `json:"notes"`
	UpdatedAt    *time.Time      `json:"updated_at"`
}

// Totals is the settlement breakdown of an invoice.
type Totals struct {
	PartsTotal  Cents `json:"parts_total"`
	LaborTotal  Cents `json:"labor_total"`
	Subtotal    Cents `json:"subtotal"`
	PlatformFee Cents `json:"platform_fee"`
	ProPayout   Cents `json:"pro_payout"`
}

// NewInvoice returns the default invoice for a freshly created job.
func NewInvoice(serviceID string) Invoice {
	return Invoice{
		LaborRate:    BaseLaborRate,
		LaborHours:   decimal.Zero,
		InvoiceParts: DefaultParts(serviceID),
		OtherParts:   []LineItem{},
	}
}

// EstimateRange returns the low and high estimate of a service at the base
// labor rate.
func EstimateRange(s Service) (low, high Cents) {
	at := func(minutes int) Cents {
		hours := decimal.NewFromInt(int64(minutes)).Div(minutesHour)
		labor := FromDecimal(hours.Mul(BaseLaborRate.Decimal()))
		if labor < s.MinVisitFee {
			labor = s.MinVisitFee
		}
		return labor + s.PartsAllowance
	}
	return at(s.TypicalMinLow), at(s.TypicalMinHigh)
}

func sumParts(parts []LineItem) Cents {
	var total Cents
	for _, p := range parts {
		total += Cents(p.Qty) * p.Unit
	}
	return total
}

// ComputeTotals sums parts and labor and splits the subtotal into the
// platform fee and the pro's payout.
func ComputeTotals(inv Invoice) Totals {
	parts := sumParts(inv.InvoiceParts) + sumParts(inv.OtherParts)
	labor := FromDecimal(inv.LaborHours.Mul(inv.LaborRate.Decimal()))
	subtotal := parts + labor
	fee := FromDecimal(subtotal.Decimal().Mul(feeRate))
	return Totals{
		PartsTotal:  parts,
		LaborTotal:  labor,
		Subtotal:    subtotal,
		PlatformFee: fee,
		ProPayout:   subtotal - fee,
	}
}

// LaborRateFromScore maps a reputation score onto an hourly rate in whole
// dollars, 55 at score 0 up to 85 at score 100.
func LaborRateFromScore(score int) int {
	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}
	rate := rateFloor.Add(decimal.NewFromInt(int64(score)).Mul(rateSlope))
	return int(rate.Round(0).IntPart())
}

// LaborRateCents is LaborRateFromScore in minor units.
func LaborRateCents(score int) Cents {
	return Dollars(int64(LaborRateFromScore(score)))
}

// ValidateInvoice rejects negative quantities, prices, hours or rates and
// unnamed line items.
func ValidateInvoice(inv Invoice) error {
	if inv.LaborHours.IsNegative() {
		return apperr.Validation("labor hours must not be negative")
	}
	if inv.LaborRate < 0 {
		return apperr.Validation("labor rate must not be negative")
	}
	for _, list := range [][]LineItem{inv.InvoiceParts, inv.OtherParts} {
		for _, p := range list {
			if strings.TrimSpace(p.Name) == "" {
				return apperr.Validation("line item name is required")
			}
			if p.Qty < 0 {
				return apperr.Validation("quantity of %q must not be negative", p.Name)
			}
			if p.Unit < 0 {
				return apperr.Validation("unit price of %q must not be negative", p.Name)
			}
		}
	}
	return nil
}
