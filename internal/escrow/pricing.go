package escrow

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
)

// Quote is the full money breakdown of a request, fixed at creation time.
// All values are minor units. The split never loses a paisa:
// HelperFeeMinor + PlatformShareMinor == ServiceChargeMinor.
type Quote struct {
	BaseAmountMinor    int64
	ServiceChargeMinor int64
	TipMinor           int64
	TotalAmountMinor   int64
	HelperFeeMinor     int64
	PlatformShareMinor int64
}

// HelperPayoutMinor is the amount credited to the helper on completion.
func (q Quote) HelperPayoutMinor() int64 {
	return q.BaseAmountMinor + q.TipMinor + q.HelperFeeMinor
}

// AppreciationMinor is the payout on top of the base: tip plus fee share.
func (q Quote) AppreciationMinor() int64 {
	return q.TipMinor + q.HelperFeeMinor
}

// Pricer derives escrow quotes from item lines using configured rates.
type Pricer struct {
	feeRate     decimal.Decimal
	helperShare decimal.Decimal
}

// NewPricer builds a Pricer from validated decimal rates.
func NewPricer(feeRate, helperShare decimal.Decimal) Pricer {
	return Pricer{feeRate: feeRate, helperShare: helperShare}
}

// minorUnitExponent is the number of decimal places between the minor
// unit and the whole currency unit (paise per rupee).
const minorUnitExponent = 2

// QuoteItems prices a request. The service charge is quoted in whole
// currency units, rounding up so the platform never undercharges; the
// helper share rounds down and the platform keeps the remainder so the
// split stays exact.
func (p Pricer) QuoteItems(items []models.RequestItem, tipMinor int64) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, apperrors.New(apperrors.CodeValidation, "at least one item is required")
	}
	if tipMinor < 0 {
		return Quote{}, apperrors.New(apperrors.CodeValidation, "tip must not be negative")
	}

	var base int64
	for _, item := range items {
		if item.Quantity <= 0 {
			return Quote{}, apperrors.New(apperrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPriceMinor < 0 {
			return Quote{}, apperrors.New(apperrors.CodeValidation, "item unit price must not be negative")
		}
		base += int64(item.Quantity) * item.UnitPriceMinor
	}

	charge := decimal.NewFromInt(base).Mul(p.feeRate).
		Shift(-minorUnitExponent).Ceil().Shift(minorUnitExponent).
		IntPart()
	helperFee := decimal.NewFromInt(charge).Mul(p.helperShare).Floor().IntPart()

	return Quote{
		BaseAmountMinor:    base,
		ServiceChargeMinor: charge,
		TipMinor:           tipMinor,
		TotalAmountMinor:   base + charge + tipMinor,
		HelperFeeMinor:     helperFee,
		PlatformShareMinor: charge - helperFee,
	}, nil
}

// QuoteStored rebuilds the split for a persisted request so settlement uses
// the amounts locked at creation, not today's configured rates for the fee
// split alone.
func (p Pricer) QuoteStored(request *models.DeliveryRequest) Quote {
	helperFee := decimal.NewFromInt(request.ServiceChargeMinor).Mul(p.helperShare).Floor().IntPart()
	return Quote{
		BaseAmountMinor:    request.BaseAmountMinor,
		ServiceChargeMinor: request.ServiceChargeMinor,
		TipMinor:           request.TipMinor,
		TotalAmountMinor:   request.TotalAmountMinor,
		HelperFeeMinor:     helperFee,
		PlatformShareMinor: request.ServiceChargeMinor - helperFee,
	}
}
