package entity

import (
	"github.com/shopspring/decimal"
)

// CentPlaces is the number of fractional digits every monetary amount carries.
const CentPlaces = 2

// MaxAmount is the largest value a numeric(12,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// SplitPayment divides price into the platform commission and the seller amount.
// The commission is rounded half away from zero to cents and the seller receives the rest,
// so commission + sellerAmount == price exactly.
func SplitPayment(price, commissionRate decimal.Decimal) (commission, sellerAmount decimal.Decimal) {
	commission = price.Mul(commissionRate).Round(CentPlaces)
	sellerAmount = price.Sub(commission)

	return commission, sellerAmount
}

// IsCentAmount reports whether d has no more than two fractional digits.
func IsCentAmount(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(CentPlaces))
}

// IsStorableAmount reports whether d is a cent amount whose magnitude fits a money column.
func IsStorableAmount(d decimal.Decimal) bool {
	return IsCentAmount(d) && d.Abs().LessThanOrEqual(MaxAmount)
}

// AverageRating returns sum/count rounded half away from zero to one decimal place, or 0 for no ratings.
func AverageRating(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}

	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(1).InexactFloat64()
}
