package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Split divides an order total between organizer and stall. The organizer
// share is total × rate rounded half-up to the nearest cent; the stall share
// is derived by subtraction, never rounded independently, so the two shares
// always sum to the total exactly.
func Split(totalCents int64, rate decimal.Decimal) (organizerCents, stallCents int64, err error) {
	if totalCents <= 0 {
		return 0, 0, fmt.Errorf("total must be positive, got %d", totalCents)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return 0, 0, fmt.Errorf("commission rate must be in [0,1], got %s", rate)
	}

	organizerCents = decimal.NewFromInt(totalCents).Mul(rate).Round(0).IntPart()
	stallCents = totalCents - organizerCents
	return organizerCents, stallCents, nil
}
