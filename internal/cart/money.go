package cart

import "github.com/shopspring/decimal"

// DiscountRate is the flat simulated discount applied to every cart.
var DiscountRate = decimal.RequireFromString("0.10")

// SavingsPercentage is DiscountRate expressed in percent.
const SavingsPercentage = 10

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(price.Mul(decimal.NewFromInt(int64(quantity))))
}

func Savings(total decimal.Decimal) decimal.Decimal {
	return Round2(total.Mul(DiscountRate))
}
