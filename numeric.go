package books

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a user-typed amount leniently: every character but
// digits, '.' and '-' is ignored ("$1,200.50" is 1200.50) and the longest
// numeric prefix of what remains is used. Anything unreadable is zero.
func ParseAmount(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	// longest prefix matching -?\d*(\.\d*)?
	end, dot := 0, false
	for i, r := range clean {
		switch {
		case r == '-' && i == 0:
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		default:
			goto done
		}
		end = i + 1
	}
done:
	prefix := strings.TrimSuffix(clean[:end], ".")
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// WeightedAverageCost returns Σ(quantity·unitCost)/Σquantity over the
// movements that add stock. ok is false when they add nothing.
func WeightedAverageCost(movements []StockMovement) (avg decimal.Decimal, ok bool) {
	var qty, value decimal.Decimal
	for _, m := range movements {
		if !m.Quantity.IsPositive() {
			continue
		}
		qty = qty.Add(m.Quantity)
		value = value.Add(m.Quantity.Mul(m.UnitCost))
	}
	if qty.IsZero() {
		return decimal.Zero, false
	}
	return value.DivRound(qty, 8), true
}

// sum adds f over xs.
func sum[T any](xs []T, f func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(f(x))
	}
	return total
}
