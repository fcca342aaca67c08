package books

import (
	"github.com/etnz/books/date"
	"github.com/etnz/books/ids"
	"github.com/shopspring/decimal"
)

// This file is the stock ledger: the movements of items and the figures
// derived from them.

// AvailableStock returns the quantity of an item on hand: the sum of its
// movements.
func (b *Books) AvailableStock(itemID string) decimal.Decimal {
	return totalQuantity(b.MovementsOf(itemID))
}

// availableStockExcluding is AvailableStock ignoring the movements of a record.
func (b *Books) availableStockExcluding(itemID, referenceID string) decimal.Decimal {
	total := decimal.Zero
	for _, m := range b.MovementsOf(itemID) {
		if referenceID != "" && m.ReferenceID == referenceID {
			continue
		}
		total = total.Add(m.Quantity)
	}
	return total
}

// recordMovement appends a movement. Purchases and openings update the item
// cost.
func (b *Books) recordMovement(itemID string, typ MovementType, quantity, unitCost decimal.Decimal, on date.Date, referenceID string) StockMovement {
	m := StockMovement{
		ID:          ids.New(),
		ItemID:      itemID,
		Type:        typ,
		Quantity:    quantity,
		UnitCost:    unitCost,
		Date:        on,
		ReferenceID: referenceID,
	}
	b.putMovement(m)
	if typ == MovementPurchase || typ == MovementOpening {
		b.recalculateCost(itemID)
	}
	return m
}

// recalculateCost sets the item cost to the weighted average cost of the
// movements that added stock. The cost is only replaced by a positive
// average that moved by more than a cent.
func (b *Books) recalculateCost(itemID string) {
	item, ok := b.items.get(itemID)
	if !ok {
		return
	}
	avg, ok := WeightedAverageCost(b.MovementsOf(itemID))
	if !ok {
		return
	}
	avg = Round2(avg)
	if !avg.IsPositive() || Within(avg, item.Cost, Tolerance) {
		return
	}
	item.Cost = avg
	b.putItem(item)
}

// removeMovementsFor deletes the movements owned by a record and returns
// them. The cost of items that lose a purchase or an opening is recomputed.
func (b *Books) removeMovementsFor(referenceID string) []StockMovement {
	var removed []StockMovement
	for _, m := range b.movements.all() {
		if m.ReferenceID == referenceID {
			removed = append(removed, m)
		}
	}
	for _, m := range removed {
		b.deleteMovement(m.ID)
	}
	for _, m := range removed {
		if m.Type == MovementPurchase || m.Type == MovementOpening {
			b.recalculateCost(m.ItemID)
		}
	}
	return removed
}

// openingMovement returns the opening movement of an item.
func (b *Books) openingMovement(itemID string) (StockMovement, bool) {
	var fallback *StockMovement
	for _, m := range b.MovementsOf(itemID) {
		if m.Type != MovementOpening {
			continue
		}
		if m.ReferenceID == itemID {
			return m, true
		}
		if fallback == nil {
			fallback = &m
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return StockMovement{}, false
}

// negativeStock returns the first item of itemIDs with a negative stock.
func (b *Books) negativeStock(itemIDs ...string) (Item, decimal.Decimal, bool) {
	for _, id := range itemIDs {
		if q := b.AvailableStock(id); q.IsNegative() {
			it, _ := b.items.get(id)
			return it, q, true
		}
	}
	return Item{}, decimal.Zero, false
}
