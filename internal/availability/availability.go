// Package availability computes remaining stock per date from the booking
// ledger. A date is unavailable for a cart when any requested quantity
// exceeds what remains on that date.
package availability

import (
	"rental-storefront/internal/model"
)

// Level is the stock badge shown for an item on a date.
type Level string

const (
	LevelOut Level = "out"
	LevelLow Level = "low"
	LevelIn  Level = "in"
)

// LevelFor classifies remaining stock against the low-stock threshold.
func LevelFor(remaining, threshold int) Level {
	switch {
	case remaining <= 0:
		return LevelOut
	case remaining <= threshold:
		return LevelLow
	default:
		return LevelIn
	}
}

// ItemStock is one item's stock position on a date.
type ItemStock struct {
	ItemID    string `json:"itemId"`
	Total     int    `json:"total"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
}

// Shortage is a requested quantity the date cannot cover.
type Shortage struct {
	ItemID    string `json:"itemId"`
	Requested int    `json:"requested"`
	Remaining int    `json:"remaining"`
}

// Result is the availability of a cart on one date.
type Result struct {
	Date      string      `json:"date"`
	Available bool        `json:"available"`
	Items     []ItemStock `json:"items"`
	Shortages []Shortage  `json:"shortages,omitempty"`
	Missing   []string    `json:"missing,omitempty"`
}

// BookedOn sums booked quantity per item across the records dated date.
func BookedOn(date string, bookings []model.Booking) map[string]int {
	booked := make(map[string]int)
	for _, b := range bookings {
		if b.Date != date {
			continue
		}
		for itemID, qty := range b.Items {
			if qty > 0 {
				booked[itemID] += qty
			}
		}
	}
	return booked
}

// Remaining reports the stock position of each known item in itemIDs on
// date. Unknown IDs are left out.
func Remaining(date string, itemIDs []string, items model.EquipmentIndex, bookings []model.Booking) []ItemStock {
	booked := BookedOn(date, bookings)

	out := make([]ItemStock, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, ok := items[id]
		if !ok {
			continue
		}
		out = append(out, stockOf(item, booked[id]))
	}
	return out
}

func stockOf(item model.Equipment, booked int) ItemStock {
	total := item.Stock()
	remaining := total - booked
	if remaining < 0 {
		remaining = 0
	}
	return ItemStock{ItemID: item.ID, Total: total, Booked: booked, Remaining: remaining}
}

// Check tests whether lines can be served on date. Lines for unknown items
// are reported in Missing and do not block the date.
func Check(date string, lines model.Cart, items model.EquipmentIndex, bookings []model.Booking) Result {
	booked := BookedOn(date, bookings)
	requested := lines.Compact()

	res := Result{
		Date:      date,
		Available: true,
		Items:     make([]ItemStock, 0, len(requested)),
	}
	for _, line := range requested {
		item, ok := items[line.ItemID]
		if !ok {
			res.Missing = append(res.Missing, line.ItemID)
			continue
		}

		stock := stockOf(item, booked[line.ItemID])
		res.Items = append(res.Items, stock)
		if line.Qty > stock.Remaining {
			res.Available = false
			res.Shortages = append(res.Shortages, Shortage{
				ItemID:    line.ItemID,
				Requested: line.Qty,
				Remaining: stock.Remaining,
			})
		}
	}
	return res
}

// UnavailableDates returns, in input order, the dates on which lines cannot
// be served.
func UnavailableDates(dates []string, lines model.Cart, items model.EquipmentIndex, bookings []model.Booking) []string {
	out := make([]string, 0)
	for _, date := range dates {
		if !Check(date, lines, items, bookings).Available {
			out = append(out, date)
		}
	}
	return out
}
