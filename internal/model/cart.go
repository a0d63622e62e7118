package model

// CartLine is one requested item. Lines with zero quantity are never stored.
type CartLine struct {
	ItemID string `json:"id" validate:"required"`
	Qty    int    `json:"qty" validate:"gte=0"`
}

// Cart is the ordered list of requested items for one session.
type Cart []CartLine

// Set replaces the quantity for itemID, removing the line when qty <= 0.
func (c Cart) Set(itemID string, qty int) Cart {
	out := make(Cart, 0, len(c)+1)
	replaced := false
	for _, line := range c {
		if line.ItemID != itemID {
			out = append(out, line)
			continue
		}
		if !replaced && qty > 0 {
			out = append(out, CartLine{ItemID: itemID, Qty: qty})
		}
		replaced = true
	}
	if !replaced && qty > 0 {
		out = append(out, CartLine{ItemID: itemID, Qty: qty})
	}
	return out
}

// Compact merges duplicate item lines and drops non-positive quantities.
func (c Cart) Compact() Cart {
	totals := make(map[string]int, len(c))
	order := make([]string, 0, len(c))
	for _, line := range c {
		if _, seen := totals[line.ItemID]; !seen {
			order = append(order, line.ItemID)
		}
		totals[line.ItemID] += line.Qty
	}

	out := make(Cart, 0, len(order))
	for _, id := range order {
		if totals[id] > 0 {
			out = append(out, CartLine{ItemID: id, Qty: totals[id]})
		}
	}
	return out
}

// ItemIDs returns the distinct item IDs in cart order.
func (c Cart) ItemIDs() []string {
	ids := make([]string, 0, len(c))
	seen := make(map[string]struct{}, len(c))
	for _, line := range c {
		if _, ok := seen[line.ItemID]; ok {
			continue
		}
		seen[line.ItemID] = struct{}{}
		ids = append(ids, line.ItemID)
	}
	return ids
}

// TimeSlot is the delivery and pickup time for one date, as "HH:MM".
type TimeSlot struct {
	Delivery string `json:"delivery"`
	Pickup   string `json:"pickup"`
}

// Complete reports whether both times are set.
func (t TimeSlot) Complete() bool {
	return t.Delivery != "" && t.Pickup != ""
}

// Checkout is the in-progress checkout state for one session.
type Checkout struct {
	Annual     bool                `json:"annual"`
	Date       string              `json:"date,omitempty"`
	Dates      []string            `json:"dates,omitempty"`
	Times      map[string]TimeSlot `json:"times,omitempty"`
	Address    string              `json:"address,omitempty"`
	CouponCode string              `json:"couponCode,omitempty"`
	Guest      bool                `json:"guest,omitempty"`
}

// SelectedDates returns the dates the checkout books, in order.
func (c Checkout) SelectedDates() []string {
	if c.Annual {
		out := make([]string, 0, len(c.Dates))
		for _, d := range c.Dates {
			if d != "" {
				out = append(out, d)
			}
		}
		return out
	}
	if c.Date == "" {
		return nil
	}
	return []string{c.Date}
}

// Slot returns the time pair for date.
func (c Checkout) Slot(date string) TimeSlot {
	if c.Times == nil {
		return TimeSlot{}
	}
	return c.Times[date]
}
