package model

import "time"

// Equipment represents a rentable item in the catalogue.
type Equipment struct {
	ID             string    `json:"id" db:"id" validate:"required"`
	Name           string    `json:"name" db:"name" validate:"required"`
	Description    string    `json:"description" db:"description"`
	ImageURL       string    `json:"imageUrl" db:"image_url"`
	CategoryID     *string   `json:"categoryId,omitempty" db:"category_id"`
	LegacyCategory string    `json:"category,omitempty" db:"legacy_category"`
	TotalQty       int       `json:"totalQty" db:"total_qty" validate:"gte=0"`
	OrderIncrement int       `json:"orderIncrement" db:"order_increment" validate:"gte=0"`
	PricingTiers   Tiers     `json:"pricingTiers" db:"pricing_tiers"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// Stock returns the total stock floored at zero.
func (e Equipment) Stock() int {
	if e.TotalQty < 0 {
		return 0
	}
	return e.TotalQty
}

// Increment returns the order increment, zero meaning any quantity.
func (e Equipment) Increment() int {
	if e.OrderIncrement < 0 {
		return 0
	}
	return e.OrderIncrement
}

// Category groups equipment and gates the annual promotion.
type Category struct {
	ID             string `json:"id" db:"id" validate:"required"`
	Name           string `json:"name" db:"name" validate:"required"`
	AnnualEligible bool   `json:"annualEligible" db:"annual_eligible"`
	SortOrder      int    `json:"sortOrder" db:"sort_order"`
}

// EquipmentIndex maps equipment IDs to their records.
type EquipmentIndex map[string]Equipment

// IndexEquipment builds an EquipmentIndex from a list.
func IndexEquipment(items []Equipment) EquipmentIndex {
	index := make(EquipmentIndex, len(items))
	for _, item := range items {
		index[item.ID] = item
	}
	return index
}
