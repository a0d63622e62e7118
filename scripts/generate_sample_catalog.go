//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"rental-storefront/internal/catalog"
	"rental-storefront/internal/model"

	"github.com/shopspring/decimal"
)

// generateSampleCatalog writes a starter catalog snapshot for mock mode.
// Chairs sit in an annual-eligible category with a four-step price
// schedule; tables, linens and tents use flat or two-step pricing.
func main() {
	path := "data/catalog.json.gz"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	snap := sampleSnapshot()

	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()

	if err := catalog.Encode(file, snap); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}

	fmt.Printf("Created %s with %d items, %d categories and %d coupons\n",
		path, len(snap.Equipment), len(snap.Categories), len(snap.Coupons))
}

func sampleSnapshot() *catalog.Snapshot {
	category := func(id string) *string { return &id }
	tier := func(minQty int, price string) model.Tier {
		return model.Tier{MinQty: minQty, PriceEach: decimal.RequireFromString(price)}
	}

	return &catalog.Snapshot{
		Categories: []model.Category{
			{ID: "seating", Name: "Seating", AnnualEligible: true},
			{ID: "tables", Name: "Tables", SortOrder: 1},
			{ID: "linens", Name: "Linens", SortOrder: 2},
			{ID: "tents", Name: "Tents", SortOrder: 3},
		},
		Equipment: []model.Equipment{
			{
				ID: "white-folding-chair", Name: "White Folding Chair", CategoryID: category("seating"),
				Description: "Resin folding chair with padded seat",
				TotalQty:    500, OrderIncrement: 10,
				PricingTiers: model.NewTiers(tier(10, "1.90"), tier(20, "1.80"), tier(50, "1.50"), tier(100, "1.00")),
			},
			{
				ID: "chiavari-chair", Name: "Gold Chiavari Chair", CategoryID: category("seating"),
				TotalQty: 200, OrderIncrement: 10,
				PricingTiers: model.NewTiers(tier(10, "6.50"), tier(50, "5.75"), tier(100, "5.00")),
			},
			{
				ID: "banquet-table-6ft", Name: "6ft Banquet Table", CategoryID: category("tables"),
				TotalQty:     40,
				PricingTiers: model.NewTiers(tier(1, "12.00"), tier(10, "10.00")),
			},
			{
				ID: "round-table-60in", Name: "60in Round Table", CategoryID: category("tables"),
				TotalQty:     25,
				PricingTiers: model.NewTiers(tier(1, "14.00")),
			},
			{
				ID: "white-tablecloth", Name: "White Tablecloth", CategoryID: category("linens"),
				TotalQty:     120,
				PricingTiers: model.NewTiers(tier(1, "8.00"), tier(20, "6.50")),
			},
			{
				ID: "frame-tent-20x20", Name: "20x20 Frame Tent", CategoryID: category("tents"),
				TotalQty:     4,
				PricingTiers: model.NewTiers(tier(1, "325.00")),
			},
		},
		Coupons: []model.Coupon{
			{Code: "WELCOME10", Type: model.DiscountPercent, Amount: decimal.NewFromInt(10), Enabled: true},
			{Code: "PARTY25", Type: model.DiscountAmount, Amount: decimal.NewFromInt(25), Enabled: true},
			{Code: "SUMMER2024", Type: model.DiscountPercent, Amount: decimal.NewFromInt(15), Enabled: false},
		},
		Settings: &model.Settings{
			SameDayFee:        decimal.NewFromInt(25),
			AnnualPromoRate:   decimal.RequireFromString("0.75"),
			AnnualDateCount:   5,
			LowStockThreshold: 5,
		},
	}
}
