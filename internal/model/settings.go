package model

import "github.com/shopspring/decimal"

// Settings holds store-wide pricing parameters.
type Settings struct {
	SameDayFee        decimal.Decimal `json:"sameDayFee" db:"same_day_fee"`
	AnnualPromoRate   decimal.Decimal `json:"annualPromoRate" db:"annual_promo_rate"`
	AnnualDateCount   int             `json:"annualDateCount" db:"annual_date_count"`
	LowStockThreshold int             `json:"lowStockThreshold" db:"low_stock_threshold"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		SameDayFee:        decimal.Zero,
		AnnualPromoRate:   decimal.RequireFromString("0.75"),
		AnnualDateCount:   5,
		LowStockThreshold: 5,
	}
}

// WithDefaults fills unset fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.SameDayFee.IsNegative() {
		s.SameDayFee = d.SameDayFee
	}
	if !s.AnnualPromoRate.IsPositive() {
		s.AnnualPromoRate = d.AnnualPromoRate
	}
	if s.AnnualDateCount <= 0 {
		s.AnnualDateCount = d.AnnualDateCount
	}
	if s.LowStockThreshold < 0 {
		s.LowStockThreshold = d.LowStockThreshold
	}
	return s
}
