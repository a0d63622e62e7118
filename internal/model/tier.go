package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is a quantity breakpoint in an item's price schedule.
type Tier struct {
	MinQty    int             `json:"minQty"`
	PriceEach decimal.Decimal `json:"priceEach"`
}

// Tiers is the canonical price schedule: ascending by MinQty, unique MinQty,
// every price positive. Build it with ParseTiers or NewTiers.
type Tiers []Tier

// NewTiers returns the canonical form of the given tiers.
func NewTiers(tiers ...Tier) Tiers {
	return canonicalTiers(tiers)
}

// ParseTiers normalises a stored price schedule. It accepts a JSON array of
// {minQty, priceEach} (price is accepted for priceEach), a JSON string that
// holds such an array, an object {"tiers": [...]}, or a plain map of
// quantity to price. Malformed input yields an empty schedule, never an error.
func ParseTiers(raw []byte) Tiers {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Tiers{}
	}

	switch raw[0] {
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Tiers{}
		}
		return ParseTiers([]byte(inner))
	case '[':
		var rows []rawTier
		if err := json.Unmarshal(raw, &rows); err != nil {
			return Tiers{}
		}
		return tiersFromRows(rows)
	case '{':
		var wrapped struct {
			Tiers []rawTier `json:"tiers"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Tiers != nil {
			return tiersFromRows(wrapped.Tiers)
		}

		var byQty map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byQty); err != nil {
			return Tiers{}
		}
		keys := make([]string, 0, len(byQty))
		for k := range byQty {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rows := make([]rawTier, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, rawTier{MinQty: json.RawMessage(strconv.Quote(k)), PriceEach: byQty[k]})
		}
		return tiersFromRows(rows)
	}

	return Tiers{}
}

// UnmarshalJSON normalises any accepted schedule representation.
func (t *Tiers) UnmarshalJSON(data []byte) error {
	*t = ParseTiers(data)
	return nil
}

// MarshalJSON always writes the canonical array form.
func (t Tiers) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Tier(t))
}

type rawTier struct {
	MinQty    json.RawMessage `json:"minQty"`
	PriceEach json.RawMessage `json:"priceEach"`
	Price     json.RawMessage `json:"price"`
}

func tiersFromRows(rows []rawTier) Tiers {
	tiers := make([]Tier, 0, len(rows))
	for _, row := range rows {
		minQty, ok := coerceNumber(row.MinQty, true)
		if !ok || minQty.IsNegative() || !minQty.IsInteger() {
			continue
		}

		priceRaw := row.PriceEach
		if len(priceRaw) == 0 || string(priceRaw) == "null" {
			priceRaw = row.Price
		}
		price, ok := coerceNumber(priceRaw, false)
		if !ok || !price.IsPositive() {
			continue
		}

		tiers = append(tiers, Tier{MinQty: int(minQty.IntPart()), PriceEach: price})
	}
	return canonicalTiers(tiers)
}

// coerceNumber reads a JSON number or numeric string. A missing value is
// zero when zeroIfMissing is set.
func coerceNumber(raw json.RawMessage, zeroIfMissing bool) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, zeroIfMissing
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, false
		}
		text = strings.TrimSpace(text)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func canonicalTiers(in []Tier) Tiers {
	valid := make([]Tier, 0, len(in))
	for _, t := range in {
		if t.MinQty < 0 || !t.PriceEach.IsPositive() {
			continue
		}
		valid = append(valid, t)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].MinQty < valid[j].MinQty
	})

	out := make(Tiers, 0, len(valid))
	for _, t := range valid {
		if n := len(out); n > 0 && out[n-1].MinQty == t.MinQty {
			continue
		}
		out = append(out, t)
	}
	return out
}
