package pricing

import (
	"strings"

	"rental-storefront/internal/model"
)

// EligibilityRule names the rule that decided promotion eligibility.
type EligibilityRule string

const (
	RuleCategoryID     EligibilityRule = "category_id"
	RuleLegacyCategory EligibilityRule = "legacy_category"
	RuleNameHeuristic  EligibilityRule = "name_heuristic"
	RuleNone           EligibilityRule = "none"
)

const legacyPromoKeyword = "chair"

// Eligibility is the outcome of the annual promotion eligibility check.
type Eligibility struct {
	Eligible bool            `json:"eligible"`
	Rule     EligibilityRule `json:"rule"`
}

// PromotionEligibility decides whether item takes the annual promotional
// rate. Rules apply in order and the first that matches decides:
//  1. the item's category ID resolves to a category: its flag;
//  2. the legacy category string names a category: its flag;
//  3. the item name or legacy category contains "chair".
func PromotionEligibility(item model.Equipment, categories []model.Category) Eligibility {
	if item.CategoryID != nil && *item.CategoryID != "" {
		for _, c := range categories {
			if c.ID == *item.CategoryID {
				return Eligibility{Eligible: c.AnnualEligible, Rule: RuleCategoryID}
			}
		}
	}

	legacy := strings.TrimSpace(item.LegacyCategory)
	if legacy != "" {
		for _, c := range categories {
			if strings.EqualFold(strings.TrimSpace(c.Name), legacy) {
				return Eligibility{Eligible: c.AnnualEligible, Rule: RuleLegacyCategory}
			}
		}
	}

	if strings.Contains(strings.ToLower(item.Name), legacyPromoKeyword) ||
		strings.Contains(strings.ToLower(legacy), legacyPromoKeyword) {
		return Eligibility{Eligible: true, Rule: RuleNameHeuristic}
	}

	return Eligibility{Eligible: false, Rule: RuleNone}
}
