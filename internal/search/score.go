package search

import (
	"strings"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

// Score tiers. The ad-nominatum gate sits outside the matrix: a dienst
// restricted to named verenigingen is a legal exclusivity, so it either
// tops the ranking or drops out entirely.
const (
	ScoreExactMatch      = 100.0
	ScoreExcluded        = 0.0
	ScoreRegionFormTheme = 90.0
	ScoreRegionForm      = 80.0
	ScorePairWithTheme   = 70.0
	ScoreRegionOrForm    = 60.0
	ScoreThemeOnly       = 20.0
	ScoreNoMatch         = 10.0
)

// ScoreEligibility ranks a dienst's conditions against an association
// profile. It is a pure function: no I/O, no mutation of either argument,
// identical inputs always yield the identical score.
//
// Evaluation order:
//  1. If the dienst carries vereniging (ad nominatum) conditions, the score
//     is 100 when one of the profile's names is listed and 0 otherwise.
//     Region, form and theme fit never rescue an unlisted vereniging.
//  2. Otherwise the three dimension predicates are combined through the tier
//     matrix. A dienst without any condition of a kind does NOT match that
//     dimension: conditions are restrictions to satisfy, not defaults.
//
// A nil profile is treated as a profile with all-empty sets.
func ScoreEligibility(conditions []models.EligibilityCondition, profile *models.AssociationProfile) float64 {
	var p models.AssociationProfile
	if profile != nil {
		p = *profile
	}

	named := valueSet(conditions, models.ConditionNamedAssociation)
	if len(named) > 0 {
		for _, name := range p.Names {
			if _, ok := named[strings.TrimSpace(name)]; ok {
				return ScoreExactMatch
			}
		}
		return ScoreExcluded
	}

	hasRegion := intersects(valueSet(conditions, models.ConditionRegion), p.WorkingRegions)
	hasForm := intersects(valueSet(conditions, models.ConditionLegalForm), p.LegalForms)
	hasTheme := intersects(valueSet(conditions, models.ConditionTheme), p.MainActivities)

	switch {
	case hasRegion && hasForm && hasTheme:
		return ScoreRegionFormTheme
	case hasRegion && hasForm:
		return ScoreRegionForm
	case (hasRegion && hasTheme) || (hasForm && hasTheme):
		return ScorePairWithTheme
	case hasRegion || hasForm:
		return ScoreRegionOrForm
	case hasTheme:
		return ScoreThemeOnly
	default:
		return ScoreNoMatch
	}
}

// valueSet collects the union of all condition values of one kind. Values are
// trimmed and empty ones dropped, so malformed entries never match anything.
func valueSet(conditions []models.EligibilityCondition, kind models.ConditionKind) map[string]struct{} {
	set := make(map[string]struct{})
	for _, c := range conditions {
		if c.Kind != kind {
			continue
		}
		for _, v := range c.Values {
			v = strings.TrimSpace(v)
			if v != "" {
				set[v] = struct{}{}
			}
		}
	}
	return set
}

func intersects(set map[string]struct{}, values []string) bool {
	if len(set) == 0 {
		return false
	}
	for _, v := range values {
		if _, ok := set[strings.TrimSpace(v)]; ok {
			return true
		}
	}
	return false
}
