package models

// ConditionKind tags an eligibility condition variant. The upstream catalog
// delivers conditions as loose key/value maps; the kind is fixed at ingest so
// scoring can match exhaustively instead of on raw map keys.
type ConditionKind string

const (
	ConditionRegion           ConditionKind = "regio"
	ConditionLegalForm        ConditionKind = "vorm"
	ConditionTheme            ConditionKind = "thema"
	ConditionNamedAssociation ConditionKind = "vereniging"
)

// EligibilityCondition restricts who may apply for a dienst. A dienst may
// carry several conditions of the same kind; their values are OR'd when
// matched against a profile.
type EligibilityCondition struct {
	Kind   ConditionKind `json:"kind"`
	Values []string      `json:"values"`
}

// Dienst is one service offering from the Dienstencatalogus. JSON field names
// follow the upstream Verenigingsloket contract.
type Dienst struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"naam"`
	Type         string                 `json:"type,omitempty"`
	Description  string                 `json:"omschrijving,omitempty"` // cleaned plain text
	Themes       []string               `json:"themas,omitempty"`
	Municipality string                 `json:"gemeente,omitempty"`
	Conditions   []EligibilityCondition `json:"voorwaarden,omitempty"`
	Keywords     []string               `json:"keywords,omitempty"`
	LastModified string                 `json:"laatste_wijzigingsdatum,omitempty"` // YYYY-MM-DD
}

// AssociationProfile describes the searching vereniging. It is built per
// request from caller-supplied data and never persisted.
type AssociationProfile struct {
	WorkingRegions []string          `json:"werkingsgebieden,omitempty"`
	LegalForms     []string          `json:"type_vereniging,omitempty"`
	MainActivities []string          `json:"hoofdactiviteiten,omitempty"`
	Names          map[string]string `json:"namen,omitempty"` // alias label -> registered name
}

// Facet is a single aggregation bucket.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GroupConditions flattens a condition list into the four per-kind value
// groups the store persists. The variant grouping is lost at this layer and
// reconstructed by ConditionsFromGroups at read time.
func GroupConditions(conditions []EligibilityCondition) (vorm, regio, thema, vereniging []string) {
	for _, c := range conditions {
		switch c.Kind {
		case ConditionLegalForm:
			vorm = append(vorm, c.Values...)
		case ConditionRegion:
			regio = append(regio, c.Values...)
		case ConditionTheme:
			thema = append(thema, c.Values...)
		case ConditionNamedAssociation:
			vereniging = append(vereniging, c.Values...)
		}
	}
	return vorm, regio, thema, vereniging
}

// ConditionsFromGroups rebuilds the tagged condition list from the flat
// per-kind value groups.
func ConditionsFromGroups(vorm, regio, thema, vereniging []string) []EligibilityCondition {
	var conditions []EligibilityCondition
	appendGroup := func(kind ConditionKind, values []string) {
		if len(values) > 0 {
			conditions = append(conditions, EligibilityCondition{Kind: kind, Values: values})
		}
	}
	appendGroup(ConditionLegalForm, vorm)
	appendGroup(ConditionRegion, regio)
	appendGroup(ConditionTheme, thema)
	appendGroup(ConditionNamedAssociation, vereniging)
	return conditions
}
