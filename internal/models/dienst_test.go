package models

import (
	"reflect"
	"testing"
)

func TestGroupConditionsRoundTrip(t *testing.T) {
	conditions := []EligibilityCondition{
		{Kind: ConditionLegalForm, Values: []string{"VZW"}},
		{Kind: ConditionRegion, Values: []string{"Leuven", "Herent"}},
		{Kind: ConditionTheme, Values: []string{"Sport"}},
		{Kind: ConditionNamedAssociation, Values: []string{"CLUB A"}},
	}

	vorm, regio, thema, vereniging := GroupConditions(conditions)
	rebuilt := ConditionsFromGroups(vorm, regio, thema, vereniging)

	if !reflect.DeepEqual(conditions, rebuilt) {
		t.Errorf("round trip changed conditions:\n%v\n%v", conditions, rebuilt)
	}
}

func TestGroupConditionsMergesSameKind(t *testing.T) {
	conditions := []EligibilityCondition{
		{Kind: ConditionRegion, Values: []string{"Leuven"}},
		{Kind: ConditionRegion, Values: []string{"Herent"}},
	}

	_, regio, _, _ := GroupConditions(conditions)
	if !reflect.DeepEqual(regio, []string{"Leuven", "Herent"}) {
		t.Errorf("expected merged region values, got %v", regio)
	}
}

func TestConditionsFromGroupsSkipsEmpty(t *testing.T) {
	conditions := ConditionsFromGroups(nil, []string{"Leuven"}, nil, nil)
	if len(conditions) != 1 || conditions[0].Kind != ConditionRegion {
		t.Errorf("expected a single region condition, got %v", conditions)
	}
}
