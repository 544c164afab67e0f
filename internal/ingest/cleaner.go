package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/jorisv/dienst-catalogus/internal/models"
)

var sanitizePolicy = bluemonday.UGCPolicy()

// stripHTML sanitizes and flattens HTML to plain text with collapsed
// whitespace.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}
	safe := sanitizePolicy.Sanitize(html)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(safe))
	if err != nil {
		return normalizeSpace(safe)
	}
	return normalizeSpace(doc.Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// conditionKeys maps the raw voorwaarde map keys onto condition kinds.
var conditionKeys = map[string]models.ConditionKind{
	"vorm":       models.ConditionLegalForm,
	"regio":      models.ConditionRegion,
	"thema":      models.ConditionTheme,
	"vereniging": models.ConditionNamedAssociation,
}

// CleanRecord normalizes one raw CMS record into an indexable dienst.
func CleanRecord(rec DienstRecord) models.Dienst {
	product := rec.Product

	var themes []string
	for _, t := range product.Themas.Elementen {
		themes = appendUnique(themes, t.Naam)
	}

	conditions, conditionText := parseVoorwaarden(product.Voorwaarden.Elementen)

	// The theme dimension is scored against the dienst's theme labels as
	// well as explicit thema conditions, so both end up in one group.
	themeValues := conditionValues(conditions, models.ConditionTheme)
	for _, t := range themes {
		themeValues = appendUnique(themeValues, t)
	}
	conditions = replaceKind(conditions, models.ConditionTheme, themeValues)

	var gemeente string
	for _, p := range product.Partners {
		if strings.TrimSpace(p.Naam) != "" {
			gemeente = strings.TrimSpace(p.Naam)
			break
		}
	}

	lastModified := product.Metadata.LaatsteWijzigingsdatum
	if len(lastModified) > 10 {
		lastModified = lastModified[:10]
	}

	description := stripHTML(product.Omschrijving)

	return models.Dienst{
		ID:           product.ID,
		Name:         normalizeSpace(product.Naam),
		Type:         normalizeSpace(product.Type),
		Description:  description,
		Themes:       themes,
		Municipality: gemeente,
		Conditions:   conditions,
		Keywords:     extractKeywords(description + " " + conditionText),
		LastModified: lastModified,
	}
}

// parseVoorwaarden walks the duck-typed condition entries: typed keys become
// tagged conditions, "tekst" HTML is collected as plain text, anything else
// is dropped.
func parseVoorwaarden(elementen []map[string]interface{}) ([]models.EligibilityCondition, string) {
	grouped := map[models.ConditionKind][]string{}
	var texts []string

	for _, entry := range elementen {
		for key, value := range entry {
			lower := strings.ToLower(strings.TrimSpace(key))
			if lower == "tekst" {
				if s, ok := value.(string); ok {
					if t := stripHTML(s); t != "" {
						texts = append(texts, t)
					}
				}
				continue
			}

			kind, ok := conditionKeys[lower]
			if !ok {
				continue
			}
			for _, v := range coerceStrings(value) {
				grouped[kind] = appendUnique(grouped[kind], v)
			}
		}
	}

	var conditions []models.EligibilityCondition
	for _, kind := range []models.ConditionKind{
		models.ConditionLegalForm,
		models.ConditionRegion,
		models.ConditionTheme,
		models.ConditionNamedAssociation,
	} {
		if len(grouped[kind]) > 0 {
			conditions = append(conditions, models.EligibilityCondition{Kind: kind, Values: grouped[kind]})
		}
	}

	return conditions, strings.Join(texts, " ")
}

// coerceStrings accepts the two value shapes the CMS emits: a bare string or
// a list of strings.
func coerceStrings(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func conditionValues(conditions []models.EligibilityCondition, kind models.ConditionKind) []string {
	var values []string
	for _, c := range conditions {
		if c.Kind == kind {
			for _, v := range c.Values {
				values = appendUnique(values, v)
			}
		}
	}
	return values
}

func replaceKind(conditions []models.EligibilityCondition, kind models.ConditionKind, values []string) []models.EligibilityCondition {
	var out []models.EligibilityCondition
	for _, c := range conditions {
		if c.Kind != kind {
			out = append(out, c)
		}
	}
	if len(values) > 0 {
		out = append(out, models.EligibilityCondition{Kind: kind, Values: values})
	}
	return out
}

// appendUnique appends a trimmed value if it is non-empty and not already
// present (case-insensitive).
func appendUnique(list []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return list
	}
	lower := strings.ToLower(v)
	for _, existing := range list {
		if strings.ToLower(existing) == lower {
			return list
		}
	}
	return append(list, v)
}

// dutchStopwords covers the high-frequency function words that would
// otherwise dominate the keyword list.
var dutchStopwords = map[string]struct{}{
	"aan": {}, "als": {}, "bij": {}, "daar": {}, "dan": {}, "dat": {},
	"deze": {}, "die": {}, "dit": {}, "door": {}, "een": {}, "elke": {},
	"haar": {}, "heeft": {}, "het": {}, "hier": {}, "hun": {}, "iets": {},
	"jaar": {}, "kan": {}, "kunnen": {}, "maar": {}, "meer": {}, "met": {},
	"moet": {}, "naar": {}, "niet": {}, "ook": {}, "onder": {}, "over": {},
	"voor": {}, "van": {}, "via": {}, "wordt": {}, "worden": {}, "zijn": {},
	"zich": {}, "zoals": {},
}

const maxKeywords = 20

// extractKeywords pulls distinct lowercase content tokens out of the cleaned
// text, skipping short tokens and stopwords.
func extractKeywords(text string) []string {
	var keywords []string
	seen := map[string]struct{}{}

	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(field, ".,;:!?()[]\"'`«»&/-")
		if len([]rune(token)) <= 3 {
			continue
		}
		if _, stop := dutchStopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}

	return keywords
}
