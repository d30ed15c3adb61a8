package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/models"
)

// firstJobPosting walks every JSON-LD block on the page and returns the
// first JobPosting object found, descending through @graph, mainEntity,
// and ItemList wrappers.
func firstJobPosting(doc *goquery.Document) (map[string]any, bool) {
	var posting map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		data, err := decodeJSONLD(s.Text())
		if err != nil {
			return true
		}
		if found, ok := findJobPosting(data); ok {
			posting = found
			return false
		}
		return true
	})
	return posting, posting != nil
}

func decodeJSONLD(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<!--")
	raw = strings.TrimSuffix(raw, "-->")
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "\u2028", "")
	raw = strings.ReplaceAll(raw, "\u2029", "")

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func findJobPosting(data any) (map[string]any, bool) {
	switch value := data.(type) {
	case []any:
		for _, item := range value {
			if posting, ok := findJobPosting(item); ok {
				return posting, true
			}
		}
	case map[string]any:
		typ := strings.ToLower(stringValue(value["@type"], value["type"]))
		if typ == "jobposting" {
			return value, true
		}
		for _, key := range []string{"@graph", "mainEntity", "itemListElement", "item"} {
			if nested, ok := value[key]; ok {
				if posting, found := findJobPosting(nested); found {
					return posting, true
				}
			}
		}
	}
	return nil, false
}

// applyJSONLDSalary fills the salary fields from a schema.org
// MonetaryAmount. Structured data carries bare numbers, so the text
// regexes never see it.
func applyJSONLDSalary(job *models.Job, value any) {
	v, ok := value.(map[string]any)
	if !ok {
		return
	}

	currency := stringValue(v["currency"])
	inner := v["value"]
	minVal := numberValue(mapValue(inner, "minValue"))
	maxVal := numberValue(mapValue(inner, "maxValue"))
	if minVal == 0 {
		minVal = numberValue(mapValue(inner, "value"))
	}
	if minVal == 0 {
		return
	}

	job.SalaryMin = minVal
	job.SalaryMax = maxVal
	job.SalaryCurrency = currency
	if maxVal > 0 {
		job.Salary = strings.TrimSpace(fmt.Sprintf("%d - %d %s", minVal, maxVal, currency))
	} else {
		job.Salary = strings.TrimSpace(fmt.Sprintf("%d %s", minVal, currency))
	}

	switch strings.ToUpper(stringValue(mapValue(inner, "unitText"))) {
	case "YEAR":
		job.SalaryType = "yearly"
	case "HOUR":
		job.SalaryType = "hourly"
	}
}

func numberValue(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int(f)
		}
	}
	return 0
}

func locationFromJSONLD(value any) string {
	switch v := value.(type) {
	case []any:
		var parts []string
		for _, item := range v {
			if loc := locationFromJSONLD(item); loc != "" {
				parts = append(parts, loc)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		if addressMap, ok := v["address"].(map[string]any); ok {
			return joinAddress(addressMap)
		}
		return joinAddress(v)
	case string:
		return v
	}
	return ""
}

func joinAddress(value map[string]any) string {
	parts := []string{
		stringValue(value["streetAddress"]),
		stringValue(value["addressLocality"]),
		stringValue(value["addressRegion"]),
		stringValue(value["addressCountry"]),
	}
	var cleaned []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			cleaned = append(cleaned, part)
		}
	}
	return strings.Join(cleaned, ", ")
}

func stringValue(values ...any) string {
	for _, value := range values {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
		case json.Number:
			return v.String()
		case map[string]any:
			if name := stringValue(v["name"]); name != "" {
				return name
			}
		}
	}
	return ""
}

func mapValue(value any, key string) any {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}
