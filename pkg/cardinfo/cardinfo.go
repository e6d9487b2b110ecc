// Package cardinfo maps between the card_info side-channel column and the
// kind-specific attributes exposed on card views. The raw envelope never
// leaves the store layer; it is always decoded into flat attributes first.
package cardinfo

import (
	"encoding/json"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Encode builds the card_info envelope for a card definition. Every kind
// stores the global attributes; path analysis cards merge in their own.
func Encode(def *models.CardDefinition) map[string]any {
	compareTo := def.CompareTo
	if compareTo == nil {
		compareTo = []string{}
	}

	info := map[string]any{
		"hideExcess": def.HideExcess,
		"compareTo":  compareTo,
		"rows":       def.Rows,
	}

	if def.MetricType == models.MetricTypePathAnalysis {
		startType := def.StartType
		if startType == "" {
			startType = models.StartTypeStart
		}
		info["startPoint"] = emptyIfNil(def.StartPoint)
		info["startType"] = startType
		info["excludes"] = emptyIfNil(def.Excludes)
	}

	return info
}

// Decode unpacks the envelope onto a card view. The global attributes are
// always projected; path-analysis attributes only for that kind. Legacy rows
// may predate individual fields, so every absent field gets its default.
func Decode(view *models.CardView, info map[string]any, present bool) {
	view.CompareTo = decodeStrings(info, present, "compareTo")

	if view.MetricType != models.MetricTypePathAnalysis {
		return
	}

	view.Excludes = decodePathFilters(info, present, "excludes")
	view.StartPoint = decodePathFilters(info, present, "startPoint")

	view.StartType = models.StartTypeStart
	if present {
		if s, ok := info["startType"].(string); ok && s != "" {
			view.StartType = s
		}
	}

	hideExcess := false
	if present {
		if h, ok := info["hideExcess"].(bool); ok {
			hideExcess = h
		}
	}
	view.HideExcess = &hideExcess
}

func decodeStrings(info map[string]any, present bool, key string) []string {
	out := []string{}
	if !present {
		return out
	}
	raw, ok := info[key]
	if !ok || raw == nil {
		return out
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return out
	}
	var vals []string
	if err := json.Unmarshal(b, &vals); err != nil {
		return out
	}
	return vals
}

func decodePathFilters(info map[string]any, present bool, key string) []models.PathEventFilter {
	out := []models.PathEventFilter{}
	if !present {
		return out
	}
	raw, ok := info[key]
	if !ok || raw == nil {
		return out
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return out
	}
	var vals []models.PathEventFilter
	if err := json.Unmarshal(b, &vals); err != nil {
		return out
	}
	return vals
}

func emptyIfNil(fs []models.PathEventFilter) []models.PathEventFilter {
	if fs == nil {
		return []models.PathEventFilter{}
	}
	return fs
}
