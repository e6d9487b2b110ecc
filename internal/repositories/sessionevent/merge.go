package sessionevent

import (
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
)

// MergeTimelines merges two event lists into one ordered by (timestamp,
// message id). Distinct sources can emit events at the same millisecond, so
// the message id breaks ties deterministically.
func MergeTimelines(a, b []models.SessionEvent) []models.SessionEvent {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}

	merged := make([]models.SessionEvent, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if eventBefore(a[i], b[j]) {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged
}

func eventBefore(a, b models.SessionEvent) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.MessageID < b.MessageID
}

// SpliceClickRage collapses each detected click-rage run into a single
// CLICKRAGE row carrying the collapsed count. Events must already be ordered;
// issues are sorted here before the single forward pass.
func SpliceClickRage(events []models.SessionEvent, issues []models.ClickRageIssue) []models.SessionEvent {
	if len(issues) == 0 {
		return events
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Timestamp < issues[j].Timestamp
	})

	out := make([]models.SessionEvent, 0, len(events))
	next := 0
	for idx := 0; idx < len(events); {
		e := events[idx]

		// drop issues the timeline has already passed; their run is gone
		for next < len(issues) && issues[next].Timestamp < e.Timestamp {
			next++
		}

		if next < len(issues) && issues[next].Timestamp == e.Timestamp {
			count := issues[next].MergeCount()
			rage := e
			rage.Type = string(models.EventTypeClickRage)
			rage.Count = count
			out = append(out, rage)
			idx += count
			next++
			continue
		}

		out = append(out, e)
		idx++
	}
	return out
}
