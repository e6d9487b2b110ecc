package chartquery

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/filters"
)

// sessionColumns maps session-level filter types onto their columns.
var sessionColumns = map[string]string{
	"userId":      "s.user_id",
	"userBrowser": "s.user_browser",
	"userDevice":  "s.user_device",
	"userCountry": "s.user_country",
	"platform":    "s.platform",
	"referrer":    "s.referrer",
	"utmSource":   "s.utm_source",
}

// eventSources maps event filter types onto the table and column an EXISTS
// probe runs against.
type eventSource struct {
	table  string
	column string
}

var eventSources = map[string]eventSource{
	"click":    {"events.clicks", "label"},
	"input":    {"events.inputs", "label"},
	"location": {"events.pages", "path"},
	"custom":   {"events.customs", "name"},
}

// applyFilter translates a flat filter into WHERE conditions on the session
// search builder. Unknown filter types are skipped rather than rejected: saved
// filters outlive the filter vocabulary of any one release.
func applyFilter(sb *sqlbuilder.SelectBuilder, f filters.Filter) {
	conditions := []string{
		sb.GreaterEqualThan("s.start_ts", f.StartTimestamp),
		sb.LessEqualThan("s.start_ts", f.EndTimestamp),
	}

	for _, entry := range f.Filters {
		if cond := entryCondition(sb, entry); cond != "" {
			conditions = append(conditions, cond)
		}
	}

	sb.Where(conditions...)
}

func entryCondition(sb *sqlbuilder.SelectBuilder, entry filters.Entry) string {
	if entry.IsEvent {
		src, ok := eventSources[entry.Type]
		if !ok {
			return ""
		}
		match := valueCondition(sb, "e."+src.column, entry.Operator, entry.Value)
		exists := fmt.Sprintf("EXISTS (SELECT 1 FROM %s e WHERE e.session_id = s.session_id", src.table)
		if match != "" {
			exists += " AND " + match
		}
		return exists + ")"
	}

	column, ok := sessionColumns[entry.Type]
	if !ok {
		return ""
	}
	return valueCondition(sb, column, entry.Operator, entry.Value)
}

// valueCondition renders one operator over a column. Multi-valued entries
// match any of their values.
func valueCondition(sb *sqlbuilder.SelectBuilder, column string, op filters.Operator, values []string) string {
	if len(values) == 0 || op == filters.OperatorIsAny {
		return ""
	}

	switch op {
	case filters.OperatorIs, "":
		return sb.In(column, toAny(values)...)
	case filters.OperatorIsNot:
		return sb.NotIn(column, toAny(values)...)
	case filters.OperatorContains:
		return anyOf(sb, column, values, func(v string) string { return "%" + v + "%" })
	case filters.OperatorNotContains:
		return "NOT " + anyOf(sb, column, values, func(v string) string { return "%" + v + "%" })
	case filters.OperatorStartsWith:
		return anyOf(sb, column, values, func(v string) string { return v + "%" })
	case filters.OperatorEndsWith:
		return anyOf(sb, column, values, func(v string) string { return "%" + v })
	default:
		return ""
	}
}

func anyOf(sb *sqlbuilder.SelectBuilder, column string, values []string, pattern func(string) string) string {
	likes := make([]string, 0, len(values))
	for _, v := range values {
		likes = append(likes, sb.ILike(column, pattern(v)))
	}
	if len(likes) == 1 {
		return likes[0]
	}
	return sb.Or(likes...)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
