package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// defaultPathRows caps the transitions returned when the card does not ask
// for a specific row count.
const defaultPathRows = 50

// Executor renders path analysis cards from the navigation graph. Sessions are
// ingested as (:Step)-[:NEXT]->(:Step) transitions; the query aggregates them
// into the heaviest paths through the card's window.
type Executor struct {
	client *Client
	logger ectologger.Logger
}

// NewExecutor creates a path analysis executor over the graph client
func NewExecutor(client *Client, logger ectologger.Logger) *Executor {
	return &Executor{
		client: client,
		logger: logger,
	}
}

// PathAnalysis builds the navigation graph for a card: the most traversed
// transitions in the window, anchored on the start point when one is set and
// stripped of excluded steps.
func (e *Executor) PathAnalysis(ctx context.Context, projectID int64, def *models.CardDefinition) (*charts.PathGraph, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Executor.PathAnalysis")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"method":     "PathAnalysis",
		"project_id": projectID,
	})

	rows := def.Rows
	if rows <= 0 {
		rows = defaultPathRows
	}

	cypher, params := buildPathQuery(projectID, def, rows)

	result, err := e.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		log.WithError(err).Error("failed to query navigation graph")
		return nil, err
	}

	records, ok := result.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected path query result type %T", result)
	}

	return foldPathGraph(records), nil
}

func buildPathQuery(projectID int64, def *models.CardDefinition, rows int) (string, map[string]any) {
	params := map[string]any{
		"projectId":      projectID,
		"startTimestamp": def.StartTimestamp,
		"endTimestamp":   def.EndTimestamp,
		"rows":           rows,
	}

	conditions := []string{
		"t.timestamp >= $startTimestamp",
		"t.timestamp <= $endTimestamp",
	}

	if excluded := filterValues(def.Excludes); len(excluded) > 0 {
		params["excluded"] = excluded
		conditions = append(conditions, "NOT a.name IN $excluded", "NOT b.name IN $excluded")
	}

	if anchors := filterValues(def.StartPoint); len(anchors) > 0 {
		params["anchors"] = anchors
		if def.StartType == models.StartTypeStart || def.StartType == "" {
			conditions = append(conditions, "a.name IN $anchors")
		} else {
			conditions = append(conditions, "b.name IN $anchors")
		}
	}

	cypher := fmt.Sprintf(`
		MATCH (a:Step {projectId: $projectId})-[t:NEXT]->(b:Step {projectId: $projectId})
		WHERE %s
		RETURN a.name AS source, a.kind AS sourceKind,
		       b.name AS target, b.kind AS targetKind,
		       sum(t.count) AS count
		ORDER BY count DESC
		LIMIT $rows`, strings.Join(conditions, " AND "))

	return cypher, params
}

func filterValues(fs []models.PathEventFilter) []string {
	values := []string{}
	for _, f := range fs {
		values = append(values, f.Value...)
	}
	return values
}

// foldPathGraph assigns each distinct (kind, name) step a node id and links
// them with the aggregated transition counts.
func foldPathGraph(records []*neo4j.Record) *charts.PathGraph {
	g := &charts.PathGraph{
		Nodes: []charts.PathNode{},
		Links: []charts.PathLink{},
	}

	index := map[string]int64{}
	node := func(name, kind string) int64 {
		key := kind + "\x00" + name
		if id, ok := index[key]; ok {
			return id
		}
		id := int64(len(g.Nodes))
		index[key] = id
		g.Nodes = append(g.Nodes, charts.PathNode{ID: id, Name: name, Type: kind})
		return id
	}

	for _, record := range records {
		source := node(stringValue(record, "source"), stringValue(record, "sourceKind"))
		target := node(stringValue(record, "target"), stringValue(record, "targetKind"))
		count := intValue(record, "count")

		g.Links = append(g.Links, charts.PathLink{Source: source, Target: target, Count: count})
		g.Nodes[source].Count += count
	}
	return g
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intValue(record *neo4j.Record, key string) int64 {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return 0
	}
	n, _ := v.(int64)
	return n
}
