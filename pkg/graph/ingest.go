package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// NavigationEdge is one observed transition between two steps of a session
type NavigationEdge struct {
	FromName  string
	FromKind  string
	ToName    string
	ToKind    string
	Timestamp int64
	Count     int64
}

// RecordNavigation writes a transition into the navigation graph. Steps are
// merged so repeated transitions share their endpoints; each observation keeps
// its own edge so queries can window on time.
func (e *Executor) RecordNavigation(ctx context.Context, projectID int64, edge NavigationEdge) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Executor.RecordNavigation")
	defer span.End()

	count := edge.Count
	if count <= 0 {
		count = 1
	}

	cypher := `
		MERGE (a:Step {projectId: $projectId, name: $fromName, kind: $fromKind})
		MERGE (b:Step {projectId: $projectId, name: $toName, kind: $toKind})
		CREATE (a)-[:NEXT {timestamp: $timestamp, count: $count}]->(b)`

	params := map[string]any{
		"projectId": projectID,
		"fromName":  edge.FromName,
		"fromKind":  edge.FromKind,
		"toName":    edge.ToName,
		"toKind":    edge.ToKind,
		"timestamp": edge.Timestamp,
		"count":     count,
	}

	_, err := e.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, cypher, params)
		return nil, err
	})
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("failed to record navigation edge")
		return err
	}
	return nil
}
