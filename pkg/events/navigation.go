package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// NavigationIngester feeds navigation batches from the capture stream into the
// graph store that path analysis queries.
type NavigationIngester struct {
	executor *graph.Executor
	logger   ectologger.Logger
}

// NewNavigationIngester creates a navigation ingester over the graph executor
func NewNavigationIngester(executor *graph.Executor, logger ectologger.Logger) *NavigationIngester {
	return &NavigationIngester{
		executor: executor,
		logger:   logger,
	}
}

// Handle is the consumer handler for the navigation topic. A malformed
// message is logged and committed; retrying it cannot succeed.
func (n *NavigationIngester) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "events.NavigationIngester.Handle")
	defer span.End()

	log := n.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	nav, err := msg.ParseNavigationMessage()
	if err != nil {
		log.WithError(err).Error("failed to parse navigation message")
		return nil
	}

	for _, step := range nav.Steps {
		edge := graph.NavigationEdge{
			FromName:  step.FromName,
			FromKind:  step.FromKind,
			ToName:    step.ToName,
			ToKind:    step.ToKind,
			Timestamp: step.Timestamp,
			Count:     step.Count,
		}
		if err := n.executor.RecordNavigation(ctx, nav.ProjectID, edge); err != nil {
			return err
		}
	}
	return nil
}
