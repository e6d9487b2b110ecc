// Package chartquery implements the chart executors over the Postgres event
// store: session and error search, bucketed series, grouped tables, funnels
// and heat-map session picks.
package chartquery

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
)

// Repository executes chart queries against the event store
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new chart query repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}
