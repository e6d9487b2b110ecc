// Package card persists metric cards and their series and projects them into
// API views.
package card

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/cardinfo"
	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// HeatMapProber picks the session a new heat-map card is pinned to when the
// caller did not pin one explicitly.
type HeatMapProber interface {
	ProbeSession(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (*charts.HeatMapSession, error)
}

// Repository handles card persistence
type Repository struct {
	db     database.DB
	prober HeatMapProber
	logger ectologger.Logger
}

// NewRepository creates a new card repository
func NewRepository(db database.DB, prober HeatMapProber, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		prober: prober,
		logger: logger,
	}
}

// Create persists a card and its series in one transaction. A heat-map card
// without an explicit session gets pinned to the session a probe render picks
// right now, so later renders stay stable.
func (r *Repository) Create(ctx context.Context, project models.ProjectContext, userID int64, def *models.CardDefinition) (*models.CardView, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "Create",
		"project_id":  project.ProjectID,
		"user_id":     userID,
		"metric_type": def.MetricType,
	})

	pin, err := r.resolveSessionPin(ctx, project, userID, def)
	if err != nil {
		log.WithError(err).Error("failed to resolve heat map session")
		return nil, err
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create card")
	}
	defer tx.Rollback(ctx)

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("public.metrics")
	ib.Cols("project_id", "user_id", "name", "is_public", "view_type", "metric_type", "metric_of",
		"metric_value", "metric_format", "default_config", "thumbnail", "card_info", "data")
	ib.Values(project.ProjectID, userID, def.Name, def.IsPublic, def.ViewType, def.MetricType, def.MetricOf,
		database.NewJSONB(def.MetricValue), def.MetricFormat, database.NewJSONB(def.DefaultConfig),
		def.Thumbnail, database.NewJSONB(cardinfo.Encode(def)), pinValue(pin))

	query, args := ib.Build()
	query += " RETURNING metric_id"

	var metricID int64
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&metricID); err != nil {
		log.WithError(err).Error("failed to insert card")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create card")
	}

	for i, s := range def.Series {
		idx := i
		if s.Index != nil {
			idx = *s.Index
		}
		if err := r.insertSeries(ctx, tx, metricID, idx, s); err != nil {
			log.WithError(err).Error("failed to insert card series")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create card")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create card")
	}

	log.WithField("metric_id", metricID).Info("created card")
	return r.Get(ctx, project.ProjectID, metricID, userID, GetOptions{IncludeData: true, FlattenFilters: true})
}

// Update rewrites a card and reconciles its series against the submitted
// list. Only the owner or anyone on a public card can edit it.
func (r *Repository) Update(ctx context.Context, project models.ProjectContext, metricID, userID int64, def *models.CardDefinition) (*models.CardView, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Update")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":     "Update",
		"project_id": project.ProjectID,
		"metric_id":  metricID,
		"user_id":    userID,
	})

	current, err := r.currentSeriesIDs(ctx, metricID)
	if err != nil {
		log.WithError(err).Error("failed to load current series")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update card")
	}
	plan := ReconcileSeries(current, def.Series)

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update card")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("public.metrics")
	assignments := []string{
		ub.Assign("name", def.Name),
		ub.Assign("is_public", def.IsPublic),
		ub.Assign("view_type", def.ViewType),
		ub.Assign("metric_type", def.MetricType),
		ub.Assign("metric_of", def.MetricOf),
		ub.Assign("metric_value", database.NewJSONB(def.MetricValue)),
		ub.Assign("metric_format", def.MetricFormat),
		ub.Assign("default_config", database.NewJSONB(def.DefaultConfig)),
		ub.Assign("thumbnail", def.Thumbnail),
		ub.Assign("card_info", database.NewJSONB(cardinfo.Encode(def))),
		ub.Assign("edited_at", now),
	}
	// an explicit session re-pins a heat map; otherwise the stored pin stays
	if def.MetricType == models.MetricTypeHeatMap && def.SessionID != nil {
		assignments = append(assignments, ub.Assign("data", pinValue(&models.SessionPin{SessionID: *def.SessionID})))
	}
	ub.Set(assignments...)
	ub.Where(
		ub.Equal("metric_id", metricID),
		ub.Equal("project_id", project.ProjectID),
		ub.IsNull("deleted_at"),
		ub.Or(ub.Equal("user_id", userID), ub.Equal("is_public", true)),
	)

	query, args := ub.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("failed to update card")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update card")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("card %d not found", metricID))
	}

	if len(plan.DeleteIDs) > 0 {
		deleteQuery := `UPDATE public.metric_series SET deleted_at = $1 WHERE metric_id = $2 AND series_id = ANY($3)`
		if _, err := tx.ExecContext(ctx, deleteQuery, now, metricID, pq.Array(plan.DeleteIDs)); err != nil {
			log.WithError(err).Error("failed to delete dropped series")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update card")
		}
	}

	for _, s := range plan.Update {
		updateQuery := `UPDATE public.metric_series SET name = $1, filter = $2, index = $3 WHERE metric_id = $4 AND series_id = $5`
		if _, err := tx.ExecContext(ctx, updateQuery, s.Name, database.NewJSONB(s.Filter), *s.Index, metricID, *s.SeriesID); err != nil {
			log.WithError(err).Error("failed to update series")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update card")
		}
	}

	for _, s := range plan.Insert {
		if err := r.insertSeries(ctx, tx, metricID, *s.Index, s); err != nil {
			log.WithError(err).Error("failed to insert series")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update card")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update card")
	}

	log.Info("updated card")
	return r.Get(ctx, project.ProjectID, metricID, userID, GetOptions{IncludeData: true, FlattenFilters: true})
}

// Delete soft-deletes a card and its series. Deleting a card that is already
// gone is not an error.
func (r *Repository) Delete(ctx context.Context, projectID, metricID, userID int64) error {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Delete")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":     "Delete",
		"project_id": projectID,
		"metric_id":  metricID,
		"user_id":    userID,
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete card")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	cardQuery := `
		UPDATE public.metrics
		SET deleted_at = $1, edited_at = $1
		WHERE metric_id = $2
		  AND project_id = $3
		  AND deleted_at IS NULL
		  AND (user_id = $4 OR is_public)`
	if _, err := tx.ExecContext(ctx, cardQuery, now, metricID, projectID, userID); err != nil {
		log.WithError(err).Error("failed to delete card")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete card")
	}

	seriesQuery := `UPDATE public.metric_series SET deleted_at = $1 WHERE metric_id = $2 AND deleted_at IS NULL`
	if _, err := tx.ExecContext(ctx, seriesQuery, now, metricID); err != nil {
		log.WithError(err).Error("failed to delete card series")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete card")
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete card")
	}

	log.Info("deleted card")
	return nil
}

// Exists reports whether a card is visible to the user.
func (r *Repository) Exists(ctx context.Context, projectID, metricID, userID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Exists")
	defer span.End()

	query := `
		SELECT EXISTS(
			SELECT 1
			FROM public.metrics
			WHERE metric_id = $1
			  AND project_id = $2
			  AND deleted_at IS NULL
			  AND (user_id = $3 OR is_public)
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, metricID, projectID, userID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to check card existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check card")
	}
	return exists, nil
}

func (r *Repository) resolveSessionPin(ctx context.Context, project models.ProjectContext, userID int64, def *models.CardDefinition) (*models.SessionPin, error) {
	if def.MetricType != models.MetricTypeHeatMap {
		return nil, nil
	}
	if def.SessionID != nil {
		return &models.SessionPin{SessionID: *def.SessionID}, nil
	}
	if r.prober == nil {
		return nil, nil
	}

	session, err := r.prober.ProbeSession(ctx, project, def, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	return &models.SessionPin{SessionID: session.SessionID}, nil
}

func (r *Repository) insertSeries(ctx context.Context, tx database.Tx, metricID int64, index int, s models.SeriesDefinition) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("public.metric_series")
	ib.Cols("metric_id", "index", "name", "filter")
	ib.Values(metricID, index, s.Name, database.NewJSONB(s.Filter))

	query, args := ib.Build()
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) currentSeriesIDs(ctx context.Context, metricID int64) ([]models.Series, error) {
	query := `SELECT series_id FROM public.metric_series WHERE metric_id = $1 AND deleted_at IS NULL`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, metricID); err != nil {
		return nil, err
	}

	series := make([]models.Series, 0, len(ids))
	for _, id := range ids {
		series = append(series, models.Series{SeriesID: id})
	}
	return series, nil
}

// pinValue maps a missing pin to a SQL NULL rather than a null json document.
func pinValue(pin *models.SessionPin) database.JSONB[*models.SessionPin] {
	if pin == nil {
		return database.JSONB[*models.SessionPin]{}
	}
	return database.NewJSONB(pin)
}
