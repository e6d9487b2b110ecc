package card

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
)

type stubGetDB struct {
	database.DB
	getFn func(ctx context.Context, dest any, query string, args ...any) error
}

func (s *stubGetDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return s.getFn(ctx, dest, query, args...)
}

func legacySeriesRow(dest any) {
	row := dest.(*models.Card)
	row.MetricID = 9
	row.ProjectID = 42
	row.Series = database.NewJSONB([]models.Series{{
		SeriesID: 1,
		Name:     "legacy",
		Filter: filters.Filter{
			Events:  []filters.Entry{{Type: "click", Value: []string{"buy"}}},
			Filters: []filters.Entry{{Type: "userBrowser", Value: []string{"Chrome"}}},
		},
	}})
}

func TestGet(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	t.Run("should flatten legacy series filters when asked to", func(t *testing.T) {
		db := &stubGetDB{getFn: func(_ context.Context, dest any, _ string, _ ...any) error {
			legacySeriesRow(dest)
			return nil
		}}
		repo := NewRepository(db, nil, logger)

		// the options the create and update return paths use
		view, err := repo.Get(context.Background(), 42, 9, 7, GetOptions{IncludeData: true, FlattenFilters: true})

		require.NoError(t, err)
		require.Len(t, view.Series, 1)
		f := view.Series[0].Filter
		assert.Empty(t, f.Events)
		require.Len(t, f.Filters, 2)
		assert.Equal(t, "userBrowser", f.Filters[0].Type)
		assert.False(t, f.Filters[0].IsEvent)
		assert.Equal(t, "click", f.Filters[1].Type)
		assert.True(t, f.Filters[1].IsEvent)
	})

	t.Run("should keep the stored filter shape by default", func(t *testing.T) {
		db := &stubGetDB{getFn: func(_ context.Context, dest any, _ string, _ ...any) error {
			legacySeriesRow(dest)
			return nil
		}}
		repo := NewRepository(db, nil, logger)

		view, err := repo.Get(context.Background(), 42, 9, 7, GetOptions{})

		require.NoError(t, err)
		require.Len(t, view.Series, 1)
		assert.Len(t, view.Series[0].Filter.Events, 1)
		assert.Len(t, view.Series[0].Filter.Filters, 1)
	})

	t.Run("should report a missing card as not found", func(t *testing.T) {
		db := &stubGetDB{getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		}}
		repo := NewRepository(db, nil, logger)

		_, err := repo.Get(context.Background(), 42, 9, 7, GetOptions{})

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})
}
