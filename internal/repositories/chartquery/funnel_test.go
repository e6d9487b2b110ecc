package chartquery

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/database"
)

type stubDB struct {
	database.DB
	getFn func(ctx context.Context, dest any, query string, args ...any) error
}

func (s *stubDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return s.getFn(ctx, dest, query, args...)
}

func TestGetIssue(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	t.Run("should report an unknown issue as absent rather than an error", func(t *testing.T) {
		repo := NewRepository(&stubDB{getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		}}, logger)

		issue, err := repo.GetIssue(context.Background(), 42, "issue-gone")

		require.NoError(t, err)
		assert.Nil(t, issue)
	})

	t.Run("should surface a query failure as a server fault", func(t *testing.T) {
		repo := NewRepository(&stubDB{getFn: func(context.Context, any, string, ...any) error {
			return errors.New("connection reset")
		}}, logger)

		_, err := repo.GetIssue(context.Background(), 42, "issue-1")

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	})
}
