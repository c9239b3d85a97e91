package migrations

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCoversTables(t *testing.T) {
	for _, table := range []string{
		"organizations", "users", "premises", "units", "leases",
		"maintenance_requests", "maintenance_work_orders", "messages",
		"audit_logs", "maintenance_attachments",
	} {
		assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestApply(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS organizations")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, Apply(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_WrapsError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = Apply(context.Background(), mock)
	assert.ErrorContains(t, err, "failed to apply schema")
}
