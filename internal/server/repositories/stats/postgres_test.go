package stats

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	countQ  = `(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+subscriptions\s+WHERE\s+status\s*=\s*'active'\s+AND\s+end_date\s*>\s*now\(\)\s*$`
	sumQ    = `(?s)^SELECT\s+COALESCE\(SUM\(amount\),\s*0\)::float8\s+FROM\s+payments\s+WHERE\s+status\s*=\s*'completed'\s*$`
	activeQ = `(?s)^SELECT\s+s\.id,\s*p\.name,\s*p\.device_limit,\s*s\.start_date,\s*s\.end_date\s+FROM\s+subscriptions\s+s\s+JOIN\s+plans\s+p.*ORDER\s+BY\s+s\.start_date\s+DESC\s+LIMIT\s+1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCountActiveSubscriptions(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(countQ).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	n, err := repo.CountActiveSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.ExpectQuery(countQ).WillReturnError(errors.New("db err"))
	_, err = repo.CountActiveSubscriptions(context.Background())
	assert.ErrorContains(t, err, "db error")
}

func TestSumCompletedPayments(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(sumQ).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0.0))
	total, err := repo.SumCompletedPayments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)

	mock.ExpectQuery(sumQ).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(149.97))
	total, err = repo.SumCompletedPayments(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 149.97, total, 1e-9)
}

func TestActiveSubscriptionForAccount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now().Add(29 * 24 * time.Hour)
	mock.ExpectQuery(activeQ).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "device_limit", "start_date", "end_date"}).
			AddRow("sub-1", "Family", 4, start, end))

	got, err := repo.ActiveSubscriptionForAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", got.ID)
	assert.Equal(t, "Family", got.PlanName)
	assert.Equal(t, 4, got.DeviceLimit)
	assert.True(t, got.EndDate.Equal(end))
}

func TestActiveSubscriptionForAccount_None(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(activeQ).WithArgs("acc-1").WillReturnError(sql.ErrNoRows)

	_, err := repo.ActiveSubscriptionForAccount(context.Background(), "acc-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
