package auditstore

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchemaRunsCreateTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS batchsim_events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := New(db)
	require.NoError(t, store.InitSchema())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendReturnsAssignedID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO batchsim_events").
		WithArgs(12.5, "reaction", "neutralize", "exothermic step").
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at"}).AddRow(int64(7), now))

	store := New(db)
	id, err := store.Append(Event{
		SimTimeSec: 12.5,
		Category:   "reaction",
		Subject:    "neutralize",
		Detail:     "exothermic step",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSinceOrdersBySimTimeThenID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "sim_time_sec", "category", "subject", "detail"}).
		AddRow(int64(1), now, 5.0, "task", "charge", "started").
		AddRow(int64(2), now, 10.0, "task", "heat", "started")

	mock.ExpectQuery("SELECT id, occurred_at, sim_time_sec, category, subject, detail").
		WithArgs(5.0).
		WillReturnRows(rows)

	store := New(db)
	events, err := store.Since(5.0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "charge", events[0].Subject)
	assert.Equal(t, "heat", events[1].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}
