package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestWithinTx_Commit(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE groups SET name").
		WithArgs("Renamed", "grp").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	groups := NewGroupRepository(db, zerolog.Nop())
	err := NewTransactor(db, zerolog.Nop()).WithinTx(context.Background(), func(tx *sql.Tx) error {
		return groups.WithTx(tx).Rename(context.Background(), "grp", "Renamed")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollbackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO score_events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE games").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	log := zerolog.Nop()
	events := NewScoreEventRepository(db, log)
	games := NewGameRepository(db, log)

	err := NewTransactor(db, log).WithinTx(context.Background(), func(tx *sql.Tx) error {
		ctx := context.Background()
		if err := events.WithTx(tx).Insert(ctx, &domain.ScoreEvent{ID: "e1", GameID: "g1", TeamID: "red", Points: 2, Seq: 1}); err != nil {
			return err
		}
		return games.WithTx(tx).Update(ctx, &domain.Game{ID: "g1", ScoreA: 2, Status: domain.GameInProgress})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CommitFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err := NewTransactor(db, zerolog.Nop()).WithinTx(context.Background(), func(*sql.Tx) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
}

func TestGameUpdate_NoRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE games").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGameRepository(db, zerolog.Nop()).Update(context.Background(), &domain.Game{ID: "gone"})
	assert.True(t, domain.IsNotFound(err))
}

func TestChunks(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunks(ids, 2))
	assert.Nil(t, chunks(nil, 2))
}

func TestNewInviteCode(t *testing.T) {
	code, err := NewInviteCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.Contains(t, "ABCDEFGHJKLMNPQRSTUVWXYZ23456789", string(r))
	}

	id, err := NewID()
	require.NoError(t, err)
	assert.Len(t, id, 21)
}
