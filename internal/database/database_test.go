package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "sesh.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"groups", "members", "sessions", "teams", "team_players", "games", "score_events"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpen_OneActiveGamePerSession(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "sesh.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`INSERT INTO groups (id, name, invite_code, created_at) VALUES ('g', 'Squad', 'ABC234', CURRENT_TIMESTAMP)`,
		`INSERT INTO sessions (id, group_id, scheduled_at, status, created_at) VALUES ('s', 'g', CURRENT_TIMESTAMP, 'live', CURRENT_TIMESTAMP)`,
		`INSERT INTO teams (id, session_id, name, color, position, created_at) VALUES ('t1', 's', 'Red', 'red', 0, CURRENT_TIMESTAMP)`,
		`INSERT INTO teams (id, session_id, name, color, position, created_at) VALUES ('t2', 's', 'Blue', 'blue', 1, CURRENT_TIMESTAMP)`,
		`INSERT INTO games (id, session_id, number, team_a_id, team_b_id, status, created_at) VALUES ('m1', 's', 1, 't1', 't2', 'in_progress', CURRENT_TIMESTAMP)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}

	_, err = db.Exec(`INSERT INTO games (id, session_id, number, team_a_id, team_b_id, status, created_at) VALUES ('m2', 's', 2, 't1', 't2', 'in_progress', CURRENT_TIMESTAMP)`)
	require.Error(t, err)

	_, err = db.Exec(`INSERT INTO games (id, session_id, number, team_a_id, team_b_id, status, created_at) VALUES ('m3', 's', 3, 't1', 't1', 'completed', CURRENT_TIMESTAMP)`)
	require.Error(t, err, "a team cannot play itself")
}

func TestDSN(t *testing.T) {
	d := dsn("/tmp/sesh.db")
	assert.Contains(t, d, "/tmp/sesh.db?")
	assert.Contains(t, d, "_txlock=immediate")
	assert.Contains(t, d, "_foreign_keys=on")
}
