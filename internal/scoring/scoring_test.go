package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 14, 19, 0, 0, 0, time.UTC)

var (
	red  = domain.Team{ID: "red", Name: "Red", PlayerIDs: []string{"ann", "bob"}}
	blue = domain.Team{ID: "blue", Name: "Blue", PlayerIDs: []string{"cat", "dan"}}
)

func rosterOf(teamID string) domain.Team {
	if teamID == red.ID {
		return red
	}
	return blue
}

func newGame() domain.Game {
	return domain.Game{ID: "g1", Number: 1, TeamAID: red.ID, TeamBID: blue.ID, Status: domain.GameInProgress}
}

func score(member, team string, points int) domain.ScoreEvent {
	return domain.ScoreEvent{MemberID: member, TeamID: team, Points: points}
}

func TestMachine_ScenarioRedWins(t *testing.T) {
	m := NewMachine(newGame(), nil, 5)

	steps := []struct {
		ev        domain.ScoreEvent
		wantA     int
		wantB     int
		completed bool
	}{
		{score("ann", "red", 2), 2, 0, false},
		{score("cat", "blue", 3), 2, 3, false},
		{score("bob", "red", 2), 4, 3, false},
		{score("ann", "red", 1), 5, 3, true},
	}

	for i, st := range steps {
		ev, out, err := m.Append(st.ev, rosterOf(st.ev.TeamID), t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, i+1, ev.Seq)
		assert.Equal(t, "g1", ev.GameID)

		g := m.Game()
		assert.Equal(t, st.wantA, g.ScoreA)
		assert.Equal(t, st.wantB, g.ScoreB)
		assert.Equal(t, st.completed, out.Completed)
		require.NoError(t, m.Check(), "cached score must match ledger after step %d", i)
	}

	g := m.Game()
	assert.Equal(t, domain.GameCompleted, g.Status)
	assert.Equal(t, "red", g.WinnerTeamID)
	require.NotNil(t, g.CompletedAt)
	assert.Equal(t, t0.Add(3*time.Second), *g.CompletedAt)
}

func TestMachine_AppendValidation(t *testing.T) {
	tests := []struct {
		name    string
		ev      domain.ScoreEvent
		roster  domain.Team
		wantErr string
	}{
		{name: "zero points", ev: score("ann", "red", 0), roster: red, wantErr: "points"},
		{name: "four points", ev: score("ann", "red", 4), roster: red, wantErr: "points"},
		{name: "team not playing", ev: score("eve", "white", 1), roster: domain.Team{ID: "white", PlayerIDs: []string{"eve"}}, wantErr: "team_id"},
		{name: "member not on team", ev: score("cat", "red", 1), roster: red, wantErr: "member_id"},
		{name: "roster mismatch", ev: score("ann", "red", 1), roster: blue, wantErr: "member_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(newGame(), nil, 5)
			_, _, err := m.Append(tt.ev, tt.roster, t0)

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantErr, ve.Field)
			assert.Zero(t, m.Ledger().Len())
		})
	}
}

func TestMachine_RetractLast(t *testing.T) {
	m := NewMachine(newGame(), nil, 5)

	_, err := m.RetractLast()
	var ne *domain.NoEventsError
	require.True(t, errors.As(err, &ne))

	_, _, err = m.Append(score("ann", "red", 2), red, t0)
	require.NoError(t, err)
	_, _, err = m.Append(score("cat", "blue", 3), blue, t0)
	require.NoError(t, err)

	ev, err := m.RetractLast()
	require.NoError(t, err)
	assert.Equal(t, "cat", ev.MemberID)
	assert.Equal(t, 2, m.Game().ScoreA)
	assert.Equal(t, 0, m.Game().ScoreB)

	// retract then re-append restores the same state
	_, _, err = m.Append(score("cat", "blue", 3), blue, t0)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Game().ScoreA)
	assert.Equal(t, 3, m.Game().ScoreB)
	require.NoError(t, m.Check())
}

func TestMachine_CompletedGameIsTerminal(t *testing.T) {
	m := NewMachine(newGame(), nil, 5)
	_, out, err := m.Append(score("ann", "red", 3), red, t0)
	require.NoError(t, err)
	require.False(t, out.Completed)
	_, out, err = m.Append(score("ann", "red", 3), red, t0)
	require.NoError(t, err)
	require.True(t, out.Completed)
	assert.Equal(t, 6, m.Game().ScoreA)

	_, err = m.RetractLast()
	require.ErrorIs(t, err, domain.ErrGameNotInProgress)

	_, _, err = m.Append(score("cat", "blue", 1), blue, t0)
	require.ErrorIs(t, err, domain.ErrGameNotInProgress)

	_, err = m.ForceComplete(t0)
	require.ErrorIs(t, err, domain.ErrGameNotInProgress)
}

func TestMachine_ForceComplete(t *testing.T) {
	tests := []struct {
		name       string
		events     []domain.ScoreEvent
		wantWinner string
		wantDraw   bool
	}{
		{name: "leader wins", events: []domain.ScoreEvent{score("cat", "blue", 2), score("ann", "red", 1)}, wantWinner: "blue"},
		{name: "level is a draw", events: []domain.ScoreEvent{score("cat", "blue", 2), score("ann", "red", 2)}, wantDraw: true},
		{name: "scoreless is a draw", wantDraw: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(newGame(), nil, 5)
			for _, ev := range tt.events {
				_, _, err := m.Append(ev, rosterOf(ev.TeamID), t0)
				require.NoError(t, err)
			}

			out, err := m.ForceComplete(t0)
			require.NoError(t, err)
			assert.True(t, out.Forced)
			assert.Equal(t, tt.wantDraw, out.Draw)
			assert.Equal(t, tt.wantWinner, out.WinnerTeamID)
			assert.Equal(t, tt.wantWinner, m.Game().WinnerTeamID)
			assert.Equal(t, domain.GameCompleted, m.Game().Status)
		})
	}
}

func TestMachine_Reconcile(t *testing.T) {
	g := newGame()
	g.ScoreA, g.ScoreB = 4, 0
	events := []domain.ScoreEvent{
		{ID: "e2", GameID: "g1", MemberID: "cat", TeamID: "blue", Points: 3, Seq: 2},
		{ID: "e1", GameID: "g1", MemberID: "ann", TeamID: "red", Points: 2, Seq: 1},
	}
	m := NewMachine(g, events, 5)

	var ie *domain.InconsistentStateError
	require.True(t, errors.As(m.Check(), &ie))
	assert.Equal(t, 4, ie.CachedA)
	assert.Equal(t, 2, ie.LedgerA)
	assert.Equal(t, 3, ie.LedgerB)

	assert.True(t, m.Reconcile())
	assert.Equal(t, 2, m.Game().ScoreA)
	assert.Equal(t, 3, m.Game().ScoreB)
	assert.False(t, m.Reconcile())

	last, ok := m.Ledger().Last()
	require.True(t, ok)
	assert.Equal(t, "e2", last.ID, "ledger must be ordered by seq")
}

func TestLedger_MemberPointsRoundTrip(t *testing.T) {
	l := NewLedger("g1", nil)
	for _, p := range []int{1, 2, 3, 2} {
		l.Append(score("ann", "red", p))
	}
	assert.Equal(t, 8, l.MemberPoints()["ann"])

	ev, err := l.RetractLast()
	require.NoError(t, err)
	assert.Equal(t, 2, ev.Points)
	assert.Equal(t, 6, l.MemberPoints()["ann"])
	assert.Equal(t, 6, l.Total("red"))
}

func TestWinner(t *testing.T) {
	g := newGame()
	g.ScoreA, g.ScoreB = 5, 5
	assert.Empty(t, Winner(g))
	g.ScoreB = 6
	assert.Equal(t, "blue", Winner(g))
}
