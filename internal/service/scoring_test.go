package service

import (
	"context"
	"testing"
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/events"
	"github.com/ibrahim-qi/sesh-app/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) start(t *testing.T, sessionID string) *domain.Game {
	t.Helper()
	g, err := e.scoring.StartSession(context.Background(), e.admin, sessionID)
	require.NoError(t, err)
	return g
}

func (e *env) awaitRecap(t *testing.T) notify.RecapMessage {
	t.Helper()
	select {
	case msg := <-e.notifier.sent:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("recap was not sent")
	}
	return notify.RecapMessage{}
}

func TestStartSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, red, blue, _ := e.threeTeams(t)

	_, err := e.scoring.StartSession(ctx, e.members["Cat"], d.Session.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	g := e.start(t, d.Session.ID)
	assert.Equal(t, 1, g.Number)
	assert.Equal(t, red.ID, g.TeamAID)
	assert.Equal(t, blue.ID, g.TeamBID)
	assert.Equal(t, domain.GameInProgress, g.Status)

	again, err := e.scoring.StartSession(ctx, e.members["Bob"], d.Session.ID)
	require.NoError(t, err, "the host may run the session")
	assert.Equal(t, g.ID, again.ID, "starting twice keeps the running game")

	got, err := e.sessions.GetSession(ctx, e.admin, d.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionLive, got.Session.Status)
	assert.Len(t, got.Games, 1)
}

func TestRecordScore_WinnerStaysOn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, red, blue, white := e.threeTeams(t)
	id := d.Session.ID
	e.start(t, id)

	e.score(t, id, "Ann", red, 2)
	e.score(t, id, "Cat", blue, 3)
	e.score(t, id, "Bob", red, 2)
	res := e.score(t, id, "Ann", red, 1)

	assert.True(t, res.Outcome.Completed)
	assert.Equal(t, red.ID, res.Outcome.WinnerTeamID)
	assert.Equal(t, domain.GameCompleted, res.Game.Status)
	assert.Equal(t, 5, res.Game.ScoreA)
	assert.Equal(t, 3, res.Game.ScoreB)
	assert.Equal(t, 4, res.Event.Seq)
	require.NotNil(t, res.NextGame)
	assert.Equal(t, 2, res.NextGame.Number)
	assert.Equal(t, red.ID, res.NextGame.TeamAID)
	assert.Equal(t, white.ID, res.NextGame.TeamBID)

	state, err := e.scoring.LiveState(ctx, e.members["Dan"], id)
	require.NoError(t, err)
	require.NotNil(t, state.Active)
	assert.Equal(t, res.NextGame.ID, state.Active.ID)
	assert.Equal(t, []string{blue.ID}, state.Waiting)
	assert.Empty(t, state.Events)
	assert.Nil(t, state.Streak)

	e.score(t, id, "Eve", white, 3)
	res = e.score(t, id, "Fay", white, 2)
	assert.Equal(t, white.ID, res.Game.WinnerTeamID)
	require.NotNil(t, res.NextGame)
	assert.Equal(t, white.ID, res.NextGame.TeamAID, "the winner moves to slot A")
	assert.Equal(t, blue.ID, res.NextGame.TeamBID)

	state, err = e.scoring.LiveState(ctx, e.admin, id)
	require.NoError(t, err)
	assert.Equal(t, []string{red.ID}, state.Waiting)
	assert.Len(t, state.Games, 3)
}

func TestRecordScore_Rejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, red, blue, white := e.threeTeams(t)
	id := d.Session.ID

	_, err := e.scoring.RecordScore(ctx, e.admin, id, ScoreInput{MemberID: e.id("Ann"), TeamID: red.ID, Points: 2})
	assert.ErrorIs(t, err, domain.ErrSessionNotLive)

	e.start(t, id)

	_, err = e.scoring.RecordScore(ctx, e.members["Cat"], id, ScoreInput{MemberID: e.id("Cat"), TeamID: blue.ID, Points: 2})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	tests := []struct {
		name  string
		in    ScoreInput
		field string
	}{
		{"four points", ScoreInput{MemberID: e.id("Ann"), TeamID: red.ID, Points: 4}, "points"},
		{"zero points", ScoreInput{MemberID: e.id("Ann"), TeamID: red.ID, Points: 0}, "points"},
		{"player on other team", ScoreInput{MemberID: e.id("Cat"), TeamID: red.ID, Points: 2}, "member_id"},
		{"team sitting out", ScoreInput{MemberID: e.id("Eve"), TeamID: white.ID, Points: 2}, "team_id"},
		{"team from nowhere", ScoreInput{MemberID: e.id("Ann"), TeamID: "nope", Points: 2}, "team_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.scoring.RecordScore(ctx, e.admin, id, tt.in)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	state, err := e.scoring.LiveState(ctx, e.admin, id)
	require.NoError(t, err)
	assert.Empty(t, state.Events, "rejected scores leave no trace")
	assert.Equal(t, 0, state.Active.ScoreA+state.Active.ScoreB)
}

func TestUndoLastScore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, red, blue, _ := e.threeTeams(t)
	id := d.Session.ID
	e.start(t, id)

	_, err := e.scoring.UndoLastScore(ctx, e.admin, id)
	var noEvents *domain.NoEventsError
	require.ErrorAs(t, err, &noEvents)

	e.score(t, id, "Ann", red, 2)
	e.score(t, id, "Cat", blue, 3)

	undo, err := e.scoring.UndoLastScore(ctx, e.admin, id)
	require.NoError(t, err)
	assert.Equal(t, 3, undo.Event.Points)
	assert.Equal(t, e.id("Cat"), undo.Event.MemberID)
	assert.Equal(t, 2, undo.Game.ScoreA)
	assert.Equal(t, 0, undo.Game.ScoreB)

	res := e.score(t, id, "Dan", blue, 1)
	assert.Equal(t, 2, res.Event.Seq, "the retracted sequence number is reused")

	state, err := e.scoring.LiveState(ctx, e.admin, id)
	require.NoError(t, err)
	require.Len(t, state.Events, 2)
	require.NotNil(t, state.LastEvent)
	assert.Equal(t, e.id("Dan"), state.LastEvent.MemberID)
	assert.Equal(t, map[string]int{e.id("Ann"): 2, e.id("Dan"): 1}, state.PlayerPoints)
}

func TestUndoLastScore_CompletedGameIsFinal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.schedule(t,
		e.team("Red", domain.ColorRed, "Ann"),
		e.team("Blue", domain.ColorBlue, "Cat"),
	)
	red := d.Teams[0]
	id := d.Session.ID
	e.start(t, id)

	e.score(t, id, "Ann", red, 3)
	res := e.score(t, id, "Ann", red, 2)
	require.True(t, res.Outcome.Completed)

	_, err := e.scoring.UndoLastScore(ctx, e.admin, id)
	var noEvents *domain.NoEventsError
	assert.ErrorAs(t, err, &noEvents, "undo only reaches the running game")
}

func TestReconcile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, red, blue, _ := e.threeTeams(t)
	id := d.Session.ID
	game := e.start(t, id)

	e.score(t, id, "Ann", red, 2)
	e.score(t, id, "Cat", blue, 3)

	corrupt := func() {
		g, err := e.games.Get(ctx, game.ID)
		require.NoError(t, err)
		g.ScoreA = 9
		require.NoError(t, e.games.Update(ctx, g))
	}

	corrupt()
	state, err := e.scoring.LiveState(ctx, e.admin, id)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Active.ScoreA, "live state is served from the ledger")

	_, err = e.scoring.Reconcile(ctx, e.members["Cat"], id)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	repaired, err := e.scoring.Reconcile(ctx, e.admin, id)
	require.NoError(t, err)
	require.Len(t, repaired, 1)
	assert.Equal(t, 2, repaired[0].ScoreA)
	assert.Equal(t, 3, repaired[0].ScoreB)

	repaired, err = e.scoring.Reconcile(ctx, e.admin, id)
	require.NoError(t, err)
	assert.Empty(t, repaired)

	corrupt()
	res := e.score(t, id, "Bob", red, 1)
	assert.Equal(t, 3, res.Game.ScoreA, "writes repair the cached score first")
	stored, err := e.games.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ScoreA)
}

func TestEndSession_ForcedDraw(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.schedule(t,
		e.team("Red", domain.ColorRed, "Ann", "Bob"),
		e.team("Blue", domain.ColorBlue, "Cat", "Dan"),
	)
	red, blue := d.Teams[0], d.Teams[1]
	id := d.Session.ID
	e.start(t, id)

	e.score(t, id, "Ann", red, 2)
	e.score(t, id, "Cat", blue, 2)

	_, err := e.scoring.EndSession(ctx, e.members["Eve"], id)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	res, err := e.scoring.EndSession(ctx, e.admin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, res.Session.Status)
	assert.False(t, res.Discarded)
	require.NotNil(t, res.Game)
	assert.True(t, res.Outcome.Draw)
	assert.True(t, res.Outcome.Forced)
	assert.Empty(t, res.Game.WinnerTeamID)
	assert.True(t, res.Game.IsDraw())

	msg := e.awaitRecap(t)
	assert.Equal(t, id, msg.SessionID)
	assert.Equal(t, "Tuesday Hoops", msg.SquadName)
	assert.Contains(t, msg.Text, "Kings: -")
	assert.Contains(t, msg.Text, "MVP: Ann (2pts)")
	assert.Contains(t, msg.Text, "1. Red 2-2 Blue")

	_, err = e.scoring.RecordScore(ctx, e.admin, id, ScoreInput{MemberID: e.id("Ann"), TeamID: red.ID, Points: 1})
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
	_, err = e.scoring.StartSession(ctx, e.admin, id)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
	_, err = e.scoring.EndSession(ctx, e.admin, id)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)

	state, err := e.scoring.LiveState(ctx, e.admin, id)
	require.NoError(t, err)
	assert.Nil(t, state.Active)
	assert.Empty(t, state.Waiting)
}

func TestEndSession_DiscardsEmptyGame(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, red, _, _ := e.threeTeams(t)
	id := d.Session.ID
	e.start(t, id)

	e.score(t, id, "Ann", red, 3)
	e.score(t, id, "Bob", red, 2)

	res, err := e.scoring.EndSession(ctx, e.members["Bob"], id)
	require.NoError(t, err)
	assert.True(t, res.Discarded)
	assert.Nil(t, res.Game)
	e.awaitRecap(t)

	got, err := e.sessions.GetSession(ctx, e.admin, id)
	require.NoError(t, err)
	require.Len(t, got.Games, 1, "only the decided game remains")
	assert.Equal(t, red.ID, got.Games[0].WinnerTeamID)
}

func TestEndSession_Upcoming(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, _, _, _ := e.threeTeams(t)

	res, err := e.scoring.EndSession(ctx, e.admin, d.Session.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Game)
	assert.False(t, res.Discarded)
	msg := e.awaitRecap(t)
	assert.Contains(t, msg.Text, "Kings: -")
}

func TestLiveState_Streak(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.schedule(t,
		e.team("Red", domain.ColorRed, "Ann"),
		e.team("Blue", domain.ColorBlue, "Cat"),
	)
	red, blue := d.Teams[0], d.Teams[1]
	id := d.Session.ID
	e.start(t, id)

	for i := 0; i < 2; i++ {
		e.score(t, id, "Ann", red, 3)
		res := e.score(t, id, "Ann", red, 2)
		require.True(t, res.Outcome.Completed)
		require.NotNil(t, res.NextGame)
		assert.Equal(t, red.ID, res.NextGame.TeamAID)
		assert.Equal(t, blue.ID, res.NextGame.TeamBID)
	}

	state, err := e.scoring.LiveState(ctx, e.members["Cat"], id)
	require.NoError(t, err)
	require.NotNil(t, state.Streak)
	assert.Equal(t, red.ID, state.Streak.TeamID)
	assert.Equal(t, 2, state.Streak.Count)
	assert.Empty(t, state.Waiting)
}

func TestScoringPublishesEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, red, _, _ := e.threeTeams(t)
	id := d.Session.ID

	sub, cancel := context.WithCancel(ctx)
	defer cancel()
	ch, err := e.broker.Subscribe(sub, id)
	require.NoError(t, err)

	e.start(t, id)
	e.score(t, id, "Ann", red, 2)
	_, err = e.scoring.UndoLastScore(ctx, e.admin, id)
	require.NoError(t, err)

	var kinds []events.Kind
	for len(kinds) < 4 {
		select {
		case ev := <-ch:
			kinds = append(kinds, ev.Kind)
		case <-time.After(time.Second):
			t.Fatalf("got only %v", kinds)
		}
	}
	assert.Equal(t, []events.Kind{
		events.KindSessionStarted,
		events.KindGameStarted,
		events.KindScoreAppended,
		events.KindScoreRetracted,
	}, kinds)
}
