package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/ibrahim-qi/sesh-app/internal/database"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/events"
	"github.com/ibrahim-qi/sesh-app/internal/notify"
	"github.com/ibrahim-qi/sesh-app/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSetupCode = "letmein"

type fakeNotifier struct {
	sent chan notify.RecapMessage
	err  error
}

func (f *fakeNotifier) SendRecap(_ context.Context, msg notify.RecapMessage) error {
	f.sent <- msg
	return f.err
}

// stepClock advances one second per reading.
func stepClock(start time.Time) Clock {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type env struct {
	squads   *SquadService
	roster   *RosterService
	sessions *SessionService
	scoring  *ScoringService
	stats    *StatsService
	games    *repository.GameRepository
	broker   *events.MemoryBroker
	notifier *fakeNotifier

	admin   auth.Principal
	group   domain.Group
	members map[string]auth.Principal
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zerolog.Nop()

	db, err := database.Open(filepath.Join(t.TempDir(), "sesh.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{TokenSecret: "test-secret", TokenTTL: time.Hour, SetupCode: testSetupCode}
	gate, err := auth.NewSetupGate(cfg)
	require.NoError(t, err)

	tx := repository.NewTransactor(db, log)
	groups := repository.NewGroupRepository(db, log)
	members := repository.NewMemberRepository(db, log)
	sessions := repository.NewSessionRepository(db, log)
	games := repository.NewGameRepository(db, log)
	scores := repository.NewScoreEventRepository(db, log)

	clock := stepClock(time.Date(2025, 6, 14, 19, 0, 0, 0, time.UTC))
	broker := events.NewMemoryBroker(log)
	notifier := &fakeNotifier{sent: make(chan notify.RecapMessage, 4)}
	statsService := NewStatsService(sessions, games, scores, members, log)

	e := &env{
		squads:   NewSquadService(tx, groups, members, auth.NewTokenIssuer(cfg), gate, clock, log),
		roster:   NewRosterService(members, clock, log),
		sessions: NewSessionService(tx, sessions, games, members, broker, clock, log),
		scoring:  NewScoringService(tx, sessions, games, scores, members, groups, statsService, notifier, broker, clock, log),
		stats:    statsService,
		games:    games,
		broker:   broker,
		notifier: notifier,
		members:  map[string]auth.Principal{},
	}

	res, err := e.squads.CreateSquad(context.Background(), CreateSquadInput{
		SetupCode: testSetupCode,
		SquadName: "Tuesday Hoops",
		AdminName: "Ann",
	})
	require.NoError(t, err)
	e.group = res.Group
	e.admin = auth.Principal{MemberID: res.Member.ID, GroupID: res.Group.ID}
	e.members["Ann"] = e.admin

	for _, name := range []string{"Bob", "Cat", "Dan", "Eve", "Fay"} {
		m, err := e.roster.AddMember(context.Background(), e.admin, name)
		require.NoError(t, err)
		e.members[name] = auth.Principal{MemberID: m.ID, GroupID: m.GroupID}
	}
	return e
}

func principalOf(m domain.Member) auth.Principal {
	return auth.Principal{MemberID: m.ID, GroupID: m.GroupID}
}

func (e *env) id(name string) string {
	return e.members[name].MemberID
}

// schedule creates an upcoming session hosted by Bob.
func (e *env) schedule(t *testing.T, teams ...TeamInput) *SessionDetail {
	t.Helper()
	detail, err := e.sessions.ScheduleSession(context.Background(), e.admin, ScheduleInput{
		ScheduledAt: time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC),
		Location:    "Court 3",
		HostID:      e.id("Bob"),
		Teams:       teams,
	})
	require.NoError(t, err)
	return detail
}

func (e *env) team(name string, color domain.TeamColor, players ...string) TeamInput {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = e.id(p)
	}
	return TeamInput{Name: name, Color: color, PlayerIDs: ids}
}

// threeTeams schedules Red (Ann, Bob), Blue (Cat, Dan) and White (Eve, Fay).
func (e *env) threeTeams(t *testing.T) (*SessionDetail, domain.Team, domain.Team, domain.Team) {
	t.Helper()
	d := e.schedule(t,
		e.team("Red", domain.ColorRed, "Ann", "Bob"),
		e.team("Blue", domain.ColorBlue, "Cat", "Dan"),
		e.team("White", domain.ColorWhite, "Eve", "Fay"),
	)
	return d, d.Teams[0], d.Teams[1], d.Teams[2]
}

func (e *env) score(t *testing.T, sessionID, member string, team domain.Team, points int) *ScoreResult {
	t.Helper()
	res, err := e.scoring.RecordScore(context.Background(), e.admin, sessionID, ScoreInput{
		MemberID: e.id(member),
		TeamID:   team.ID,
		Points:   points,
	})
	require.NoError(t, err)
	return res
}
