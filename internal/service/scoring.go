package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ibrahim-qi/sesh-app/internal/apidto"
	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/events"
	"github.com/ibrahim-qi/sesh-app/internal/metrics"
	"github.com/ibrahim-qi/sesh-app/internal/notify"
	"github.com/ibrahim-qi/sesh-app/internal/repository"
	"github.com/ibrahim-qi/sesh-app/internal/scoring"
	"github.com/ibrahim-qi/sesh-app/internal/stats"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ScoreInput struct {
	MemberID string
	TeamID   string
	Points   int
}

type ScoreResult struct {
	Event    domain.ScoreEvent
	Game     domain.Game
	Outcome  scoring.Outcome
	NextGame *domain.Game
}

type UndoResult struct {
	Event domain.ScoreEvent
	Game  domain.Game
}

type EndResult struct {
	Session domain.Session
	// Game is the force-completed game, nil when none was running or the
	// running one had no points and was discarded.
	Game      *domain.Game
	Outcome   scoring.Outcome
	Discarded bool
}

// LiveState is everything a scoreboard needs to render a session.
type LiveState struct {
	Session      domain.Session
	Teams        []domain.Team
	Games        []domain.Game
	Active       *domain.Game
	Events       []domain.ScoreEvent
	PlayerPoints map[string]int
	Waiting      []string
	Streak       *stats.Streak
	LastEvent    *domain.ScoreEvent
}

// ScoringService runs live sessions. Every ledger mutation and the game row
// it affects are written in one transaction; events go out after commit.
type ScoringService struct {
	tx       *repository.Transactor
	sessions *repository.SessionRepository
	games    *repository.GameRepository
	scores   *repository.ScoreEventRepository
	members  *repository.MemberRepository
	groups   *repository.GroupRepository
	stats    *StatsService
	notifier RecapNotifier
	pub      publisher
	now      Clock
	logger   zerolog.Logger
}

func NewScoringService(
	tx *repository.Transactor,
	sessions *repository.SessionRepository,
	games *repository.GameRepository,
	scores *repository.ScoreEventRepository,
	members *repository.MemberRepository,
	groups *repository.GroupRepository,
	statsService *StatsService,
	notifier RecapNotifier,
	broker events.Broker,
	now Clock,
	logger zerolog.Logger,
) *ScoringService {
	return &ScoringService{
		tx:       tx,
		sessions: sessions,
		games:    games,
		scores:   scores,
		members:  members,
		groups:   groups,
		stats:    statsService,
		notifier: notifier,
		pub:      publisher{broker: broker, logger: logger},
		now:      now,
		logger:   logger,
	}
}

// managed loads a session the caller may run: admins, its host and its
// creator.
func (s *ScoringService) managed(ctx context.Context, p auth.Principal, sessionID string) (*domain.Session, error) {
	me, err := actor(ctx, s.members, p)
	if err != nil {
		return nil, err
	}
	session, err := squadSession(ctx, s.sessions, p.GroupID, sessionID)
	if err != nil {
		return nil, err
	}
	if !canManageSession(me, session) {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

func requireLive(session *domain.Session) error {
	switch session.Status {
	case domain.SessionLive:
		return nil
	case domain.SessionCompleted:
		return domain.ErrSessionCompleted
	}
	return domain.ErrSessionNotLive
}

// StartSession takes an upcoming session live and opens its first game.
// On a live session without a running game it opens the next one in the
// rotation; otherwise it changes nothing.
func (s *ScoringService) StartSession(ctx context.Context, p auth.Principal, sessionID string) (*domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	session, err := s.managed(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionCompleted {
		return nil, domain.ErrSessionCompleted
	}

	var (
		game     *domain.Game
		wentLive bool
		newGame  bool
	)
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		sessions, games := s.sessions.WithTx(tx), s.games.WithTx(tx)

		teams, err := sessions.Teams(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(teams) < 2 {
			return domain.ErrNotEnoughTeams
		}

		if session.Status == domain.SessionUpcoming {
			if err := sessions.UpdateStatus(ctx, sessionID, domain.SessionLive); err != nil {
				return err
			}
			session.Status = domain.SessionLive
			wentLive = true
		}

		active, err := games.Active(ctx, sessionID)
		if err == nil {
			game = active
			return nil
		}
		if !domain.IsNotFound(err) {
			return err
		}

		game, err = s.startNextGame(ctx, games, teams, sessionID)
		newGame = err == nil
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to start session")
		return nil, err
	}

	if wentLive {
		s.logger.Info().Str("session_id", sessionID).Msg("session live")
		s.pub.publish(ctx, events.KindSessionStarted, sessionID, apidto.SessionChanged{Session: apidto.FromSession(session)})
	}
	if newGame {
		s.pub.publish(ctx, events.KindGameStarted, sessionID, apidto.GameStarted{Game: *apidto.FromGame(game)})
	}
	return game, nil
}

// startNextGame opens the matchup the rotation picks after the session's
// completed games. The rotation is replayed from the games table.
func (s *ScoringService) startNextGame(ctx context.Context, games *repository.GameRepository, teams []domain.Team, sessionID string) (*domain.Game, error) {
	seq, err := s.replay(ctx, games, teams, sessionID)
	if err != nil {
		return nil, err
	}
	number, err := games.NextNumber(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	id, err := repository.NewID()
	if err != nil {
		return nil, err
	}

	next := seq.Current()
	g := &domain.Game{
		ID:        id,
		SessionID: sessionID,
		Number:    number,
		TeamAID:   next.TeamAID,
		TeamBID:   next.TeamBID,
		Status:    domain.GameInProgress,
		CreatedAt: s.now(),
	}
	if err := games.Create(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("session_id", sessionID).
		Int("number", number).
		Str("team_a", next.TeamAID).
		Str("team_b", next.TeamBID).
		Msg("game started")
	return g, nil
}

func (s *ScoringService) replay(ctx context.Context, games *repository.GameRepository, teams []domain.Team, sessionID string) (*scoring.Sequencer, error) {
	all, err := games.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return scoring.Replay(teamIDs(teams), completedOnly(all))
}

// loadActive returns a state machine over the running game. A cached score
// that disagrees with the ledger is repaired in memory and written back by
// the caller's update.
func (s *ScoringService) loadActive(ctx context.Context, games *repository.GameRepository, scores *repository.ScoreEventRepository, sessionID string) (*scoring.Machine, error) {
	g, err := games.Active(ctx, sessionID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrGameNotInProgress
		}
		return nil, err
	}
	ledger, err := scores.ListByGame(ctx, g.ID)
	if err != nil {
		return nil, err
	}

	m := scoring.NewMachine(*g, ledger, constants.TargetScore)
	if err := m.Check(); err != nil {
		s.logger.Warn().Err(err).Str("game_id", g.ID).Msg("repairing game score from ledger")
		m.Reconcile()
		metrics.Reconciled(1)
	}
	return m, nil
}

func completionReason(o scoring.Outcome) string {
	switch {
	case o.Draw:
		return metrics.ReasonDraw
	case o.Forced:
		return metrics.ReasonForced
	}
	return metrics.ReasonTarget
}

// RecordScore appends one score to the running game. When it decides the
// game, the next matchup is opened in the same transaction.
func (s *ScoringService) RecordScore(ctx context.Context, p auth.Principal, sessionID string, in ScoreInput) (*ScoreResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	session, err := s.managed(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireLive(session); err != nil {
		return nil, err
	}

	var res ScoreResult
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		games, scores := s.games.WithTx(tx), s.scores.WithTx(tx)

		teams, err := s.sessions.WithTx(tx).Teams(ctx, sessionID)
		if err != nil {
			return err
		}
		var team *domain.Team
		for i := range teams {
			if teams[i].ID == in.TeamID {
				team = &teams[i]
			}
		}
		if team == nil {
			return domain.Invalid("team_id", "team is not in this session")
		}

		m, err := s.loadActive(ctx, games, scores, sessionID)
		if err != nil {
			return err
		}

		id, err := repository.NewID()
		if err != nil {
			return err
		}
		ev, outcome, err := m.Append(domain.ScoreEvent{
			ID:       id,
			MemberID: in.MemberID,
			TeamID:   in.TeamID,
			Points:   in.Points,
		}, *team, s.now())
		if err != nil {
			return err
		}

		if err := scores.Insert(ctx, &ev); err != nil {
			return err
		}
		game := m.Game()
		if err := games.Update(ctx, &game); err != nil {
			return err
		}
		res = ScoreResult{Event: ev, Game: game, Outcome: outcome}

		if outcome.Completed {
			next, err := s.startNextGame(ctx, games, teams, sessionID)
			if err != nil {
				return err
			}
			res.NextGame = next
		}
		return nil
	})
	metrics.ObserveLedgerOp("append", err)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to record score")
		return nil, err
	}

	s.logger.Debug().
		Str("game_id", res.Game.ID).
		Str("member_id", res.Event.MemberID).
		Int("points", res.Event.Points).
		Int("score_a", res.Game.ScoreA).
		Int("score_b", res.Game.ScoreB).
		Msg("score recorded")

	s.pub.publish(ctx, events.KindScoreAppended, sessionID, apidto.ScoreChanged{
		Event: *apidto.FromScoreEvent(&res.Event),
		Game:  *apidto.FromGame(&res.Game),
	})
	if res.Outcome.Completed {
		reason := completionReason(res.Outcome)
		metrics.GameCompleted(reason)
		s.logger.Info().
			Str("game_id", res.Game.ID).
			Str("winner", res.Game.WinnerTeamID).
			Msg("game completed")
		s.pub.publish(ctx, events.KindGameCompleted, sessionID, apidto.GameCompleted{Game: *apidto.FromGame(&res.Game), Reason: reason})
	}
	if res.NextGame != nil {
		s.pub.publish(ctx, events.KindGameStarted, sessionID, apidto.GameStarted{Game: *apidto.FromGame(res.NextGame)})
	}
	return &res, nil
}

// UndoLastScore retracts the most recent score of the running game.
func (s *ScoringService) UndoLastScore(ctx context.Context, p auth.Principal, sessionID string) (*UndoResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	session, err := s.managed(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireLive(session); err != nil {
		return nil, err
	}

	var res UndoResult
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		games, scores := s.games.WithTx(tx), s.scores.WithTx(tx)

		m, err := s.loadActive(ctx, games, scores, sessionID)
		if err != nil {
			return err
		}
		ev, err := m.RetractLast()
		if err != nil {
			return err
		}
		if err := scores.Delete(ctx, ev.ID); err != nil {
			return err
		}
		game := m.Game()
		if err := games.Update(ctx, &game); err != nil {
			return err
		}
		res = UndoResult{Event: ev, Game: game}
		return nil
	})
	metrics.ObserveLedgerOp("retract", err)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to undo score")
		return nil, err
	}

	s.pub.publish(ctx, events.KindScoreRetracted, sessionID, apidto.ScoreChanged{
		Event: *apidto.FromScoreEvent(&res.Event),
		Game:  *apidto.FromGame(&res.Game),
	})
	return &res, nil
}

// EndSession closes a session. A running game with points is completed at
// its current score, a running game without any is discarded.
func (s *ScoringService) EndSession(ctx context.Context, p auth.Principal, sessionID string) (*EndResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	session, err := s.managed(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionCompleted {
		return nil, domain.ErrSessionCompleted
	}

	res := EndResult{}
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		games, scores := s.games.WithTx(tx), s.scores.WithTx(tx)

		m, err := s.loadActive(ctx, games, scores, sessionID)
		switch {
		case errors.Is(err, domain.ErrGameNotInProgress):
		case err != nil:
			return err
		case m.Ledger().Len() == 0:
			if err := games.Delete(ctx, m.Game().ID); err != nil {
				return err
			}
			res.Discarded = true
		default:
			outcome, err := m.ForceComplete(s.now())
			if err != nil {
				return err
			}
			game := m.Game()
			if err := games.Update(ctx, &game); err != nil {
				return err
			}
			res.Game, res.Outcome = &game, outcome
		}

		if err := s.sessions.WithTx(tx).UpdateStatus(ctx, sessionID, domain.SessionCompleted); err != nil {
			return err
		}
		session.Status = domain.SessionCompleted
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to end session")
		return nil, err
	}
	res.Session = *session

	s.logger.Info().
		Str("session_id", sessionID).
		Bool("forced_game", res.Game != nil).
		Bool("discarded_game", res.Discarded).
		Msg("session ended")

	if res.Game != nil {
		reason := completionReason(res.Outcome)
		metrics.GameCompleted(reason)
		s.pub.publish(ctx, events.KindGameCompleted, sessionID, apidto.GameCompleted{Game: *apidto.FromGame(res.Game), Reason: reason})
	}
	s.pub.publish(ctx, events.KindSessionEnded, sessionID, apidto.SessionChanged{Session: apidto.FromSession(&res.Session)})

	go s.sendRecap(res.Session)
	return &res, nil
}

// sendRecap posts the recap of a finished session. Failures are logged only.
func (s *ScoringService) sendRecap(session domain.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.WebhookTimeout)
	defer cancel()

	recap, err := s.stats.recapFor(ctx, &session)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to build recap for webhook")
		return
	}
	group, err := s.groups.Get(ctx, session.GroupID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to load squad for webhook")
		return
	}

	err = s.notifier.SendRecap(ctx, notify.RecapMessage{
		SessionID:   session.ID,
		SquadName:   group.Name,
		ScheduledAt: session.ScheduledAt,
		Text:        recap.Text,
		Recap:       apidto.FromRecap(recap.Recap),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("recap webhook failed")
	}
}

// Reconcile recomputes every game score of the session from its ledger and
// returns the games that were repaired. Winners of completed games are left
// as recorded.
func (s *ScoringService) Reconcile(ctx context.Context, p auth.Principal, sessionID string) ([]domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.managed(ctx, p, sessionID); err != nil {
		return nil, err
	}

	repaired := []domain.Game{}
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		games, scores := s.games.WithTx(tx), s.scores.WithTx(tx)

		all, err := games.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		evs, err := scores.ListByGames(ctx, gameIDs(all))
		if err != nil {
			return err
		}
		byGame := make(map[string][]domain.ScoreEvent, len(all))
		for _, ev := range evs {
			byGame[ev.GameID] = append(byGame[ev.GameID], ev)
		}

		for _, g := range all {
			m := scoring.NewMachine(g, byGame[g.ID], constants.TargetScore)
			mismatch := m.Check()
			if mismatch == nil {
				continue
			}
			s.logger.Warn().Err(mismatch).Str("game_id", g.ID).Msg("repairing game score from ledger")
			m.Reconcile()
			fixed := m.Game()
			if err := games.Update(ctx, &fixed); err != nil {
				return err
			}
			repaired = append(repaired, fixed)
		}
		return nil
	})
	metrics.ObserveLedgerOp("reconcile", err)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to reconcile session")
		return nil, err
	}

	if len(repaired) > 0 {
		metrics.Reconciled(len(repaired))
		s.pub.publish(ctx, events.KindGameReconciled, sessionID, apidto.GamesReconciled{Games: apidto.FromGames(repaired)})
	}
	return repaired, nil
}

// LiveState reads the scoreboard of a session. Scores come from the ledger.
func (s *ScoringService) LiveState(ctx context.Context, p auth.Principal, sessionID string) (*LiveState, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	session, err := squadSession(ctx, s.sessions, p.GroupID, sessionID)
	if err != nil {
		return nil, err
	}

	state := &LiveState{Session: *session, Events: []domain.ScoreEvent{}, PlayerPoints: map[string]int{}, Waiting: []string{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.sessions.Teams(gctx, sessionID)
		state.Teams = teams
		return err
	})
	g.Go(func() error {
		games, err := s.games.ListBySession(gctx, sessionID)
		state.Games = games
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range state.Games {
		if state.Games[i].Status == domain.GameInProgress {
			active := state.Games[i]
			state.Active = &active
		}
	}

	if state.Active != nil {
		ledger, err := s.scores.ListByGame(ctx, state.Active.ID)
		if err != nil {
			return nil, err
		}
		m := scoring.NewMachine(*state.Active, ledger, constants.TargetScore)
		if err := m.Check(); err != nil {
			s.logger.Warn().Err(err).Str("game_id", state.Active.ID).Msg("live state served from ledger")
			m.Reconcile()
		}
		game := m.Game()
		state.Active = &game
		state.Events = m.Ledger().Events()
		state.PlayerPoints = m.Ledger().MemberPoints()
		if last, ok := m.Ledger().Last(); ok {
			state.LastEvent = &last
		}
	}

	if session.Status != domain.SessionCompleted && len(state.Teams) >= 2 {
		seq, err := scoring.Replay(teamIDs(state.Teams), completedOnly(state.Games))
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("rotation does not replay")
		} else {
			state.Waiting = seq.Waiting()
		}
	}

	if streak, ok := stats.CurrentStreak(state.Games); ok {
		state.Streak = &streak
	}
	return state, nil
}
