package service

import (
	"context"

	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/repository"
	"github.com/ibrahim-qi/sesh-app/internal/stats"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type SessionRecap struct {
	Session domain.Session
	Recap   stats.Recap
	Text    string
}

// StatsService reads leaderboards and recaps. Everything is recomputed
// from completed games and their ledgers on each call.
type StatsService struct {
	sessions *repository.SessionRepository
	games    *repository.GameRepository
	scores   *repository.ScoreEventRepository
	members  *repository.MemberRepository
	logger   zerolog.Logger
}

func NewStatsService(
	sessions *repository.SessionRepository,
	games *repository.GameRepository,
	scores *repository.ScoreEventRepository,
	members *repository.MemberRepository,
	logger zerolog.Logger,
) *StatsService {
	return &StatsService{sessions: sessions, games: games, scores: scores, members: members, logger: logger}
}

// squadInput loads the whole history of a squad.
func (s *StatsService) squadInput(ctx context.Context, groupID string) (stats.Input, error) {
	var in stats.Input

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := s.members.ListByGroup(gctx, groupID)
		in.Members = members
		return err
	})
	g.Go(func() error {
		teams, err := s.sessions.TeamsByGroup(gctx, groupID)
		in.Teams = teams
		return err
	})
	g.Go(func() error {
		games, err := s.games.ListCompletedByGroup(gctx, groupID)
		in.Games = games
		return err
	})
	if err := g.Wait(); err != nil {
		return stats.Input{}, err
	}

	evs, err := s.scores.ListByGames(ctx, gameIDs(in.Games))
	if err != nil {
		return stats.Input{}, err
	}
	in.Events = evs
	return in, nil
}

func (s *StatsService) Leaderboard(ctx context.Context, p auth.Principal) (*stats.Leaderboards, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	in, err := s.squadInput(ctx, p.GroupID)
	if err != nil {
		s.logger.Error().Err(err).Str("group_id", p.GroupID).Msg("failed to load leaderboard")
		return nil, err
	}

	boards := stats.BuildLeaderboards(stats.MemberLines(in))
	s.logger.Debug().
		Str("group_id", p.GroupID).
		Int("members", len(in.Members)).
		Int("games", len(in.Games)).
		Msg("leaderboard computed")
	return &boards, nil
}

// MemberStats returns one member's career line within the squad.
func (s *StatsService) MemberStats(ctx context.Context, p auth.Principal, memberID string) (*stats.MemberLine, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	member, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.GroupID != p.GroupID {
		return nil, domain.NotFound("member", memberID)
	}

	in, err := s.squadInput(ctx, p.GroupID)
	if err != nil {
		s.logger.Error().Err(err).Str("member_id", memberID).Msg("failed to load member stats")
		return nil, err
	}
	in.Members = []domain.Member{*member}

	line := stats.MemberLines(in)[0]
	return &line, nil
}

func (s *StatsService) SessionRecap(ctx context.Context, p auth.Principal, sessionID string) (*SessionRecap, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	session, err := squadSession(ctx, s.sessions, p.GroupID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.recapFor(ctx, session)
}

// recapFor builds the recap of one session from its completed games.
func (s *StatsService) recapFor(ctx context.Context, session *domain.Session) (*SessionRecap, error) {
	var in stats.Input

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := s.members.ListByGroup(gctx, session.GroupID)
		in.Members = members
		return err
	})
	g.Go(func() error {
		teams, err := s.sessions.Teams(gctx, session.ID)
		in.Teams = teams
		return err
	})
	g.Go(func() error {
		games, err := s.games.ListBySession(gctx, session.ID)
		in.Games = completedOnly(games)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to load recap")
		return nil, err
	}

	evs, err := s.scores.ListByGames(ctx, gameIDs(in.Games))
	if err != nil {
		return nil, err
	}
	in.Events = evs

	recap := stats.BuildRecap(in)
	return &SessionRecap{
		Session: *session,
		Recap:   recap,
		Text:    stats.RecapText(session.ScheduledAt, recap),
	}, nil
}
