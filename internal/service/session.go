package service

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ibrahim-qi/sesh-app/internal/apidto"
	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/events"
	"github.com/ibrahim-qi/sesh-app/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type TeamInput struct {
	Name      string
	Color     domain.TeamColor
	CaptainID string
	PlayerIDs []string
}

type ScheduleInput struct {
	ScheduledAt time.Time
	Location    string
	HostID      string
	Teams       []TeamInput
}

type SessionDetail struct {
	Session domain.Session
	Host    *domain.Member
	Teams   []domain.Team
	Games   []domain.Game
}

type SessionService struct {
	tx       *repository.Transactor
	sessions *repository.SessionRepository
	games    *repository.GameRepository
	members  *repository.MemberRepository
	pub      publisher
	now      Clock
	logger   zerolog.Logger
}

func NewSessionService(
	tx *repository.Transactor,
	sessions *repository.SessionRepository,
	games *repository.GameRepository,
	members *repository.MemberRepository,
	broker events.Broker,
	now Clock,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		tx:       tx,
		sessions: sessions,
		games:    games,
		members:  members,
		pub:      publisher{broker: broker, logger: logger},
		now:      now,
		logger:   logger,
	}
}

// ScheduleSession creates an upcoming session with its teams. Teams without
// players are dropped; at least two must remain.
func (s *SessionService) ScheduleSession(ctx context.Context, p auth.Principal, in ScheduleInput) (*SessionDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	me, err := actor(ctx, s.members, p)
	if err != nil {
		return nil, err
	}
	if err := requireRole(me, domain.RoleAdmin, domain.RoleHost); err != nil {
		return nil, err
	}

	roster, err := s.members.ListByGroup(ctx, p.GroupID)
	if err != nil {
		return nil, err
	}
	inSquad := make(map[string]bool, len(roster))
	for _, m := range roster {
		inSquad[m.ID] = true
	}

	teams, err := validateSchedule(in, inSquad)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sessionID, err := repository.NewID()
	if err != nil {
		return nil, err
	}
	session := domain.Session{
		ID:          sessionID,
		GroupID:     p.GroupID,
		HostID:      in.HostID,
		CreatedBy:   me.ID,
		ScheduledAt: in.ScheduledAt.UTC(),
		Location:    strings.TrimSpace(in.Location),
		Status:      domain.SessionUpcoming,
		CreatedAt:   now,
	}

	created := make([]domain.Team, 0, len(teams))
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)
		if err := sessions.Create(ctx, &session); err != nil {
			return err
		}
		for i, t := range teams {
			id, err := repository.NewID()
			if err != nil {
				return err
			}
			team := domain.Team{
				ID:        id,
				SessionID: session.ID,
				Name:      t.Name,
				Color:     t.Color,
				CaptainID: t.CaptainID,
				Position:  i,
				PlayerIDs: t.PlayerIDs,
				CreatedAt: now,
			}
			if err := sessions.CreateTeam(ctx, &team); err != nil {
				return err
			}
			created = append(created, team)
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("group_id", p.GroupID).Msg("failed to schedule session")
		return nil, err
	}

	s.logger.Info().
		Str("session_id", session.ID).
		Int("teams", len(created)).
		Time("scheduled_at", session.ScheduledAt).
		Msg("session scheduled")

	detail := &SessionDetail{Session: session, Teams: created, Games: []domain.Game{}}
	for i := range roster {
		if roster[i].ID == session.HostID {
			detail.Host = &roster[i]
		}
	}
	return detail, nil
}

func validateSchedule(in ScheduleInput, inSquad map[string]bool) ([]TeamInput, error) {
	if in.ScheduledAt.IsZero() {
		return nil, domain.Invalid("scheduled_at", "is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Location)) > constants.MaxLocationLength {
		return nil, domain.Invalid("location", "is too long")
	}
	if in.HostID != "" && !inSquad[in.HostID] {
		return nil, domain.Invalid("host_id", "host is not in this squad")
	}

	seen := make(map[string]bool)
	teams := make([]TeamInput, 0, len(in.Teams))
	for _, t := range in.Teams {
		if len(t.PlayerIDs) == 0 {
			continue
		}
		name, err := cleanName("team name", t.Name)
		if err != nil {
			return nil, err
		}
		if t.Color == "" {
			t.Color = domain.TeamColors[len(teams)%len(domain.TeamColors)]
		}
		if !t.Color.Valid() {
			return nil, domain.Invalid("color", "unknown team colour "+string(t.Color))
		}
		for _, id := range t.PlayerIDs {
			if !inSquad[id] {
				return nil, domain.Invalid("player_ids", "player "+id+" is not in this squad")
			}
			if seen[id] {
				return nil, domain.Invalid("player_ids", "player "+id+" is on more than one team")
			}
			seen[id] = true
		}
		team := TeamInput{Name: name, Color: t.Color, CaptainID: t.CaptainID, PlayerIDs: t.PlayerIDs}
		if team.CaptainID != "" && !(domain.Team{PlayerIDs: team.PlayerIDs}).HasPlayer(team.CaptainID) {
			return nil, domain.Invalid("captain_id", "captain must play for "+name)
		}
		teams = append(teams, team)
	}
	if len(teams) < 2 {
		return nil, domain.ErrNotEnoughTeams
	}
	return teams, nil
}

// ListSessions returns the squad's sessions, newest first.
func (s *SessionService) ListSessions(ctx context.Context, p auth.Principal) ([]domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	return s.sessions.ListByGroup(ctx, p.GroupID)
}

func (s *SessionService) NextSession(ctx context.Context, p auth.Principal) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	return s.sessions.Next(ctx, p.GroupID)
}

func (s *SessionService) GetSession(ctx context.Context, p auth.Principal, sessionID string) (*SessionDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	session, err := squadSession(ctx, s.sessions, p.GroupID, sessionID)
	if err != nil {
		return nil, err
	}

	detail := &SessionDetail{Session: *session}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.sessions.Teams(gctx, sessionID)
		detail.Teams = teams
		return err
	})
	g.Go(func() error {
		games, err := s.games.ListBySession(gctx, sessionID)
		detail.Games = games
		return err
	})
	if session.HostID != "" {
		g.Go(func() error {
			host, err := s.members.Get(gctx, session.HostID)
			if err != nil {
				if domain.IsNotFound(err) {
					return nil
				}
				return err
			}
			detail.Host = host
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session")
		return nil, err
	}
	return detail, nil
}

// UpdateTeam renames or recolours a team. Allowed for admins and the
// team's captain.
func (s *SessionService) UpdateTeam(ctx context.Context, p auth.Principal, sessionID, teamID, name string, color domain.TeamColor) (*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	me, err := actor(ctx, s.members, p)
	if err != nil {
		return nil, err
	}
	if _, err := squadSession(ctx, s.sessions, p.GroupID, sessionID); err != nil {
		return nil, err
	}
	team, err := s.sessions.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.SessionID != sessionID {
		return nil, domain.NotFound("team", teamID)
	}
	if me.Role != domain.RoleAdmin && team.CaptainID != me.ID {
		return nil, domain.ErrForbidden
	}

	if name != "" {
		if team.Name, err = cleanName("name", name); err != nil {
			return nil, err
		}
	}
	if color != "" {
		if !color.Valid() {
			return nil, domain.Invalid("color", "unknown team colour "+string(color))
		}
		team.Color = color
	}
	if err := s.sessions.UpdateTeam(ctx, team); err != nil {
		return nil, err
	}

	s.pub.publish(ctx, events.KindTeamUpdated, sessionID, apidto.TeamUpdated{Team: apidto.FromTeam(team)})
	return team, nil
}

func (s *SessionService) DeleteSession(ctx context.Context, p auth.Principal, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	me, err := actor(ctx, s.members, p)
	if err != nil {
		return err
	}
	session, err := squadSession(ctx, s.sessions, p.GroupID, sessionID)
	if err != nil {
		return err
	}
	if !canManageSession(me, session) {
		return domain.ErrForbidden
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to delete session")
		return err
	}
	s.logger.Info().Str("session_id", sessionID).Str("by", me.ID).Msg("session deleted")
	return nil
}
