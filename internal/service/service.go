package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/events"
	"github.com/ibrahim-qi/sesh-app/internal/notify"
	"github.com/ibrahim-qi/sesh-app/internal/repository"
	"github.com/rs/zerolog"
)

// Clock is injected so tests can pin timestamps.
type Clock func() time.Time

func SystemClock() Clock {
	return func() time.Time { return time.Now().UTC() }
}

// RecapNotifier delivers the recap of a finished session.
type RecapNotifier interface {
	SendRecap(ctx context.Context, msg notify.RecapMessage) error
}

// actor loads the member a principal names. Roles are always read from
// storage, so a token outlives neither a removal nor a demotion.
func actor(ctx context.Context, members *repository.MemberRepository, p auth.Principal) (*domain.Member, error) {
	m, err := members.Get(ctx, p.MemberID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if m.GroupID != p.GroupID {
		return nil, domain.ErrUnauthorized
	}
	return m, nil
}

func requireRole(m *domain.Member, roles ...domain.Role) error {
	for _, r := range roles {
		if m.Role == r {
			return nil
		}
	}
	return domain.ErrForbidden
}

func canManageSession(m *domain.Member, s *domain.Session) bool {
	return m.Role == domain.RoleAdmin || s.HostID == m.ID || s.CreatedBy == m.ID
}

// squadSession loads a session of the caller's squad. Sessions of other
// squads are reported as missing.
func squadSession(ctx context.Context, sessions *repository.SessionRepository, groupID, id string) (*domain.Session, error) {
	s, err := sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.GroupID != groupID {
		return nil, domain.NotFound("session", id)
	}
	return s, nil
}

func cleanName(field, v string) (string, error) {
	v = strings.Join(strings.Fields(v), " ")
	if v == "" {
		return "", domain.Invalid(field, "is required")
	}
	if utf8.RuneCountInString(v) > constants.MaxNameLength {
		return "", domain.Invalid(field, fmt.Sprintf("must be at most %d characters", constants.MaxNameLength))
	}
	return v, nil
}

func teamIDs(teams []domain.Team) []string {
	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return ids
}

func completedOnly(games []domain.Game) []domain.Game {
	out := make([]domain.Game, 0, len(games))
	for _, g := range games {
		if g.Status == domain.GameCompleted {
			out = append(out, g)
		}
	}
	return out
}

func gameIDs(games []domain.Game) []string {
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	return ids
}

// publisher sends change events once the write that caused them has
// committed. Delivery is best effort.
type publisher struct {
	broker events.Broker
	logger zerolog.Logger
}

func (p publisher) publish(ctx context.Context, kind events.Kind, sessionID string, data any) {
	ev, err := events.New(kind, sessionID, data)
	if err != nil {
		p.logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to build event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.PublishTimeout)
	defer cancel()

	if err := p.broker.Publish(ctx, ev); err != nil {
		p.logger.Warn().Err(err).
			Str("kind", string(kind)).
			Str("session_id", sessionID).
			Msg("failed to publish event")
	}
}
