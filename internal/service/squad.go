package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/repository"
	"github.com/rs/zerolog"
)

// AuthResult is returned by every way of signing in.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Member    domain.Member
	Group     domain.Group
}

type CreateSquadInput struct {
	SetupCode string
	SquadName string
	AdminName string
	AvatarURL string
}

type SquadService struct {
	tx      *repository.Transactor
	groups  *repository.GroupRepository
	members *repository.MemberRepository
	tokens  *auth.TokenIssuer
	gate    *auth.SetupGate
	now     Clock
	logger  zerolog.Logger
}

func NewSquadService(
	tx *repository.Transactor,
	groups *repository.GroupRepository,
	members *repository.MemberRepository,
	tokens *auth.TokenIssuer,
	gate *auth.SetupGate,
	now Clock,
	logger zerolog.Logger,
) *SquadService {
	return &SquadService{tx: tx, groups: groups, members: members, tokens: tokens, gate: gate, now: now, logger: logger}
}

// CreateSquad sets up a new squad with the caller as its admin.
func (s *SquadService) CreateSquad(ctx context.Context, in CreateSquadInput) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.gate.Check(in.SetupCode); err != nil {
		s.logger.Warn().Err(err).Msg("squad setup rejected")
		return nil, err
	}
	squadName, err := cleanName("squad_name", in.SquadName)
	if err != nil {
		return nil, err
	}
	adminName, err := cleanName("name", in.AdminName)
	if err != nil {
		return nil, err
	}
	avatarURL, err := cleanAvatarURL(in.AvatarURL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		group  domain.Group
		member domain.Member
	)
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		groups := s.groups.WithTx(tx)

		code, err := s.uniqueInviteCode(ctx, groups)
		if err != nil {
			return err
		}
		groupID, err := repository.NewID()
		if err != nil {
			return err
		}
		memberID, err := repository.NewID()
		if err != nil {
			return err
		}

		group = domain.Group{ID: groupID, Name: squadName, InviteCode: code, CreatedAt: now}
		if err := groups.Create(ctx, &group); err != nil {
			return err
		}
		member = domain.Member{
			ID:        memberID,
			GroupID:   groupID,
			Name:      adminName,
			AvatarURL: avatarURL,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
		}
		return s.members.WithTx(tx).Create(ctx, &member)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("squad", squadName).Msg("failed to create squad")
		return nil, err
	}

	s.logger.Info().Str("group_id", group.ID).Str("invite_code", group.InviteCode).Msg("squad created")
	return s.signIn(&member, &group)
}

func (s *SquadService) uniqueInviteCode(ctx context.Context, groups *repository.GroupRepository) (string, error) {
	for i := 0; i < constants.InviteCodeAttempts; i++ {
		code, err := repository.NewInviteCode()
		if err != nil {
			return "", err
		}
		exists, err := groups.InviteCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		if !exists {
			return code, nil
		}
		s.logger.Debug().Str("code", code).Msg("invite code collision, retrying")
	}
	return "", errors.New("failed to generate a unique invite code")
}

func (s *SquadService) GetSquadByInvite(ctx context.Context, code string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if strings.TrimSpace(code) == "" {
		return nil, domain.Invalid("code", "is required")
	}
	return s.groups.GetByInviteCode(ctx, code)
}

// Join signs in a member of the squad behind an invite code. Members are
// added by an admin; an unknown name is not registered here.
func (s *SquadService) Join(ctx context.Context, code, name string) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	group, err := s.GetSquadByInvite(ctx, code)
	if err != nil {
		return nil, err
	}

	found, err := s.members.FindByName(ctx, group.ID, name)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		s.logger.Info().Str("group_id", group.ID).Str("name", name).Msg("join with unknown name")
		return nil, domain.NotFound("player", name)
	}
	return s.signIn(&found[0], group)
}

// Login looks a name up across every squad. It only succeeds when the name
// is unambiguous; otherwise the invite link has to be used.
func (s *SquadService) Login(ctx context.Context, name string) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	found, err := s.members.FindByName(ctx, "", name)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, domain.NotFound("player", name)
	case 1:
	default:
		s.logger.Info().Str("name", name).Int("matches", len(found)).Msg("ambiguous login")
		return nil, domain.ErrAmbiguousName
	}

	group, err := s.groups.Get(ctx, found[0].GroupID)
	if err != nil {
		return nil, err
	}
	return s.signIn(&found[0], group)
}

func (s *SquadService) signIn(m *domain.Member, g *domain.Group) (*AuthResult, error) {
	token, err := s.tokens.Issue(m)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("member_id", m.ID).Str("group_id", g.ID).Msg("member signed in")
	return &AuthResult{
		Token:     token,
		ExpiresAt: s.now().Add(s.tokens.TTL()),
		Member:    *m,
		Group:     *g,
	}, nil
}

func (s *SquadService) GetSquad(ctx context.Context, p auth.Principal) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	return s.groups.Get(ctx, p.GroupID)
}

func (s *SquadService) Me(ctx context.Context, p auth.Principal) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return actor(ctx, s.members, p)
}

func (s *SquadService) RenameSquad(ctx context.Context, p auth.Principal, name string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	me, err := actor(ctx, s.members, p)
	if err != nil {
		return nil, err
	}
	if err := requireRole(me, domain.RoleAdmin); err != nil {
		return nil, err
	}
	name, err = cleanName("name", name)
	if err != nil {
		return nil, err
	}
	if err := s.groups.Rename(ctx, p.GroupID, name); err != nil {
		s.logger.Error().Err(err).Str("group_id", p.GroupID).Msg("failed to rename squad")
		return nil, err
	}
	return s.groups.Get(ctx, p.GroupID)
}

func cleanAvatarURL(v string) (string, error) {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) > constants.MaxAvatarURLLength {
		return "", domain.Invalid("avatar_url", "is too long")
	}
	return v, nil
}
