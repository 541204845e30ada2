package service

import (
	"context"
	"fmt"

	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/repository"
	"github.com/rs/zerolog"
)

type RosterService struct {
	members *repository.MemberRepository
	now     Clock
	logger  zerolog.Logger
}

func NewRosterService(members *repository.MemberRepository, now Clock, logger zerolog.Logger) *RosterService {
	return &RosterService{members: members, now: now, logger: logger}
}

func (s *RosterService) ListMembers(ctx context.Context, p auth.Principal) ([]domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := actor(ctx, s.members, p); err != nil {
		return nil, err
	}
	return s.members.ListByGroup(ctx, p.GroupID)
}

// AddMember puts a new player on the roster. Only admins manage the roster.
func (s *RosterService) AddMember(ctx context.Context, p auth.Principal, name string) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.admin(ctx, p); err != nil {
		return nil, err
	}
	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	id, err := repository.NewID()
	if err != nil {
		return nil, err
	}

	m := domain.Member{
		ID:        id,
		GroupID:   p.GroupID,
		Name:      name,
		Role:      domain.RolePlayer,
		CreatedAt: s.now(),
	}
	if err := s.members.Create(ctx, &m); err != nil {
		s.logger.Warn().Err(err).Str("group_id", p.GroupID).Str("name", name).Msg("failed to add member")
		return nil, err
	}

	s.logger.Info().Str("group_id", p.GroupID).Str("member_id", m.ID).Msg("member added")
	return &m, nil
}

// RemoveMember deletes a roster entry. Their past points stay on their
// teams' scores.
func (s *RosterService) RemoveMember(ctx context.Context, p auth.Principal, memberID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.admin(ctx, p); err != nil {
		return err
	}
	target, err := s.squadMember(ctx, p.GroupID, memberID)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleAdmin {
		return fmt.Errorf("%w: admins cannot be removed", domain.ErrForbidden)
	}

	if err := s.members.Delete(ctx, memberID); err != nil {
		s.logger.Error().Err(err).Str("member_id", memberID).Msg("failed to remove member")
		return err
	}
	s.logger.Info().Str("group_id", p.GroupID).Str("member_id", memberID).Msg("member removed")
	return nil
}

// ChangeRole switches a member between host and player.
func (s *RosterService) ChangeRole(ctx context.Context, p auth.Principal, memberID string, role domain.Role) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.admin(ctx, p); err != nil {
		return nil, err
	}
	if role != domain.RoleHost && role != domain.RolePlayer {
		return nil, domain.Invalid("role", "must be host or player")
	}
	target, err := s.squadMember(ctx, p.GroupID, memberID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot be demoted", domain.ErrForbidden)
	}

	if err := s.members.UpdateRole(ctx, memberID, role); err != nil {
		return nil, err
	}
	target.Role = role
	s.logger.Info().Str("member_id", memberID).Str("role", string(role)).Msg("role changed")
	return target, nil
}

// UpdateProfile edits the caller's own name and avatar.
func (s *RosterService) UpdateProfile(ctx context.Context, p auth.Principal, name, avatarURL string) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	me, err := actor(ctx, s.members, p)
	if err != nil {
		return nil, err
	}
	name, err = cleanName("name", name)
	if err != nil {
		return nil, err
	}
	avatarURL, err = cleanAvatarURL(avatarURL)
	if err != nil {
		return nil, err
	}

	if err := s.members.UpdateProfile(ctx, me.ID, name, avatarURL); err != nil {
		return nil, err
	}
	me.Name, me.AvatarURL = name, avatarURL
	return me, nil
}

func (s *RosterService) admin(ctx context.Context, p auth.Principal) (*domain.Member, error) {
	me, err := actor(ctx, s.members, p)
	if err != nil {
		return nil, err
	}
	if err := requireRole(me, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return me, nil
}

func (s *RosterService) squadMember(ctx context.Context, groupID, memberID string) (*domain.Member, error) {
	m, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.GroupID != groupID {
		return nil, domain.NotFound("member", memberID)
	}
	return m, nil
}
