package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/rs/zerolog"
)

type MemberRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewMemberRepository(sqlDB *sql.DB, logger zerolog.Logger) *MemberRepository {
	return &MemberRepository{db: sqlDB, logger: logger}
}

func (r *MemberRepository) WithTx(tx *sql.Tx) *MemberRepository {
	return &MemberRepository{db: tx, logger: r.logger}
}

var memberColumns = []string{"id", "group_id", "name", "avatar_url", "role", "created_at"}

func scanMember(row interface{ Scan(...any) error }) (domain.Member, error) {
	var m domain.Member
	err := row.Scan(&m.ID, &m.GroupID, &m.Name, &m.AvatarURL, &m.Role, &m.CreatedAt)
	return m, err
}

func (r *MemberRepository) list(ctx context.Context, b sq.SelectBuilder) ([]domain.Member, error) {
	rows, err := selectRows(ctx, r.db, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MemberRepository) Create(ctx context.Context, m *domain.Member) error {
	_, err := exec(ctx, r.db, psql.Insert("members").
		Columns(memberColumns...).
		Values(m.ID, m.GroupID, m.Name, m.AvatarURL, m.Role, m.CreatedAt.UTC()))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Invalid("name", "a player with that name already exists")
		}
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func (r *MemberRepository) Get(ctx context.Context, id string) (*domain.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		`SELECT id, group_id, name, avatar_url, role, created_at FROM members WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "member", id)
	}
	return &m, nil
}

// ListByGroup returns the roster ordered by name.
func (r *MemberRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.Member, error) {
	return r.list(ctx, psql.Select(memberColumns...).
		From("members").
		Where(sq.Eq{"group_id": groupID}).
		OrderBy("lower(name)", "id"))
}

// FindByName matches names case-insensitively. An empty groupID searches
// every squad.
func (r *MemberRepository) FindByName(ctx context.Context, groupID, name string) ([]domain.Member, error) {
	b := psql.Select(memberColumns...).
		From("members").
		Where(sq.Expr("lower(name) = ?", strings.ToLower(strings.TrimSpace(name)))).
		OrderBy("created_at", "id")
	if groupID != "" {
		b = b.Where(sq.Eq{"group_id": groupID})
	}
	return r.list(ctx, b)
}

func (r *MemberRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	res, err := exec(ctx, r.db, psql.Update("members").Set("role", role).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return expectOne(res, "member", id)
}

func (r *MemberRepository) UpdateProfile(ctx context.Context, id, name, avatarURL string) error {
	res, err := exec(ctx, r.db, psql.Update("members").
		Set("name", name).
		Set("avatar_url", avatarURL).
		Where(sq.Eq{"id": id}))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Invalid("name", "a player with that name already exists")
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectOne(res, "member", id)
}

func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return expectOne(res, "member", id)
}
