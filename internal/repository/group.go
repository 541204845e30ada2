package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/rs/zerolog"
)

type GroupRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewGroupRepository(sqlDB *sql.DB, logger zerolog.Logger) *GroupRepository {
	return &GroupRepository{db: sqlDB, logger: logger}
}

func (r *GroupRepository) WithTx(tx *sql.Tx) *GroupRepository {
	return &GroupRepository{db: tx, logger: r.logger}
}

const groupColumns = "id, name, invite_code, created_at"

func scanGroup(row interface{ Scan(...any) error }) (domain.Group, error) {
	var g domain.Group
	err := row.Scan(&g.ID, &g.Name, &g.InviteCode, &g.CreatedAt)
	return g, err
}

func (r *GroupRepository) Create(ctx context.Context, g *domain.Group) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, invite_code, created_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Name, g.InviteCode, g.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

func (r *GroupRepository) Get(ctx context.Context, id string) (*domain.Group, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "squad", id)
	}
	return &g, nil
}

func (r *GroupRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	g, err := scanGroup(r.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE invite_code = ?`, code))
	if err != nil {
		return nil, notFound(err, "squad", code)
	}
	return &g, nil
}

func (r *GroupRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups WHERE invite_code = ?`, code).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GroupRepository) Rename(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename group: %w", err)
	}
	return expectOne(res, "squad", id)
}
