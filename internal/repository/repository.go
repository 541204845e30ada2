package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Transactor struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTransactor(sqlDB *sql.DB, logger zerolog.Logger) *Transactor {
	return &Transactor{db: sqlDB, logger: logger}
}

// WithinTx runs fn in a transaction and commits when fn returns nil.
func (t *Transactor) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		t.logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func NewID() (string, error) {
	id, err := gonanoid.New(constants.IDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id, nil
}

// NewInviteCode returns a short code without look-alike characters.
func NewInviteCode() (string, error) {
	code, err := gonanoid.Generate(constants.InviteCodeAlphabet, constants.InviteCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return code, nil
}

func selectRows(ctx context.Context, db DBTX, b sq.SelectBuilder) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return db.QueryContext(ctx, query, args...)
}

func exec(ctx context.Context, db DBTX, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build statement: %w", err)
	}
	return db.ExecContext(ctx, query, args...)
}

// notFound maps sql.ErrNoRows onto the domain error.
func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	return err
}

// expectOne reports a NotFoundError when a write touched no row.
func expectOne(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(entity, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// chunks splits ids into slices of at most size elements.
func chunks(ids []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
