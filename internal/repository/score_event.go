package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/rs/zerolog"
)

// ScoreEventRepository stores game ledgers.
type ScoreEventRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewScoreEventRepository(sqlDB *sql.DB, logger zerolog.Logger) *ScoreEventRepository {
	return &ScoreEventRepository{db: sqlDB, logger: logger}
}

func (r *ScoreEventRepository) WithTx(tx *sql.Tx) *ScoreEventRepository {
	return &ScoreEventRepository{db: tx, logger: r.logger}
}

var scoreEventColumns = []string{"id", "game_id", "member_id", "team_id", "points", "seq", "created_at"}

func (r *ScoreEventRepository) list(ctx context.Context, b sq.SelectBuilder) ([]domain.ScoreEvent, error) {
	rows, err := selectRows(ctx, r.db, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query score events: %w", err)
	}
	defer rows.Close()

	events := []domain.ScoreEvent{}
	for rows.Next() {
		var (
			ev       domain.ScoreEvent
			memberID sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.GameID, &memberID, &ev.TeamID, &ev.Points, &ev.Seq, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score event: %w", err)
		}
		ev.MemberID = memberID.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *ScoreEventRepository) Insert(ctx context.Context, ev *domain.ScoreEvent) error {
	_, err := exec(ctx, r.db, psql.Insert("score_events").
		Columns(scoreEventColumns...).
		Values(ev.ID, ev.GameID, nullString(ev.MemberID), ev.TeamID, ev.Points, ev.Seq, ev.CreatedAt.UTC()))
	if err != nil {
		return fmt.Errorf("failed to insert score event: %w", err)
	}
	return nil
}

func (r *ScoreEventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM score_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete score event: %w", err)
	}
	return expectOne(res, "score event", id)
}

// ListByGame returns one game's ledger in append order.
func (r *ScoreEventRepository) ListByGame(ctx context.Context, gameID string) ([]domain.ScoreEvent, error) {
	return r.list(ctx, psql.Select(scoreEventColumns...).
		From("score_events").
		Where(sq.Eq{"game_id": gameID}).
		OrderBy("seq"))
}

// ListByGames fetches the ledgers of many games, batching the IN list.
func (r *ScoreEventRepository) ListByGames(ctx context.Context, gameIDs []string) ([]domain.ScoreEvent, error) {
	events := []domain.ScoreEvent{}
	for _, batch := range chunks(gameIDs, constants.DBBatchSize) {
		part, err := r.list(ctx, psql.Select(scoreEventColumns...).
			From("score_events").
			Where(sq.Eq{"game_id": batch}).
			OrderBy("game_id", "seq"))
		if err != nil {
			return nil, err
		}
		events = append(events, part...)
	}
	return events, nil
}

func (r *ScoreEventRepository) ListByMember(ctx context.Context, memberID string) ([]domain.ScoreEvent, error) {
	return r.list(ctx, psql.Select(scoreEventColumns...).
		From("score_events").
		Where(sq.Eq{"member_id": memberID}).
		OrderBy("created_at", "seq"))
}
